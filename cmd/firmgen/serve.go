package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/metalagman/firmgen/internal/logging"
	"github.com/metalagman/firmgen/internal/web"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the batch ledger as web pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeFn, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			server, err := web.NewServer(store)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger := logging.For("web")
			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving the batch ledger on http://%s\n", displayAddr(addr))
			logger.Info().Str("addr", addr).Msg("web: listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	return cmd
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

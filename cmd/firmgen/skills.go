package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metalagman/firmgen/internal/skills"
	"github.com/metalagman/firmgen/internal/skillserver"
)

func skillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Inspect and serve firmware skills",
	}
	cmd.AddCommand(skillsListCmd(), skillsServeCmd())
	return cmd
}

func loadSkills(cmd *cobra.Command) (*skills.Registry, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	reg, err := newSkillRegistry(cfg)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, errors.New("skills.dir is not configured")
	}
	return reg, nil
}

func skillsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the loaded skills",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadSkills(cmd)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, reg.Len())
			for _, key := range reg.Names() {
				s, _ := reg.Get(key)
				rows = append(rows, []string{s.Key, s.Name, s.Description})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), table([]string{"DIR", "NAME", "DESCRIPTION"}, rows))
			return err
		},
	}
}

func skillsServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the skill tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadSkills(cmd)
			if err != nil {
				return err
			}
			return skillserver.Serve(cmd.Context(), reg)
		},
	}
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/adk/agent"

	"github.com/metalagman/firmgen/internal/adkexec"
	"github.com/metalagman/firmgen/internal/db"
	"github.com/metalagman/firmgen/internal/pipeline"
)

// DesignFile is the per-task design file written before generation.
const DesignFile = "design.txt"

// Generator runs one generation.
type Generator interface {
	Run(ctx context.Context, in pipeline.Input) (*pipeline.State, error)
}

// Ledger records runs and tasks.
type Ledger interface {
	CreateRun(ctx context.Context, r db.Run) error
	FinishRun(ctx context.Context, runID, status string, failed int) error
	StartTask(ctx context.Context, runID, taskID, outputDir string) error
	FinishTask(ctx context.Context, runID, taskID string, taskErr error) error
}

// Outcome is the result of one task.
type Outcome struct {
	Task  Task
	Dir   string
	Files []string
	Err   error
}

// Summary describes a finished batch.
type Summary struct {
	RunID    string
	Status   string
	Outcomes []Outcome
}

// Failed counts the failed tasks.
func (s Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// TaskError wraps the failure that stopped a fail-fast batch.
type TaskError struct {
	TaskID string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.TaskID, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Runner drives a task list through the pipeline, one task per loop iteration.
type Runner struct {
	Pipeline  Generator
	Store     Ledger
	OutputDir string
	Platform  string
	// Input names the task list in the ledger.
	Input    string
	FailFast bool
	OnTask   func(Outcome)
}

// Run generates every task into OutputDir/<task id>. Task failures are
// recorded and the batch continues unless FailFast is set.
func (r *Runner) Run(ctx context.Context, tasks []Task) (Summary, error) {
	if r.Pipeline == nil {
		return Summary{}, errors.New("batch: pipeline is required")
	}
	lock, err := TryLock(r.OutputDir)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn().Err(err).Msg("batch: release lock")
		}
	}()

	sum := Summary{RunID: uuid.NewString()}
	logger := log.With().Str("run_id", sum.RunID).Logger()
	if r.Store != nil {
		if err := r.Store.CreateRun(ctx, db.Run{
			ID:        sum.RunID,
			Platform:  r.Platform,
			Input:     r.Input,
			OutputDir: r.OutputDir,
			Total:     len(tasks),
		}); err != nil {
			return Summary{}, fmt.Errorf("record run: %w", err)
		}
	}
	logger.Info().Int("tasks", len(tasks)).Str("output", r.OutputDir).Msg("batch: run started")

	var runErr error
	if len(tasks) > 0 {
		runErr = r.loop(ctx, sum.RunID, tasks, &sum)
	}

	sum.Status = runStatus(len(tasks), sum.Failed(), runErr)
	if r.Store != nil {
		// the run context may already be cancelled
		if err := r.Store.FinishRun(context.WithoutCancel(ctx), sum.RunID, sum.Status, sum.Failed()); err != nil {
			logger.Warn().Err(err).Msg("batch: record run result")
		}
	}
	logger.Info().Str("status", sum.Status).Int("failed", sum.Failed()).Int("total", len(tasks)).Msg("batch: run finished")
	return sum, runErr
}

func (r *Runner) loop(ctx context.Context, runID string, tasks []Task, sum *Summary) error {
	res, err := adkexec.Loop{
		Name:        "BatchLoop",
		Description: "Runs every batch task in order.",
		SessionID:   runID,
		Steps:       len(tasks),
		Step: func(ictx agent.InvocationContext, idx int) (bool, error) {
			out := r.runTask(ictx, runID, tasks[idx])
			sum.Outcomes = append(sum.Outcomes, out)
			if r.OnTask != nil {
				r.OnTask(out)
			}
			if out.Err != nil && (r.FailFast || ictx.Err() != nil) {
				return true, &TaskError{TaskID: out.Task.ID, Err: out.Err}
			}
			return false, nil
		},
	}.Run(ctx)
	log.Debug().Str("run_id", runID).Int("completed", res.Completed).Int("events", res.Events).Msg("batch: loop finished")
	return err
}

func (r *Runner) runTask(ctx context.Context, runID string, t Task) Outcome {
	dir := filepath.Join(r.OutputDir, t.ID)
	out := Outcome{Task: t, Dir: dir}
	logger := log.With().Str("run_id", runID).Str("task_id", t.ID).Logger()
	logger.Info().Msg("batch: task started")

	if r.Store != nil {
		if err := r.Store.StartTask(ctx, runID, t.ID, dir); err != nil {
			logger.Warn().Err(err).Msg("batch: record task start")
		}
	}

	out.Err = r.generate(ctx, dir, t, &out)
	if out.Err != nil {
		logger.Error().Err(out.Err).Msg("batch: task failed")
	} else {
		logger.Info().Str("dir", dir).Int("files", len(out.Files)).Msg("batch: task finished")
	}

	if r.Store != nil {
		if err := r.Store.FinishTask(context.WithoutCancel(ctx), runID, t.ID, out.Err); err != nil {
			logger.Warn().Err(err).Msg("batch: record task result")
		}
	}
	return out
}

func (r *Runner) generate(ctx context.Context, dir string, t Task, out *Outcome) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear task dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create task dir: %w", err)
	}
	design := filepath.Join(dir, DesignFile)
	if err := os.WriteFile(design, []byte(t.Design+"\n"), 0o644); err != nil {
		return fmt.Errorf("write task design: %w", err)
	}

	st, err := r.Pipeline.Run(ctx, pipeline.Input{
		DesignFile:  design,
		Platform:    r.Platform,
		ProjectName: t.ID,
		OutputDir:   dir,
	})
	if st != nil {
		out.Files = st.Result.Files
	}
	return err
}

func runStatus(total, failed int, err error) string {
	switch {
	case err != nil && failed == 0:
		return db.StatusFailed
	case failed == 0:
		return db.StatusOK
	case failed == total:
		return db.StatusFailed
	default:
		return db.StatusPartial
	}
}

package db

import (
	"context"
	"fmt"
	"time"
)

// RetentionPolicy controls ledger cleanup. Zero fields are ignored.
type RetentionPolicy struct {
	KeepLast int
	KeepDays int
}

// PruneResult summarizes a prune operation.
type PruneResult struct {
	Considered int
	Kept       int
	Deleted    int
}

// PruneRuns deletes ledger records of old runs together with their tasks.
// Running runs are always kept; generated projects on disk are not touched.
func (s *Store) PruneRuns(ctx context.Context, policy RetentionPolicy, dryRun bool) (PruneResult, error) {
	if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
		return PruneResult{}, nil
	}
	cutoff := time.Time{}
	if policy.KeepDays > 0 {
		cutoff = s.now().UTC().Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		return PruneResult{}, err
	}

	res := PruneResult{Considered: len(runs)}
	var doomed []string
	for idx, r := range runs {
		keep := r.Status == StatusRunning
		if !keep && policy.KeepLast > 0 && idx < policy.KeepLast {
			keep = true
		}
		if !keep && policy.KeepDays > 0 && (r.CreatedAt.IsZero() || r.CreatedAt.After(cutoff)) {
			keep = true
		}
		if keep {
			res.Kept++
			continue
		}
		doomed = append(doomed, r.ID)
	}
	res.Deleted = len(doomed)
	if dryRun || len(doomed) == 0 {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PruneResult{}, fmt.Errorf("begin prune: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, id := range doomed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM batch_tasks WHERE run_id=?`, id); err != nil {
			return PruneResult{}, fmt.Errorf("delete tasks of run %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM batch_runs WHERE run_id=?`, id); err != nil {
			return PruneResult{}, fmt.Errorf("delete run %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return PruneResult{}, fmt.Errorf("commit prune: %w", err)
	}
	return res, nil
}

// Package scheduler runs periodic maintenance jobs. Budget statuses are
// also refreshed lazily on every status-dependent read; the sweep keeps
// listings fresh for users who have not touched the API in a while.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"nestegg/internal/logger"
	"nestegg/internal/services"
)

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron    *cron.Cron
	budgets services.BudgetServicer
}

// New creates a Scheduler with the budget status sweep registered.
func New(budgets services.BudgetServicer) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		budgets: budgets,
	}
}

// Start registers the sweep under the given cron spec and starts the
// runner. An empty spec disables the sweep.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		logger.Get().Infow("budget status sweep disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(spec, s.sweepBudgetStatuses); err != nil {
		return fmt.Errorf("invalid status sweep spec %q: %w", spec, err)
	}

	s.cron.Start()
	logger.Get().Infow("budget status sweep scheduled", "spec", spec)
	return nil
}

// Stop stops the cron runner. Running jobs finish; no new ones start.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) sweepBudgetStatuses() {
	if err := s.budgets.RefreshAllStatuses(); err != nil {
		logger.Get().Errorw("budget status sweep failed", "error", err)
		return
	}
	logger.Get().Debugw("budget status sweep completed")
}

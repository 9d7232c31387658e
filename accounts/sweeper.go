package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-investigations-api/databases"
)

// Sweeper deletes credentials that are older than the grace period and
// still have no officer profile
type Sweeper struct {
	creds    databases.CredentialDatabase
	officers databases.OfficerDatabase
	provider CredentialProvider
	grace    time.Duration
	schedule string
	now      func() time.Time

	cron *cron.Cron
}

// NewSweeper builds a sweeper running on the given cron schedule
func NewSweeper(creds databases.CredentialDatabase, officers databases.OfficerDatabase, provider CredentialProvider, grace time.Duration, schedule string) *Sweeper {
	return &Sweeper{
		creds:    creds,
		officers: officers,
		provider: provider,
		grace:    grace,
		schedule: schedule,
		now:      time.Now,
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start registers the sweep job and starts the cron runner
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.Run(ctx); err != nil {
			zap.S().Errorw("orphan sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register sweep job %q: %w", s.schedule, err)
	}
	s.cron.Start()
	zap.S().Infow("orphan sweeper started", "schedule", s.schedule, "grace", s.grace.String())
	return nil
}

// Stop waits for a running sweep to finish
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("orphan sweeper stopped")
}

// Run does one pass and returns how many credentials were removed
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.grace)
	creds, err := s.creds.FindCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find credentials: %w", err)
	}

	var errs []error
	removed := 0
	for _, cred := range creds {
		_, err := s.officers.FindByID(ctx, cred.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, databases.ErrNotFound) {
			errs = append(errs, fmt.Errorf("check profile %s: %w", cred.ID, err))
			continue
		}
		if err := s.provider.DeleteUser(ctx, cred.ID); err != nil && !errors.Is(err, databases.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete credential %s: %w", cred.ID, err))
			continue
		}
		zap.S().Infow("removed orphaned credential", "userId", cred.ID, "email", cred.Email)
		removed++
	}
	return removed, errors.Join(errs...)
}

// Package scheduler refreshes the watchlist feeds on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/banking/sanctions-screening/internal/domain"
	"github.com/banking/sanctions-screening/internal/service"
)

// Refresher reloads every watchlist
type Refresher interface {
	Refresh(ctx context.Context, trigger string) []domain.RefreshStatus
}

// RefreshScheduler runs Refresher on a standard five field cron expression
type RefreshScheduler struct {
	cron      *cron.Cron
	refresher Refresher
	schedule  string
	timeout   time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entryID cron.EntryID
}

// New validates schedule and prepares the job. A run still in progress when
// the next one is due is skipped.
func New(schedule string, refresher Refresher, logger *zap.Logger) (*RefreshScheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	cl := cronLogger{logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	return &RefreshScheduler{
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		refresher: refresher,
		schedule:  schedule,
		timeout:   30 * time.Minute,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (s *RefreshScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(s.schedule, func() { s.run(s.ctx, service.TriggerScheduled) })
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	s.entryID = id
	s.cron.Start()

	s.logger.Info("Feed refresh scheduled",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.cron.Entry(id).Next))
	return nil
}

// Stop cancels a running refresh and waits for it to return
func (s *RefreshScheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// RunNow refreshes immediately, outside the schedule
func (s *RefreshScheduler) RunNow(ctx context.Context, trigger string) []domain.RefreshStatus {
	return s.run(ctx, trigger)
}

// NextRun is zero until the scheduler is started
func (s *RefreshScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *RefreshScheduler) run(ctx context.Context, trigger string) []domain.RefreshStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	statuses := s.refresher.Refresh(ctx, trigger)

	failed := 0
	for _, st := range statuses {
		if st.Status != domain.RefreshStatusSuccess {
			failed++
		}
	}
	s.logger.Info("Feed refresh finished",
		zap.String("trigger", trigger),
		zap.Int("sources", len(statuses)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
	return statuses
}

// cronLogger routes cron's own logging through zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

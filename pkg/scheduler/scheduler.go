package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/klokku/finance/pkg/recurring"
	"github.com/klokku/finance/pkg/user"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type AutoProcessor interface {
	RunAutoProcessing(ctx context.Context) (recurring.AutoRunResult, error)
}

type UserLister interface {
	GetAllUsers(ctx context.Context) ([]user.User, error)
}

// Scheduler runs automatic processing of recurring transactions for every
// user once per interval, plus once shortly after start.
type Scheduler struct {
	processor    AutoProcessor
	users        UserLister
	interval     time.Duration
	startupDelay time.Duration

	mu           sync.Mutex
	cron         *cron.Cron
	startupTimer *time.Timer
	cancel       context.CancelFunc
	running      sync.WaitGroup
}

func NewScheduler(processor AutoProcessor, users UserLister, interval, startupDelay time.Duration) *Scheduler {
	return &Scheduler{
		processor:    processor,
		users:        users,
		interval:     interval,
		startupDelay: startupDelay,
	}
}

// Start schedules the ticks. Ticks never overlap: a tick due while the
// previous one still runs is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}
	if s.interval < time.Second {
		return fmt.Errorf("scheduler interval must be at least one second, got %s", s.interval)
	}

	ctx, cancel := context.WithCancel(ctx)
	logger := cronLogger{}
	job := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(func() {
		s.Tick(ctx)
	}))

	c := cron.New(cron.WithLogger(logger))
	c.Schedule(cron.Every(s.interval), job)
	c.Start()

	s.running.Add(1)
	s.startupTimer = time.AfterFunc(s.startupDelay, func() {
		defer s.running.Done()
		job.Run()
	})

	s.cron = c
	s.cancel = cancel
	log.WithFields(log.Fields{
		"interval":     s.interval,
		"startupDelay": s.startupDelay,
	}).Info("Recurring transaction scheduler started")
	return nil
}

// Stop cancels pending ticks and waits for the running one to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	s.cancel()
	if s.startupTimer.Stop() {
		s.running.Done()
	}
	<-s.cron.Stop().Done()
	s.running.Wait()
	s.cron = nil
	log.Info("Recurring transaction scheduler stopped")
}

// Tick runs automatic processing for every user. A failure for one user is
// logged and does not affect the others.
func (s *Scheduler) Tick(ctx context.Context) {
	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		log.WithError(err).Error("Could not list users for automatic processing")
		return
	}
	for _, u := range users {
		if ctx.Err() != nil {
			log.Info("Automatic processing interrupted")
			return
		}
		s.runForUser(user.WithUser(ctx, u), u)
	}
}

func (s *Scheduler) runForUser(ctx context.Context, u user.User) {
	fields := log.Fields{"userId": u.Id}
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(fields).Errorf("Automatic processing panicked: %v", r)
		}
	}()

	result, err := s.processor.RunAutoProcessing(ctx)
	if err != nil {
		log.WithFields(fields).WithError(err).Error("Automatic processing failed")
		return
	}
	fields["processed"] = len(result.Processed)
	fields["eligible"] = result.Eligible
	if result.Skipped != recurring.SkipNone {
		fields["skipped"] = result.Skipped
	}
	if len(result.Processed) > 0 {
		log.WithFields(fields).Info("Automatic processing finished")
	} else {
		log.WithFields(fields).Debug("Automatic processing finished")
	}
}

// cronLogger routes cron's own messages to logrus.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.WithFields(toFields(keysAndValues)).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.WithFields(toFields(keysAndValues)).WithError(err).Error(msg)
}

func toFields(keysAndValues []interface{}) log.Fields {
	fields := log.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

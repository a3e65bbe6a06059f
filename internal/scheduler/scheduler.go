package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/spritewire/internal/automation"
	"github.com/nerrad567/spritewire/internal/observability"
)

// Executor dispatches a single automation. Cron firings carry no event
// payload.
type Executor interface {
	Execute(ctx context.Context, auto automation.Automation, payload any) automation.ExecutionResult
}

// Logger is the minimal logging interface the scheduler needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Scheduler owns the cron runner and the mapping from automation id to
// its active timer entry.
type Scheduler struct {
	cron   *cron.Cron
	repo   automation.Repository
	exec   Executor
	logger Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// New creates a scheduler backed by the standard five-field cron parser.
// Call Reconcile to populate it and Start to begin firing.
func New(repo automation.Repository, exec Executor, logger Logger) *Scheduler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Scheduler{
		cron:    cron.New(),
		repo:    repo,
		exec:    exec,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Start begins the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts the cron runner and waits for any in-flight firings.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Reconcile synchronises the live timer set against the catalog. It stops
// timers for ids no longer present as cron automations, and registers a
// fresh timer for every cron automation found, stopping any previous
// timer for the same id first. An invalid schedule is logged and the
// automation left unregistered; it never aborts the rest of the pass.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	catalog, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: load catalog: %w", err)
	}

	desired := make(map[string]automation.Automation)
	for _, auto := range catalog {
		if auto.Source.IsCron() {
			desired[auto.ID] = auto
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entryID := range s.entries {
		if _, ok := desired[id]; !ok {
			s.cron.Remove(entryID)
			delete(s.entries, id)
			s.logger.Info("schedule removed", "automation_id", id)
		}
	}

	for id, auto := range desired {
		// At most one live timer per id: drop the old one before
		// registering its replacement.
		if entryID, ok := s.entries[id]; ok {
			s.cron.Remove(entryID)
			delete(s.entries, id)
		}

		entryID, err := s.cron.AddFunc(auto.Source.Schedule, s.firing(auto))
		if err != nil {
			s.logger.Warn("invalid schedule, automation unregistered",
				"automation_id", id,
				"schedule", auto.Source.Schedule,
				"error", err,
			)
			continue
		}
		s.entries[id] = entryID
		s.logger.Info("schedule registered",
			"automation_id", id,
			"schedule", auto.Source.Schedule,
		)
	}

	return nil
}

// LiveIDs returns the ids with an active timer, sorted.
func (s *Scheduler) LiveIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// firing returns the callback executed on each tick. Failures are logged
// and counted; there is no synchronous caller to report them to.
func (s *Scheduler) firing(auto automation.Automation) func() {
	snapshot := *auto.DeepCopy()
	return func() {
		s.logger.Info("schedule fired", "automation_id", snapshot.ID)

		result := s.exec.Execute(context.Background(), snapshot, nil)
		observability.RecordScheduleFiring(result.Success)
		if !result.Success {
			detail := ""
			if result.Error != nil {
				detail = *result.Error
			}
			s.logger.Error("scheduled execution failed",
				"automation_id", snapshot.ID,
				"error", detail,
			)
		}
	}
}

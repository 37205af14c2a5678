package workspace

import (
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named jobs on a shared cron. Adding a job under an existing
// name replaces it.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	running bool
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(
			cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
		))),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}
}

// AddJob registers fn under name with a cron spec such as "@every 30s".
func (s *Scheduler) AddJob(name, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
	}

	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return err
	}
	s.jobs[name] = id
	s.logger.Debug("job scheduled", "job", name, "spec", spec)
	return nil
}

// RemoveJob unregisters name. Unknown names are ignored.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.jobs[name]; ok {
		s.cron.Remove(id)
		delete(s.jobs, name)
		s.logger.Debug("job removed", "job", name)
	}
}

// HasJob reports whether name is registered.
func (s *Scheduler) HasJob(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[name]
	return ok
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.cron.Start()
		s.running = true
	}
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
}

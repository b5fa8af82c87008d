// internal/scheduler/scheduler.go
package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is a named callback fired on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      func()
}

// Scheduler fires registered jobs on their cron schedules. The daemon uses
// one job, the daily insight, but nothing here assumes that.
type Scheduler struct {
	jobs []Job
	cron *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithParser(cronParser)),
	}
}

// Add registers a job. The schedule is validated immediately so a config
// typo surfaces at startup rather than silently never firing.
func (s *Scheduler) Add(job Job) error {
	if _, err := cronParser.Parse(job.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q for job %s: %w", job.Schedule, job.Name, err)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Start registers all jobs as cron entries and starts the ticker.
func (s *Scheduler) Start() error {
	for _, job := range s.jobs {
		name := job.Name
		run := job.Run
		_, err := s.cron.AddFunc(job.Schedule, func() {
			slog.Info("cron firing job", "name", name)
			run()
		})
		if err != nil {
			return fmt.Errorf("register job %s: %w", name, err)
		}
		slog.Info("scheduled job", "name", name, "schedule", job.Schedule)
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron ticker. Running jobs finish on their own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

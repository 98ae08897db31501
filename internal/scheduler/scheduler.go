package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"coco/internal/cocoerr"
)

// Scheduler ticks at a fixed interval, fires due Tasks against the
// Template registry, and records an Execution for every firing.
type Scheduler struct {
	store          *Store
	runtime        *Runtime
	tick           time.Duration
	defaultTimeout time.Duration
	hardTimeout    time.Duration
}

// New builds a Scheduler. tick is the poll interval (spec requires ≤60s);
// defaultTimeout/hardTimeout bound a single template firing.
func New(store *Store, rt *Runtime, tick, defaultTimeout, hardTimeout time.Duration) *Scheduler {
	return &Scheduler{store: store, runtime: rt, tick: tick, defaultTimeout: defaultTimeout, hardTimeout: hardTimeout}
}

// CreateTask parses schedule, resolves the canonical cron and first
// next_run_at, and persists a new Enabled task.
func (s *Scheduler) CreateTask(name, scheduleText, templateName string, config map[string]any, timezone string) (Task, error) {
	info, ok := Registry[templateName]
	if !ok {
		return Task{}, cocoerr.New(cocoerr.InvalidInput, "unknown template: "+templateName)
	}
	cron, err := ParseSchedule(scheduleText)
	if err != nil {
		return Task{}, err
	}
	loc := time.UTC
	if timezone != "" {
		if l, lerr := time.LoadLocation(timezone); lerr == nil {
			loc = l
		}
	}
	next, err := NextRunAt(cron, time.Now(), loc)
	if err != nil {
		return Task{}, err
	}
	task := Task{
		Name:             name,
		ScheduleText:     scheduleText,
		CronExpr:         cron,
		Timezone:         loc.String(),
		TemplateName:     templateName,
		Config:           config,
		State:            StateEnabled,
		NextRunAt:        next,
		RequiresApproval: info.RequiresApproval,
	}
	return s.store.Create(task)
}

// Enable transitions a Disabled task back to Enabled, recomputing
// next_run_at from now without touching its run history.
func (s *Scheduler) Enable(task Task) (Task, error) {
	loc, err := time.LoadLocation(task.Timezone)
	if err != nil {
		loc = time.UTC
	}
	next, err := NextRunAt(task.CronExpr, time.Now(), loc)
	if err != nil {
		return Task{}, err
	}
	task.State = StateEnabled
	task.NextRunAt = next
	if err := s.store.Update(task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// Disable transitions a task out of the fire loop without deleting it or
// its execution history.
func (s *Scheduler) Disable(task Task) (Task, error) {
	task.State = StateDisabled
	if err := s.store.Update(task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// Tick checks for due tasks once and fires each of them. Run calls this on
// an interval; tests call it directly.
func (s *Scheduler) Tick(ctx context.Context) error {
	due, err := s.store.Due(time.Now())
	if err != nil {
		return err
	}
	for _, task := range due {
		s.fire(ctx, task)
	}
	return nil
}

// Run blocks, ticking every s.tick until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				log.Error().Err(err).Msg("scheduler tick failed")
			}
		}
	}
}

// fire transitions task to Running and advances next_run_at before
// executing its template, so a second Tick landing inside the same fire
// window (e.g. 09:00:00 and 09:00:02) never re-dispatches it — idempotency
// is a property of this ordering, not of the templates themselves.
func (s *Scheduler) fire(ctx context.Context, task Task) {
	started := time.Now()

	task.State = StateRunning
	loc, err := time.LoadLocation(task.Timezone)
	if err != nil {
		loc = time.UTC
	}
	next, err := NextRunAt(task.CronExpr, started, loc)
	if err != nil {
		log.Error().Err(err).Str("task", task.ID).Msg("failed to compute next_run_at")
		return
	}
	advanced := task
	advanced.NextRunAt = next
	advanced.State = StateEnabled
	if err := s.store.Update(advanced); err != nil {
		log.Error().Err(err).Str("task", task.ID).Msg("failed to advance task before firing")
		return
	}

	info, ok := Registry[task.TemplateName]
	if !ok {
		s.recordFailure(task, started, "unknown template: "+task.TemplateName)
		return
	}

	hardCtx, cancel := context.WithTimeout(ctx, s.hardTimeout)
	defer cancel()

	output, err := info.Run(hardCtx, s.runtime, task)
	finished := time.Now()
	status := ExecOK
	if err != nil {
		status = ExecError
		output = err.Error()
		if hardCtx.Err() != nil {
			output = fmt.Sprintf("exceeded hard timeout (%s): %v", s.hardTimeout, err)
		}
	}
	_ = s.store.RecordExecution(Execution{
		TaskID: task.ID, StartedAt: started, FinishedAt: &finished, Status: status, Output: output,
	})
}

func (s *Scheduler) recordFailure(task Task, started time.Time, msg string) {
	finished := time.Now()
	_ = s.store.RecordExecution(Execution{
		TaskID: task.ID, StartedAt: started, FinishedAt: &finished, Status: ExecError, Output: msg,
	})
}

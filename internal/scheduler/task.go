// Package scheduler implements COCO's Autonomous Scheduler: a background
// worker that ticks at a fixed interval, fires Task templates on their
// natural-language schedules, and records Executions.
package scheduler

import "time"

// State is a Task's position in the Disabled <-> Enabled(next_run_at) ->
// Running state machine. A task never transitions to a terminal state
// other than by deletion.
type State string

const (
	StateDisabled State = "disabled"
	StateEnabled  State = "enabled"
	StateRunning  State = "running"
)

// Task is one scheduled autonomous job. NextRunAt is computed from CronExpr
// and the current time when the task is created, when it is enabled and
// each time it fires; the scheduler does not set or persist LastRunAt or
// LastStatus. Enabling or disabling a task never mutates its run history.
type Task struct {
	ID               string
	Name             string
	ScheduleText     string // the natural-language schedule as given
	CronExpr         string // canonical 5-field cron form
	Timezone         string
	TemplateName     string
	Config           map[string]any
	State            State
	NextRunAt        time.Time
	LastRunAt        *time.Time
	LastStatus       string
	RequiresApproval bool
	CreatedAt        time.Time
}

// ExecutionStatus is the terminal outcome of one Task firing.
type ExecutionStatus string

const (
	ExecOK    ExecutionStatus = "ok"
	ExecError ExecutionStatus = "error"
)

// Execution is one record of a Task firing, successful or not.
type Execution struct {
	ID         string
	TaskID     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     ExecutionStatus
	Output     string
}

// OutboxEntry is a queued external action (email send, tweet post) awaiting
// manual approval, written instead of executing directly when a template
// declares RequiresApproval.
type OutboxEntry struct {
	ID         string
	TaskID     string
	Kind       string
	PayloadRaw []byte
	CreatedAt  time.Time
	Approved   bool
}

package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coco/internal/tools"
)

func testRegistry() *tools.Registry {
	r := tools.NewRegistry()
	r.Register(tools.Definition{
		Name: "list_dir",
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			return map[string]any{"entries": []string{"a.txt"}}, nil
		},
	})
	return r
}

func TestSchedulerCreateTaskComputesNextRunAt(t *testing.T) {
	s := New(NewStore(openTestDB(t)), &Runtime{Tools: testRegistry()}, time.Minute, 5*time.Minute, 15*time.Minute)

	task, err := s.CreateTask("health", "every 5 minutes", "health_check", nil, "UTC")
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", task.CronExpr)
	assert.True(t, task.NextRunAt.After(time.Now()))
	assert.Equal(t, StateEnabled, task.State)
}

func TestSchedulerCreateTaskRejectsUnknownTemplate(t *testing.T) {
	s := New(NewStore(openTestDB(t)), &Runtime{}, time.Minute, 5*time.Minute, 15*time.Minute)
	_, err := s.CreateTask("x", "every 5 minutes", "not_a_template", nil, "UTC")
	assert.Error(t, err)
}

func TestSchedulerTickFiresDueHealthCheck(t *testing.T) {
	store := NewStore(openTestDB(t))
	rt := &Runtime{Tools: testRegistry(), Store: store}
	s := New(store, rt, time.Minute, 5*time.Minute, 15*time.Minute)

	task, err := store.Create(Task{
		Name: "hc", CronExpr: "0 9 * * *", Timezone: "UTC", TemplateName: "health_check",
		State: StateEnabled, NextRunAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	require.NoError(t, s.Tick(context.Background()))

	execs, err := store.ExecutionsForTask(task.ID)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, ExecOK, execs[0].Status)

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].NextRunAt.After(time.Now()))
	assert.Equal(t, StateEnabled, all[0].State)
}

func TestSchedulerFireQueuesApprovalRequiredTemplateToOutbox(t *testing.T) {
	store := NewStore(openTestDB(t))
	rt := &Runtime{Tools: testRegistry(), Store: store}
	s := New(store, rt, time.Minute, 5*time.Minute, 15*time.Minute)

	task, err := store.Create(Task{
		Name: "email-me", CronExpr: "0 9 * * *", Timezone: "UTC", TemplateName: "simple_email",
		State: StateEnabled, NextRunAt: time.Now().Add(-time.Minute), RequiresApproval: true,
		Config: map[string]any{"to": "a@b.c", "subject": "hi", "body": "hello"},
	})
	require.NoError(t, err)

	require.NoError(t, s.Tick(context.Background()))

	execs, err := store.ExecutionsForTask(task.ID)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, ExecOK, execs[0].Status)
	assert.Contains(t, execs[0].Output, "outbox")
}

func TestSchedulerFireRecordsFailureForUnknownTemplate(t *testing.T) {
	store := NewStore(openTestDB(t))
	rt := &Runtime{Tools: testRegistry(), Store: store}
	s := New(store, rt, time.Minute, 5*time.Minute, 15*time.Minute)

	task := Task{ID: "ghost", Name: "ghost", CronExpr: "0 9 * * *", Timezone: "UTC", TemplateName: "no_such_template"}
	s.fire(context.Background(), task)

	execs, err := store.ExecutionsForTask("ghost")
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, ExecError, execs[0].Status)
}

func TestSchedulerDisableThenEnable(t *testing.T) {
	store := NewStore(openTestDB(t))
	s := New(store, &Runtime{Tools: testRegistry()}, time.Minute, 5*time.Minute, 15*time.Minute)

	task, err := s.CreateTask("t", "every 5 minutes", "health_check", nil, "UTC")
	require.NoError(t, err)

	disabled, err := s.Disable(task)
	require.NoError(t, err)
	assert.Equal(t, StateDisabled, disabled.State)

	enabled, err := s.Enable(disabled)
	require.NoError(t, err)
	assert.Equal(t, StateEnabled, enabled.State)
}

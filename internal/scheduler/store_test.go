package scheduler

import (
	"testing"
	"time"

	"coco/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreCreateAndAll(t *testing.T) {
	s := NewStore(openTestDB(t))
	task, err := s.Create(Task{
		Name: "t1", ScheduleText: "daily at 9am", CronExpr: "0 9 * * *", Timezone: "UTC",
		TemplateName: "health_check", State: StateEnabled, NextRunAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "t1", all[0].Name)
}

func TestStoreDueFiltersOnStateAndTime(t *testing.T) {
	s := NewStore(openTestDB(t))
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	dueTask, err := s.Create(Task{
		Name: "due", CronExpr: "0 9 * * *", Timezone: "UTC", TemplateName: "health_check",
		State: StateEnabled, NextRunAt: past,
	})
	require.NoError(t, err)
	_, err = s.Create(Task{
		Name: "not-due", CronExpr: "0 9 * * *", Timezone: "UTC", TemplateName: "health_check",
		State: StateEnabled, NextRunAt: future,
	})
	require.NoError(t, err)
	_, err = s.Create(Task{
		Name: "disabled", CronExpr: "0 9 * * *", Timezone: "UTC", TemplateName: "health_check",
		State: StateDisabled, NextRunAt: past,
	})
	require.NoError(t, err)

	due, err := s.Due(time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, dueTask.ID, due[0].ID)
}

func TestStoreRecordAndQueryExecutions(t *testing.T) {
	s := NewStore(openTestDB(t))
	task, err := s.Create(Task{Name: "t", CronExpr: "0 9 * * *", Timezone: "UTC", TemplateName: "health_check", State: StateEnabled, NextRunAt: time.Now()})
	require.NoError(t, err)

	finished := time.Now()
	err = s.RecordExecution(Execution{TaskID: task.ID, StartedAt: time.Now(), FinishedAt: &finished, Status: ExecOK, Output: "done"})
	require.NoError(t, err)

	execs, err := s.ExecutionsForTask(task.ID)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, ExecOK, execs[0].Status)
}

func TestStoreWriteOutbox(t *testing.T) {
	s := NewStore(openTestDB(t))
	err := s.WriteOutbox(OutboxEntry{TaskID: "task-1", Kind: "send_email", PayloadRaw: []byte(`{"to":"a@b.c"}`)})
	assert.NoError(t, err)
}

func TestStoreUpdateChangesState(t *testing.T) {
	s := NewStore(openTestDB(t))
	task, err := s.Create(Task{Name: "t", CronExpr: "0 9 * * *", Timezone: "UTC", TemplateName: "health_check", State: StateEnabled, NextRunAt: time.Now()})
	require.NoError(t, err)

	task.State = StateDisabled
	require.NoError(t, s.Update(task))

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, StateDisabled, all[0].State)
}

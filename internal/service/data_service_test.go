package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	blobfs "cellendar/internal/blob/fs"
	"cellendar/internal/models/task"
	repo "cellendar/internal/repository"
	"cellendar/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seed две культуры и три задачи, одна из них выполнена.
func seed(t *testing.T, e *env) {
	t.Helper()
	a := e.culture(t, "A")
	b := e.culture(t, "B")
	e.task(t, a, task.TypeMediaChange, base.Add(24*time.Hour))
	done := e.task(t, a, task.TypePassaging, base.Add(2*time.Hour))
	e.task(t, b, task.TypeObservation, base.Add(-time.Hour))
	_, err := e.tasks.CompleteTask(context.Background(), e.userID, done.ID)
	require.NoError(t, err)
	_, err = e.settings.Update(context.Background(), e.userID, service.UpdateSettingsInput{DefaultReminderHours: intPtr(8)})
	require.NoError(t, err)
}

func TestParseFormat(t *testing.T) {
	for raw, want := range map[string]service.Format{
		"":                 service.FormatJSON,
		"JSON":             service.FormatJSON,
		"application/json": service.FormatJSON,
		"yml":              service.FormatYAML,
		"application/yaml": service.FormatYAML,
	} {
		got, err := service.ParseFormat(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := service.ParseFormat("csv")
	assertCode(t, err, service.CodeValidation)
}

func TestDataService_ExportJSON(t *testing.T) {
	e := newEnv(t)
	seed(t, e)

	raw, err := e.data.Export(context.Background(), e.userID, service.FormatJSON)
	require.NoError(t, err)

	var snap repo.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, repo.SnapshotVersion, snap.Version)
	assert.Equal(t, base, snap.ExportedAt)
	assert.Len(t, snap.Cultures, 2)
	assert.Len(t, snap.Tasks, 3)
	require.NotNil(t, snap.Settings)
	assert.Equal(t, 8, snap.Settings.DefaultReminderHours)
}

func TestDataService_RoundTrip(t *testing.T) {
	for _, format := range []service.Format{service.FormatJSON, service.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t)
			seed(t, e)
			before, err := e.store.Snapshot(ctx, e.userID)
			require.NoError(t, err)

			raw, err := e.data.Export(ctx, e.userID, format)
			require.NoError(t, err)

			_, err = e.data.Clear(ctx, e.userID)
			require.NoError(t, err)

			res, err := e.data.Import(ctx, e.userID, raw, format)
			require.NoError(t, err)
			assert.Equal(t, 2, res.Cultures)
			assert.Equal(t, 3, res.Tasks)
			// будущая задача: напоминание и просрочка, прошедшая: только просрочка
			assert.Equal(t, 3, res.Report.Scheduled)

			after, err := e.store.Snapshot(ctx, e.userID)
			require.NoError(t, err)
			require.Len(t, after.Tasks, len(before.Tasks))
			for i := range before.Tasks {
				assert.Equal(t, before.Tasks[i].ID, after.Tasks[i].ID)
				assert.Equal(t, before.Tasks[i].IsCompleted, after.Tasks[i].IsCompleted)
				assert.True(t, before.Tasks[i].ScheduledDate.Equal(after.Tasks[i].ScheduledDate))
			}
			assert.Equal(t, before.Cultures[0].PassageNumber+before.Cultures[1].PassageNumber,
				after.Cultures[0].PassageNumber+after.Cultures[1].PassageNumber)

			st, err := e.settings.Get(ctx, e.userID)
			require.NoError(t, err)
			assert.Equal(t, 8, st.DefaultReminderHours)
		})
	}
}

func TestDataService_InvalidImportChangesNothing(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seed(t, e)

	valid, err := e.data.Export(ctx, e.userID, service.FormatJSON)
	require.NoError(t, err)
	var snap repo.Snapshot
	require.NoError(t, json.Unmarshal(valid, &snap))
	// задача на культуре B остаётся без своей культуры
	snap.Cultures = snap.Cultures[:1]
	orphan, err := json.Marshal(snap)
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "garbage", body: "{not json", code: service.CodeValidation},
		{name: "unknown field", body: `{"version": 1, "cultures": [], "tasks": [], "colour": "red"}`, code: service.CodeValidation},
		{name: "future version", body: `{"version": 2, "cultures": [], "tasks": []}`, code: service.CodeValidation},
		{name: "task without culture", body: string(orphan), code: service.CodeValidation},
		{
			name: "culture without name",
			body: `{"version": 1, "cultures": [{"id": "` + uuid.NewString() + `", "name": "", "cell_type": "HeLa",
				"status": "active", "start_date": "2024-06-01T00:00:00Z"}], "tasks": []}`,
			code: service.CodeValidation,
		},
	}

	pendingBefore := e.pending(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.data.Import(ctx, e.userID, []byte(tt.body), service.FormatJSON)
			assertCode(t, err, tt.code)

			cultures, err := e.cultures.List(ctx, e.userID)
			require.NoError(t, err)
			assert.Len(t, cultures, 2)
			assert.Equal(t, pendingBefore, e.pending(t))
		})
	}
}

func TestDataService_ImportForeignIDs(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seed(t, e)

	raw, err := e.data.Export(ctx, e.userID, service.FormatJSON)
	require.NoError(t, err)

	_, err = e.data.Import(ctx, uuid.New(), raw, service.FormatJSON)
	assertCode(t, err, service.CodeAlreadyExists)
}

func TestDataService_Clear(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	seed(t, e)

	warnings, err := e.data.Clear(ctx, e.userID)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	cultures, err := e.cultures.List(ctx, e.userID)
	require.NoError(t, err)
	assert.Empty(t, cultures)
	tasks, err := e.tasks.List(ctx, e.userID, service.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Empty(t, e.pending(t))

	st, err := e.settings.Get(ctx, e.userID)
	require.NoError(t, err)
	assert.Equal(t, task.DefaultReminderHours, st.DefaultReminderHours)
}

func TestDataService_BackupDisabled(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.data.Backup(ctx, e.userID)
	assertCode(t, err, service.CodeBackupDisabled)
	_, err = e.data.ListBackups(ctx, e.userID)
	assertCode(t, err, service.CodeBackupDisabled)
	_, err = e.data.Restore(ctx, e.userID, e.userID.String()+"/backup.json")
	assertCode(t, err, service.CodeBackupDisabled)
}

func TestDataService_BackupAndRestore(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	store, err := blobfs.New(t.TempDir())
	require.NoError(t, err)
	data := service.NewDataService(e.store, e.settings, e.scheduler, store, service.WithClock(e.clock.Now))
	seed(t, e)

	info, err := data.Backup(ctx, e.userID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Key, e.userID.String()+"/backup-"))
	assert.Positive(t, info.Size)

	list, err := data.ListBackups(ctx, e.userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.Key, list[0].Key)

	others, err := data.ListBackups(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = data.Clear(ctx, e.userID)
	require.NoError(t, err)

	res, err := data.Restore(ctx, e.userID, info.Key)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Cultures)
	assert.Equal(t, 3, res.Tasks)
	assert.Len(t, e.pending(t), 2)

	_, err = data.Restore(ctx, uuid.New(), info.Key)
	assertCode(t, err, service.CodeNotFound)
	_, err = data.Restore(ctx, e.userID, e.userID.String()+"/missing.json")
	assertCode(t, err, service.CodeNotFound)
	_, err = data.Restore(ctx, e.userID, e.userID.String()+"/../x.json")
	assertCode(t, err, service.CodeNotFound)
	_, err = data.Restore(ctx, e.userID, "")
	assertCode(t, err, service.CodeValidation)
}

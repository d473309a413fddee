package habittracker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/habit-tracker/internal/app/habittracker"
	"github.com/magabrotheeeer/habit-tracker/internal/config"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/stats"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryConfig() *config.Config {
	return &config.Config{
		Env:     "local",
		Storage: config.Storage{Driver: config.DriverMemory},
		Cache:   config.Cache{TTL: time.Minute},
	}
}

func TestNew_MemoryWithoutCache(t *testing.T) {
	app, err := habittracker.New(context.Background(), memoryConfig(), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	ctx := context.Background()
	user, err := app.Users.Register(ctx, models.UserInput{Email: "a@example.com", Password: "p", Name: "A"})
	require.NoError(t, err)

	habit, err := app.Habits.Create(ctx, user.ID, models.HabitInput{Title: "Бег", Frequency: models.Daily})
	require.NoError(t, err)

	_, err = app.Tracker.MarkCompletion(ctx, user.ID, habit.ID, time.Time{})
	require.NoError(t, err)

	list, err := app.Habits.List(ctx, user.ID)
	require.NoError(t, err)
	report, err := app.Tracker.ProgressReport(ctx, user.ID, list)
	require.NoError(t, err)
	assert.Contains(t, report, stats.ReportHeader)
	assert.Contains(t, report, "Текущая серия: 1 дней")

	assert.Equal(t, 1.0, testutil.ToFloat64(app.Metrics.Operations.WithLabelValues("mark_completion", metrics.ResultOK)))
}

func TestNew_MemoryWithRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := memoryConfig()
	cfg.AddressRedis = mr.Addr()

	app, err := habittracker.New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	ctx := context.Background()
	user, err := app.Users.Register(ctx, models.UserInput{Email: "b@example.com", Password: "p", Name: "B"})
	require.NoError(t, err)
	habit, err := app.Habits.Create(ctx, user.ID, models.HabitInput{Title: "Чтение", Frequency: models.Weekly})
	require.NoError(t, err)

	_, err = app.Habits.Get(ctx, user.ID, habit.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("habit:1:1"))

	deleted, err := app.Habits.Delete(ctx, user.ID, habit.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, mr.Exists("habit:1:1"))
}

func TestNew_UserDeleteDropsCachedHabits(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := memoryConfig()
	cfg.AddressRedis = mr.Addr()

	app, err := habittracker.New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	ctx := context.Background()
	user, err := app.Users.Register(ctx, models.UserInput{Email: "c@example.com", Password: "p", Name: "C"})
	require.NoError(t, err)
	habit, err := app.Habits.Create(ctx, user.ID, models.HabitInput{Title: "Медитация", Frequency: models.Daily})
	require.NoError(t, err)
	_, err = app.Habits.Get(ctx, user.ID, habit.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists("habit:1:1"))
	cached, err := mr.Get("habit:1:1")
	require.NoError(t, err)

	deleted, err := app.Users.Delete(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	assert.False(t, mr.Exists("habit:1:1"))

	_, err = app.Habits.Get(ctx, user.ID, habit.ID)
	assert.ErrorIs(t, err, storage.ErrHabitNotFound)
	_, err = app.Tracker.Statistics(ctx, user.ID, habit.ID)
	assert.ErrorIs(t, err, storage.ErrHabitNotFound)

	// Устаревшая запись в кеше не открывает доступ к журналу.
	require.NoError(t, mr.Set("habit:1:1", cached))
	_, err = app.Tracker.Statistics(ctx, user.ID, habit.ID)
	assert.ErrorIs(t, err, storage.ErrHabitNotFound)
	_, err = app.Tracker.MarkCompletion(ctx, user.ID, habit.ID, time.Time{})
	assert.ErrorIs(t, err, storage.ErrHabitNotFound)
}

func TestNew_UnreachableRedis(t *testing.T) {
	cfg := memoryConfig()
	cfg.AddressRedis = "127.0.0.1:1"
	cfg.DialTimeout = 100 * time.Millisecond

	_, err := habittracker.New(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Driver = "sqlite"

	_, err := habittracker.New(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	err := habittracker.Migrate(context.Background(), memoryConfig())
	assert.Error(t, err)
}

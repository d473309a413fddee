package habits_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/habit-tracker/internal/cache"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/validate"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/services/habits"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
	"github.com/magabrotheeeer/habit-tracker/internal/storage/memory"
)

// Мок для HabitRepository
type HabitRepoMock struct {
	mock.Mock
}

func (m *HabitRepoMock) CreateHabit(ctx context.Context, habit models.Habit) (models.Habit, error) {
	args := m.Called(ctx, habit)
	return args.Get(0).(models.Habit), args.Error(1)
}

func (m *HabitRepoMock) GetHabit(ctx context.Context, id, userID int) (models.Habit, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(models.Habit), args.Error(1)
}

func (m *HabitRepoMock) ListHabits(ctx context.Context, userID int) ([]models.Habit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Habit), args.Error(1)
}

func (m *HabitRepoMock) ListHabitsByCreationDate(ctx context.Context, userID int, date time.Time) ([]models.Habit, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Habit), args.Error(1)
}

func (m *HabitRepoMock) ListHabitsByFrequency(ctx context.Context, userID int, frequency models.Frequency) ([]models.Habit, error) {
	args := m.Called(ctx, userID, frequency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Habit), args.Error(1)
}

func (m *HabitRepoMock) UpdateHabit(ctx context.Context, habit models.Habit) (bool, error) {
	args := m.Called(ctx, habit)
	return args.Bool(0), args.Error(1)
}

func (m *HabitRepoMock) DeleteHabit(ctx context.Context, id, userID int) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

// Мок для Cache
type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *CacheMock) InvalidatePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	fixedNow = time.Date(2024, 3, 15, 21, 30, 0, 0, time.UTC)
	today    = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	running  = models.Habit{ID: 7, Title: "Бег", Frequency: models.Daily, UserID: 3, CreationDate: today}
)

func clock() time.Time { return fixedNow }

func TestService_Create(t *testing.T) {
	tests := []struct {
		name       string
		input      models.HabitInput
		setupMocks func(r *HabitRepoMock)
		wantErr    error
	}{
		{
			name:  "daily habit created today",
			input: models.HabitInput{Title: "Бег", Frequency: models.Daily},
			setupMocks: func(r *HabitRepoMock) {
				r.On("CreateHabit", mock.Anything, models.Habit{
					Title:        "Бег",
					Frequency:    models.Daily,
					UserID:       3,
					CreationDate: today,
				}).Return(running, nil).Once()
			},
		},
		{
			name:       "unknown frequency",
			input:      models.HabitInput{Title: "Бег", Frequency: 3},
			setupMocks: func(_ *HabitRepoMock) {},
			wantErr:    validate.ErrValidation,
		},
		{
			name:       "missing frequency",
			input:      models.HabitInput{Title: "Бег"},
			setupMocks: func(_ *HabitRepoMock) {},
			wantErr:    validate.ErrValidation,
		},
		{
			name:       "missing title",
			input:      models.HabitInput{Frequency: models.Weekly},
			setupMocks: func(_ *HabitRepoMock) {},
			wantErr:    validate.ErrValidation,
		},
		{
			name:  "owner does not exist",
			input: models.HabitInput{Title: "Бег", Frequency: models.Daily},
			setupMocks: func(r *HabitRepoMock) {
				r.On("CreateHabit", mock.Anything, mock.Anything).
					Return(models.Habit{}, storage.ErrUserNotFound).Once()
			},
			wantErr: storage.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(HabitRepoMock)
			tt.setupMocks(repo)
			svc := habits.NewService(repo, cache.Noop{}, time.Minute, clock, nil, discardLogger())

			got, err := svc.Create(context.Background(), 3, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, running, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Get(t *testing.T) {
	t.Run("cache hit", func(t *testing.T) {
		repo := new(HabitRepoMock)
		c := new(CacheMock)
		c.On("Get", mock.Anything, "habit:3:7", mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*models.Habit) = running
			}).
			Return(true, nil).Once()

		svc := habits.NewService(repo, c, time.Minute, clock, nil, discardLogger())
		got, err := svc.Get(context.Background(), 3, 7)
		require.NoError(t, err)
		assert.Equal(t, running, got)

		repo.AssertNotCalled(t, "GetHabit", mock.Anything, mock.Anything, mock.Anything)
		c.AssertExpectations(t)
	})

	t.Run("cache miss fills cache", func(t *testing.T) {
		repo := new(HabitRepoMock)
		c := new(CacheMock)
		c.On("Get", mock.Anything, "habit:3:7", mock.Anything).Return(false, nil).Once()
		repo.On("GetHabit", mock.Anything, 7, 3).Return(running, nil).Once()
		c.On("Set", mock.Anything, "habit:3:7", running, time.Minute).Return(nil).Once()

		svc := habits.NewService(repo, c, time.Minute, clock, nil, discardLogger())
		got, err := svc.Get(context.Background(), 3, 7)
		require.NoError(t, err)
		assert.Equal(t, running, got)

		repo.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("cache failure falls back to storage", func(t *testing.T) {
		repo := new(HabitRepoMock)
		c := new(CacheMock)
		c.On("Get", mock.Anything, "habit:3:7", mock.Anything).Return(false, errors.New("redis down")).Once()
		repo.On("GetHabit", mock.Anything, 7, 3).Return(running, nil).Once()
		c.On("Set", mock.Anything, "habit:3:7", running, time.Minute).Return(errors.New("redis down")).Once()

		svc := habits.NewService(repo, c, time.Minute, clock, nil, discardLogger())
		got, err := svc.Get(context.Background(), 3, 7)
		require.NoError(t, err)
		assert.Equal(t, running, got)
	})

	t.Run("foreign habit is not found", func(t *testing.T) {
		repo := new(HabitRepoMock)
		repo.On("GetHabit", mock.Anything, 7, 4).Return(models.Habit{}, storage.ErrHabitNotFound).Once()

		svc := habits.NewService(repo, cache.Noop{}, time.Minute, clock, nil, discardLogger())
		_, err := svc.Get(context.Background(), 4, 7)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestService_UpdateAndDelete(t *testing.T) {
	input := models.HabitInput{Title: "Бег по утрам", Description: "5 км", Frequency: models.Weekly}
	updated := models.Habit{ID: 7, Title: "Бег по утрам", Description: "5 км", Frequency: models.Weekly, UserID: 3}

	tests := []struct {
		name string
		call func(svc *habits.Service) (bool, error)
		mock func(r *HabitRepoMock)
		want bool
	}{
		{
			name: "update existing",
			call: func(svc *habits.Service) (bool, error) { return svc.Update(context.Background(), 3, 7, input) },
			mock: func(r *HabitRepoMock) { r.On("UpdateHabit", mock.Anything, updated).Return(true, nil).Once() },
			want: true,
		},
		{
			name: "update missing pair",
			call: func(svc *habits.Service) (bool, error) { return svc.Update(context.Background(), 3, 7, input) },
			mock: func(r *HabitRepoMock) { r.On("UpdateHabit", mock.Anything, updated).Return(false, nil).Once() },
			want: false,
		},
		{
			name: "delete existing",
			call: func(svc *habits.Service) (bool, error) { return svc.Delete(context.Background(), 3, 7) },
			mock: func(r *HabitRepoMock) { r.On("DeleteHabit", mock.Anything, 7, 3).Return(true, nil).Once() },
			want: true,
		},
		{
			name: "delete missing pair",
			call: func(svc *habits.Service) (bool, error) { return svc.Delete(context.Background(), 3, 7) },
			mock: func(r *HabitRepoMock) { r.On("DeleteHabit", mock.Anything, 7, 3).Return(false, nil).Once() },
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(HabitRepoMock)
			c := new(CacheMock)
			tt.mock(repo)
			c.On("Invalidate", mock.Anything, "habit:3:7").Return(nil).Once()

			svc := habits.NewService(repo, c, time.Minute, clock, nil, discardLogger())
			got, err := tt.call(svc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			repo.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestService_ForgetUser(t *testing.T) {
	repo := new(HabitRepoMock)
	c := new(CacheMock)
	c.On("InvalidatePrefix", mock.Anything, "habit:3:").Return(nil).Once()
	c.On("InvalidatePrefix", mock.Anything, "habit:4:").Return(errors.New("redis down")).Once()

	svc := habits.NewService(repo, c, time.Minute, clock, nil, discardLogger())
	svc.ForgetUser(context.Background(), 3)
	svc.ForgetUser(context.Background(), 4)

	c.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestService_ListByFrequency_Invalid(t *testing.T) {
	repo := new(HabitRepoMock)
	svc := habits.NewService(repo, cache.Noop{}, time.Minute, clock, nil, discardLogger())

	_, err := svc.ListByFrequency(context.Background(), 3, models.Frequency(0))
	assert.ErrorIs(t, err, validate.ErrValidation)
	repo.AssertNotCalled(t, "ListHabitsByFrequency", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_WithMemoryStorage(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	owner, err := store.CreateUser(ctx, models.User{Email: "owner@example.com", Password: "p", Name: "Owner"})
	require.NoError(t, err)
	other, err := store.CreateUser(ctx, models.User{Email: "other@example.com", Password: "p", Name: "Other"})
	require.NoError(t, err)

	svc := habits.NewService(store, cache.Noop{}, time.Minute, clock, nil, discardLogger())

	daily, err := svc.Create(ctx, owner.ID, models.HabitInput{Title: "Вода", Frequency: models.Daily})
	require.NoError(t, err)
	weekly, err := svc.Create(ctx, owner.ID, models.HabitInput{Title: "Уборка", Frequency: models.Weekly})
	require.NoError(t, err)

	all, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Habit{daily, weekly}, all)

	byDate, err := svc.ListByCreationDate(ctx, owner.ID, fixedNow)
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	byFreq, err := svc.ListByFrequency(ctx, owner.ID, models.Weekly)
	require.NoError(t, err)
	assert.Equal(t, []models.Habit{weekly}, byFreq)

	// чужая привычка не видна и не изменяется
	_, err = svc.Get(ctx, other.ID, daily.ID)
	assert.ErrorIs(t, err, storage.ErrHabitNotFound)
	ok, err := svc.Update(ctx, other.ID, daily.ID, models.HabitInput{Title: "x", Frequency: models.Daily})
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = svc.Delete(ctx, other.ID, daily.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := svc.Get(ctx, owner.ID, daily.ID)
	require.NoError(t, err)
	assert.Equal(t, "Вода", got.Title)
}

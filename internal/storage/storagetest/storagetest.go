// Package storagetest содержит общий набор тестов, которому должна
// соответствовать любая реализация хранилища трекера привычек.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

// Store: полный набор методов хранилища.
type Store interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, id int) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
	DeleteUser(ctx context.Context, id int) (bool, error)

	CreateHabit(ctx context.Context, habit models.Habit) (models.Habit, error)
	GetHabit(ctx context.Context, id, userID int) (models.Habit, error)
	ListHabits(ctx context.Context, userID int) ([]models.Habit, error)
	ListHabitsByCreationDate(ctx context.Context, userID int, date time.Time) ([]models.Habit, error)
	ListHabitsByFrequency(ctx context.Context, userID int, frequency models.Frequency) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, habit models.Habit) (bool, error)
	DeleteHabit(ctx context.Context, id, userID int) (bool, error)

	SaveRecord(ctx context.Context, habitID int, date time.Time) (models.HabitRecord, error)
	GetRecord(ctx context.Context, id int) (models.HabitRecord, error)
	ListRecordsByHabit(ctx context.Context, habitID int) ([]models.HabitRecord, error)
	ListRecordsByUserAndDate(ctx context.Context, userID int, date time.Time) ([]models.HabitRecord, error)
	DeleteRecord(ctx context.Context, id int) (bool, error)
}

var baseDay = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

// NewUser создает пользователя с уникальным email.
func NewUser(t *testing.T, s Store) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{
		Email:    uuid.NewString() + "@example.com",
		Password: "secret",
		Name:     "Тестовый пользователь",
	})
	require.NoError(t, err)
	return u
}

// NewHabit создает привычку пользователя.
func NewHabit(t *testing.T, s Store, userID int, title string, freq models.Frequency, created time.Time) models.Habit {
	t.Helper()
	h, err := s.CreateHabit(context.Background(), models.Habit{
		Title:        title,
		Description:  "описание",
		Frequency:    freq,
		UserID:       userID,
		CreationDate: created,
	})
	require.NoError(t, err)
	return h
}

// Run запускает общий набор тестов. newStore должен возвращать чистое хранилище.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Habits", func(t *testing.T) { testHabits(t, newStore(t)) })
	t.Run("Records", func(t *testing.T) { testRecords(t, newStore(t)) })
	t.Run("Cascade", func(t *testing.T) { testCascade(t, newStore(t)) })
	t.Run("CanceledContext", func(t *testing.T) { testCanceled(t, newStore(t)) })
}

func testUsers(t *testing.T, s Store) {
	ctx := context.Background()

	u, err := s.CreateUser(ctx, models.User{Email: "anna@example.com", Password: "p1", Name: "Анна"})
	require.NoError(t, err)
	assert.Positive(t, u.ID)

	_, err = s.CreateUser(ctx, models.User{Email: "anna@example.com", Password: "p2", Name: "Другая"})
	assert.ErrorIs(t, err, storage.ErrEmailExists)

	other, err := s.CreateUser(ctx, models.User{Email: "Anna@example.com", Password: "p3", Name: "Регистр"})
	require.NoError(t, err, "email comparison is case-sensitive")
	assert.NotEqual(t, u.ID, other.ID)

	got, err := s.GetUserByEmail(ctx, "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.NotErrorIs(t, err, storage.ErrFailure)

	_, err = s.GetUserByID(ctx, 100500)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	u.Name = "Анна Петровна"
	u.Password = "new"
	require.NoError(t, s.UpdateUser(ctx, u), "self update with same email is allowed")

	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Анна Петровна", got.Name)
	assert.Equal(t, "new", got.Password)

	u.Email = "Anna@example.com"
	assert.ErrorIs(t, s.UpdateUser(ctx, u), storage.ErrEmailExists)

	u.Email = "anna.p@example.com"
	require.NoError(t, s.UpdateUser(ctx, u))
	_, err = s.GetUserByEmail(ctx, "anna@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound, "old email must be released")
	_, err = s.CreateUser(ctx, models.User{Email: "anna@example.com", Password: "x", Name: "Новая"})
	require.NoError(t, err)

	err = s.UpdateUser(ctx, models.User{ID: 100500, Email: "ghost@example.com", Password: "x", Name: "x"})
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	deleted, err := s.DeleteUser(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteUser(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testHabits(t *testing.T, s Store) {
	ctx := context.Background()
	alice := NewUser(t, s)
	bob := NewUser(t, s)

	h1 := NewHabit(t, s, alice.ID, "Бег", models.Daily, baseDay.Add(15*time.Hour))
	h2 := NewHabit(t, s, alice.ID, "Чтение", models.Weekly, baseDay)
	h3 := NewHabit(t, s, alice.ID, "Медитация", models.Daily, baseDay.AddDate(0, 0, 1))
	hb := NewHabit(t, s, bob.ID, "Плавание", models.Daily, baseDay)

	assert.Equal(t, baseDay, h1.CreationDate, "creation date is a calendar day")

	_, err := s.CreateHabit(ctx, models.Habit{Title: "x", Frequency: models.Daily, UserID: 100500, CreationDate: baseDay})
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	got, err := s.GetHabit(ctx, h1.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, h1, got)

	_, err = s.GetHabit(ctx, h1.ID, bob.ID)
	assert.ErrorIs(t, err, storage.ErrHabitNotFound, "other owner's habit is not visible")

	list, err := s.ListHabits(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Habit{h1, h2, h3}, list)

	list, err = s.ListHabits(ctx, 100500)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.ListHabitsByCreationDate(ctx, alice.ID, baseDay)
	require.NoError(t, err)
	assert.Equal(t, []models.Habit{h1, h2}, list)

	list, err = s.ListHabitsByFrequency(ctx, alice.ID, models.Daily)
	require.NoError(t, err)
	assert.Equal(t, []models.Habit{h1, h3}, list)

	list, err = s.ListHabitsByFrequency(ctx, bob.ID, models.Weekly)
	require.NoError(t, err)
	assert.Empty(t, list)

	updated, err := s.UpdateHabit(ctx, models.Habit{ID: hb.ID, UserID: alice.ID, Title: "чужая", Frequency: models.Weekly})
	require.NoError(t, err)
	assert.False(t, updated, "cannot update other owner's habit")

	updated, err = s.UpdateHabit(ctx, models.Habit{ID: h1.ID, UserID: alice.ID, Title: "Бег 5 км", Description: "утром", Frequency: models.Weekly})
	require.NoError(t, err)
	assert.True(t, updated)

	got, err = s.GetHabit(ctx, h1.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Бег 5 км", got.Title)
	assert.Equal(t, "утром", got.Description)
	assert.Equal(t, models.Weekly, got.Frequency)
	assert.Equal(t, baseDay, got.CreationDate, "creation date is immutable")

	deleted, err := s.DeleteHabit(ctx, hb.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.DeleteHabit(ctx, hb.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.GetHabit(ctx, hb.ID, bob.ID)
	assert.ErrorIs(t, err, storage.ErrHabitNotFound)
}

func testRecords(t *testing.T, s Store) {
	ctx := context.Background()
	alice := NewUser(t, s)
	bob := NewUser(t, s)
	run := NewHabit(t, s, alice.ID, "Бег", models.Daily, baseDay)
	read := NewHabit(t, s, alice.ID, "Чтение", models.Daily, baseDay)
	swim := NewHabit(t, s, bob.ID, "Плавание", models.Daily, baseDay)

	r2, err := s.SaveRecord(ctx, run.ID, baseDay.AddDate(0, 0, 2))
	require.NoError(t, err)
	r1, err := s.SaveRecord(ctx, run.ID, baseDay.AddDate(0, 0, 1).Add(20*time.Hour))
	require.NoError(t, err)
	assert.True(t, r1.Completed)
	assert.Equal(t, baseDay.AddDate(0, 0, 1), r1.Date)

	again, err := s.SaveRecord(ctx, run.ID, baseDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, r1.ID, again.ID, "same day completion is an upsert")

	_, err = s.SaveRecord(ctx, 100500, baseDay)
	assert.ErrorIs(t, err, storage.ErrHabitNotFound)

	records, err := s.ListRecordsByHabit(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, r1.ID, records[0].ID, "records are ordered by date")
	assert.Equal(t, r2.ID, records[1].ID)

	rr, err := s.SaveRecord(ctx, read.ID, baseDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	_, err = s.SaveRecord(ctx, swim.ID, baseDay.AddDate(0, 0, 1))
	require.NoError(t, err)

	day1, err := s.ListRecordsByUserAndDate(ctx, alice.ID, baseDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, []models.HabitRecord{r1, rr}, day1)

	got, err := s.GetRecord(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, r2, got)

	deleted, err := s.DeleteRecord(ctx, r2.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.GetRecord(ctx, r2.ID)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)

	deleted, err = s.DeleteRecord(ctx, r2.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testCascade(t *testing.T, s Store) {
	ctx := context.Background()
	u := NewUser(t, s)
	h1 := NewHabit(t, s, u.ID, "Бег", models.Daily, baseDay)
	h2 := NewHabit(t, s, u.ID, "Чтение", models.Weekly, baseDay)
	r1, err := s.SaveRecord(ctx, h1.ID, baseDay)
	require.NoError(t, err)
	r2, err := s.SaveRecord(ctx, h2.ID, baseDay)
	require.NoError(t, err)

	deleted, err := s.DeleteHabit(ctx, h1.ID, u.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	_, err = s.GetRecord(ctx, r1.ID)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound, "habit deletion cascades to records")

	deleted, err = s.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = s.GetHabit(ctx, h2.ID, u.ID)
	assert.ErrorIs(t, err, storage.ErrHabitNotFound, "user deletion cascades to habits")
	_, err = s.GetRecord(ctx, r2.ID)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound, "user deletion cascades to records")
}

func testCanceled(t *testing.T, s Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateUser(ctx, models.User{Email: "c@example.com", Password: "p", Name: "c"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.ListHabits(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.SaveRecord(ctx, 1, baseDay)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

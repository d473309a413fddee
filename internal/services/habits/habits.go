// Package habits содержит бизнес-логику управления привычками пользователя,
// включая кеширование отдельных привычек.
package habits

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/habit-tracker/internal/lib/day"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/validate"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
)

// HabitRepository определяет методы для работы с привычками в хранилище.
// Все методы, кроме CreateHabit, ищут привычку по паре (id, userID).
type HabitRepository interface {
	// CreateHabit сохраняет привычку и возвращает её с присвоенным ID.
	CreateHabit(ctx context.Context, habit models.Habit) (models.Habit, error)
	// GetHabit возвращает привычку или storage.ErrHabitNotFound.
	GetHabit(ctx context.Context, id, userID int) (models.Habit, error)
	// ListHabits возвращает все привычки пользователя по возрастанию ID.
	ListHabits(ctx context.Context, userID int) ([]models.Habit, error)
	// ListHabitsByCreationDate возвращает привычки, созданные в указанный день.
	ListHabitsByCreationDate(ctx context.Context, userID int, date time.Time) ([]models.Habit, error)
	// ListHabitsByFrequency возвращает привычки с указанной периодичностью.
	ListHabitsByFrequency(ctx context.Context, userID int, frequency models.Frequency) ([]models.Habit, error)
	// UpdateHabit обновляет название, описание и периодичность.
	UpdateHabit(ctx context.Context, habit models.Habit) (bool, error)
	// DeleteHabit удаляет привычку вместе с её записями.
	DeleteHabit(ctx context.Context, id, userID int) (bool, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
	// InvalidatePrefix удаляет из кеша все ключи с указанным префиксом.
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Service реализует работу с привычками.
type Service struct {
	repo      HabitRepository
	cache     Cache
	ttl       time.Duration
	now       func() time.Time
	validator *validate.Validator
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewService создает новый экземпляр Service. Если now равен nil, используется time.Now.
func NewService(repo HabitRepository, cache Cache, ttl time.Duration, now func() time.Time,
	m *metrics.Metrics, log *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		now:       now,
		validator: validate.New(),
		metrics:   m,
		log:       log,
	}
}

func userPrefix(userID int) string {
	return fmt.Sprintf("habit:%d:", userID)
}

func cacheKey(userID, id int) string {
	return userPrefix(userID) + strconv.Itoa(id)
}

// Create создает привычку пользователя с датой создания, равной сегодняшнему дню.
func (s *Service) Create(ctx context.Context, userID int, in models.HabitInput) (habit models.Habit, err error) {
	const op = "habits.Create"
	defer func() { s.metrics.Observe("create_habit", metrics.Classify(err)) }()

	if err = s.validator.Struct(in); err != nil {
		return models.Habit{}, fmt.Errorf("%s: %w", op, err)
	}

	habit, err = s.repo.CreateHabit(ctx, models.Habit{
		Title:        in.Title,
		Description:  in.Description,
		Frequency:    in.Frequency,
		UserID:       userID,
		CreationDate: day.Today(s.now),
	})
	if err != nil {
		return models.Habit{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new habit", sl.Op(op), slog.Int("id", habit.ID), slog.Int("user_id", userID))
	return habit, nil
}

// Get возвращает привычку пользователя, используя кеш или репозиторий.
// Ошибки кеша только логируются.
func (s *Service) Get(ctx context.Context, userID, id int) (habit models.Habit, err error) {
	const op = "habits.Get"
	defer func() { s.metrics.Observe("get_habit", metrics.Classify(err)) }()

	key := cacheKey(userID, id)
	found, err := s.cache.Get(ctx, key, &habit)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	}
	if err == nil && found {
		return habit, nil
	}

	habit, err = s.repo.GetHabit(ctx, id, userID)
	if err != nil {
		return models.Habit{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, habit, s.ttl); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
	return habit, nil
}

// List возвращает все привычки пользователя.
func (s *Service) List(ctx context.Context, userID int) ([]models.Habit, error) {
	const op = "habits.List"
	habits, err := s.repo.ListHabits(ctx, userID)
	s.metrics.Observe("list_habits", metrics.Classify(err))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return habits, nil
}

// ListByCreationDate возвращает привычки, созданные в календарный день date.
func (s *Service) ListByCreationDate(ctx context.Context, userID int, date time.Time) ([]models.Habit, error) {
	const op = "habits.ListByCreationDate"
	habits, err := s.repo.ListHabitsByCreationDate(ctx, userID, day.Of(date))
	s.metrics.Observe("list_habits", metrics.Classify(err))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return habits, nil
}

// ListByFrequency возвращает привычки с периодичностью frequency.
func (s *Service) ListByFrequency(ctx context.Context, userID int, frequency models.Frequency) (habits []models.Habit, err error) {
	const op = "habits.ListByFrequency"
	defer func() { s.metrics.Observe("list_habits", metrics.Classify(err)) }()

	if !frequency.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown frequency %d", op, validate.ErrValidation, frequency)
	}
	habits, err = s.repo.ListHabitsByFrequency(ctx, userID, frequency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return habits, nil
}

// Update обновляет привычку и сбрасывает её кеш. Возвращает false,
// если у пользователя нет привычки с таким ID.
func (s *Service) Update(ctx context.Context, userID, id int, in models.HabitInput) (updated bool, err error) {
	const op = "habits.Update"
	defer func() { s.metrics.Observe("update_habit", metrics.Classify(err)) }()

	if err = s.validator.Struct(in); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	updated, err = s.repo.UpdateHabit(ctx, models.Habit{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Frequency:   in.Frequency,
		UserID:      userID,
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, userID, id)
	if updated {
		s.log.Info("updated habit", sl.Op(op), slog.Int("id", id))
	}
	return updated, nil
}

// Delete удаляет привычку вместе с записями и сбрасывает её кеш.
func (s *Service) Delete(ctx context.Context, userID, id int) (deleted bool, err error) {
	const op = "habits.Delete"
	defer func() { s.metrics.Observe("delete_habit", metrics.Classify(err)) }()

	deleted, err = s.repo.DeleteHabit(ctx, id, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, userID, id)
	if deleted {
		s.log.Info("deleted habit", sl.Op(op), slog.Int("id", id))
	}
	return deleted, nil
}

func (s *Service) invalidate(ctx context.Context, userID, id int) {
	key := cacheKey(userID, id)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
	}
}

// ForgetUser сбрасывает кеш всех привычек пользователя. Вызывается после
// удаления пользователя, когда записи в хранилище уже удалены каскадно.
func (s *Service) ForgetUser(ctx context.Context, userID int) {
	prefix := userPrefix(userID)
	if err := s.cache.InvalidatePrefix(ctx, prefix); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("prefix", prefix), sl.Err(err))
	}
}

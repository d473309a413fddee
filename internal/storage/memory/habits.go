package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/habit-tracker/internal/lib/day"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

// CreateHabit сохраняет привычку. Владелец должен существовать.
func (s *Storage) CreateHabit(ctx context.Context, habit models.Habit) (models.Habit, error) {
	const op = "storage.memory.CreateHabit"
	if err := ctx.Err(); err != nil {
		return models.Habit{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[habit.UserID]; !ok {
		return models.Habit{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	s.habitSeq++
	habit.ID = s.habitSeq
	habit.CreationDate = day.Of(habit.CreationDate)
	s.habits[habit.ID] = habit
	return habit, nil
}

// GetHabit возвращает привычку по паре (id, userID).
func (s *Storage) GetHabit(ctx context.Context, id, userID int) (models.Habit, error) {
	const op = "storage.memory.GetHabit"
	if err := ctx.Err(); err != nil {
		return models.Habit{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.habits[id]
	if !ok || h.UserID != userID {
		return models.Habit{}, fmt.Errorf("%s: %w", op, storage.ErrHabitNotFound)
	}
	return h, nil
}

// ListHabits возвращает все привычки пользователя по возрастанию ID.
func (s *Storage) ListHabits(ctx context.Context, userID int) ([]models.Habit, error) {
	return s.filterHabits(ctx, "storage.memory.ListHabits", func(h models.Habit) bool {
		return h.UserID == userID
	})
}

// ListHabitsByCreationDate возвращает привычки пользователя, созданные в указанный день.
func (s *Storage) ListHabitsByCreationDate(ctx context.Context, userID int, date time.Time) ([]models.Habit, error) {
	d := day.Of(date)
	return s.filterHabits(ctx, "storage.memory.ListHabitsByCreationDate", func(h models.Habit) bool {
		return h.UserID == userID && h.CreationDate.Equal(d)
	})
}

// ListHabitsByFrequency возвращает привычки пользователя с указанной периодичностью.
func (s *Storage) ListHabitsByFrequency(ctx context.Context, userID int, frequency models.Frequency) ([]models.Habit, error) {
	return s.filterHabits(ctx, "storage.memory.ListHabitsByFrequency", func(h models.Habit) bool {
		return h.UserID == userID && h.Frequency == frequency
	})
}

// UpdateHabit обновляет изменяемые поля привычки. Возвращает false,
// если пара (ID, UserID) не найдена.
func (s *Storage) UpdateHabit(ctx context.Context, habit models.Habit) (bool, error) {
	const op = "storage.memory.UpdateHabit"
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.habits[habit.ID]
	if !ok || current.UserID != habit.UserID {
		return false, nil
	}
	current.Title = habit.Title
	current.Description = habit.Description
	current.Frequency = habit.Frequency
	s.habits[habit.ID] = current
	return true, nil
}

// DeleteHabit удаляет привычку пользователя вместе с её записями.
func (s *Storage) DeleteHabit(ctx context.Context, id, userID int) (bool, error) {
	const op = "storage.memory.DeleteHabit"
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.habits[id]
	if !ok || h.UserID != userID {
		return false, nil
	}
	s.deleteHabitLocked(id)
	return true, nil
}

func (s *Storage) deleteHabitLocked(id int) {
	for recordID, r := range s.records {
		if r.HabitID == id {
			delete(s.records, recordID)
		}
	}
	delete(s.habits, id)
}

func (s *Storage) filterHabits(ctx context.Context, op string, keep func(models.Habit) bool) ([]models.Habit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Habit{}
	for _, h := range s.habits {
		if keep(h) {
			result = append(result, h)
		}
	}
	sortHabits(result)
	return result, nil
}

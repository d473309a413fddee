package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/magabrotheeeer/habit-tracker/internal/lib/day"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

// SaveRecord отмечает привычку выполненной в указанный день. Если запись
// за этот день уже есть, она помечается выполненной и возвращается как есть.
func (s *Storage) SaveRecord(ctx context.Context, habitID int, date time.Time) (models.HabitRecord, error) {
	const op = "storage.memory.SaveRecord"
	if err := ctx.Err(); err != nil {
		return models.HabitRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.habits[habitID]; !ok {
		return models.HabitRecord{}, fmt.Errorf("%s: %w", op, storage.ErrHabitNotFound)
	}
	d := day.Of(date)
	for id, r := range s.records {
		if r.HabitID == habitID && r.Date.Equal(d) {
			r.Completed = true
			s.records[id] = r
			return r, nil
		}
	}
	s.recordSeq++
	r := models.HabitRecord{ID: s.recordSeq, HabitID: habitID, Date: d, Completed: true}
	s.records[r.ID] = r
	return r, nil
}

// GetRecord возвращает запись по ID.
func (s *Storage) GetRecord(ctx context.Context, id int) (models.HabitRecord, error) {
	const op = "storage.memory.GetRecord"
	if err := ctx.Err(); err != nil {
		return models.HabitRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return models.HabitRecord{}, fmt.Errorf("%s: %w", op, storage.ErrRecordNotFound)
	}
	return r, nil
}

// ListRecordsByHabit возвращает записи привычки по возрастанию даты.
func (s *Storage) ListRecordsByHabit(ctx context.Context, habitID int) ([]models.HabitRecord, error) {
	const op = "storage.memory.ListRecordsByHabit"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.HabitRecord{}
	for _, r := range s.records {
		if r.HabitID == habitID {
			result = append(result, r)
		}
	}
	sortRecords(result)
	return result, nil
}

// ListRecordsByUserAndDate возвращает записи всех привычек пользователя за день.
func (s *Storage) ListRecordsByUserAndDate(ctx context.Context, userID int, date time.Time) ([]models.HabitRecord, error) {
	const op = "storage.memory.ListRecordsByUserAndDate"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d := day.Of(date)
	result := []models.HabitRecord{}
	for _, r := range s.records {
		h, ok := s.habits[r.HabitID]
		if ok && h.UserID == userID && r.Date.Equal(d) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].HabitID != result[j].HabitID {
			return result[i].HabitID < result[j].HabitID
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteRecord удаляет запись по ID.
func (s *Storage) DeleteRecord(ctx context.Context, id int) (bool, error) {
	const op = "storage.memory.DeleteRecord"
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

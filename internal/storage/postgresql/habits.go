package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/habit-tracker/internal/lib/day"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

const habitColumns = `id, title, description, frequency, user_id, creation_date`

// CreateHabit сохраняет привычку и возвращает её с присвоенным ID.
// Если владельца не существует, возвращает storage.ErrUserNotFound.
func (s *Storage) CreateHabit(ctx context.Context, habit models.Habit) (models.Habit, error) {
	const op = "storage.postgresql.CreateHabit"
	select {
	case <-ctx.Done():
		return models.Habit{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	habit.CreationDate = day.Of(habit.CreationDate)
	query := `INSERT INTO habits (id, title, description, frequency, user_id, creation_date)
			  VALUES (nextval('habit_seq'), $1, $2, $3, $4, $5)
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query,
		habit.Title, habit.Description, int(habit.Frequency), habit.UserID, habit.CreationDate).Scan(&habit.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Habit{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.Habit{}, failure(op, err)
	}
	return habit, nil
}

// GetHabit возвращает привычку по паре (id, userID). Чужая привычка
// неотличима от отсутствующей.
func (s *Storage) GetHabit(ctx context.Context, id, userID int) (models.Habit, error) {
	const op = "storage.postgresql.GetHabit"
	select {
	case <-ctx.Done():
		return models.Habit{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1 AND user_id = $2`
	h, err := scanHabit(s.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, fmt.Errorf("%s: %w", op, storage.ErrHabitNotFound)
		}
		return models.Habit{}, failure(op, err)
	}
	return h, nil
}

// ListHabits возвращает все привычки пользователя в порядке возрастания ID.
func (s *Storage) ListHabits(ctx context.Context, userID int) ([]models.Habit, error) {
	const op = "storage.postgresql.ListHabits"
	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = $1 ORDER BY id`
	return s.queryHabits(ctx, op, query, userID)
}

// ListHabitsByCreationDate возвращает привычки пользователя, созданные в указанный день.
func (s *Storage) ListHabitsByCreationDate(ctx context.Context, userID int, date time.Time) ([]models.Habit, error) {
	const op = "storage.postgresql.ListHabitsByCreationDate"
	query := `SELECT ` + habitColumns + ` FROM habits
			  WHERE user_id = $1 AND creation_date = $2
			  ORDER BY id`
	return s.queryHabits(ctx, op, query, userID, day.Of(date))
}

// ListHabitsByFrequency возвращает привычки пользователя с указанной периодичностью.
func (s *Storage) ListHabitsByFrequency(ctx context.Context, userID int, frequency models.Frequency) ([]models.Habit, error) {
	const op = "storage.postgresql.ListHabitsByFrequency"
	query := `SELECT ` + habitColumns + ` FROM habits
			  WHERE user_id = $1 AND frequency = $2
			  ORDER BY id`
	return s.queryHabits(ctx, op, query, userID, int(frequency))
}

// UpdateHabit обновляет название, описание и периодичность привычки.
// Возвращает false, если пара (ID, UserID) не найдена.
func (s *Storage) UpdateHabit(ctx context.Context, habit models.Habit) (bool, error) {
	const op = "storage.postgresql.UpdateHabit"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE habits
			  SET title = $1, description = $2, frequency = $3
			  WHERE id = $4 AND user_id = $5`
	result, err := s.DB.ExecContext(ctx, query,
		habit.Title, habit.Description, int(habit.Frequency), habit.ID, habit.UserID)
	if err != nil {
		return false, failure(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, failure(op, err)
	}
	return rowsAffected > 0, nil
}

// DeleteHabit удаляет привычку пользователя вместе с её записями.
func (s *Storage) DeleteHabit(ctx context.Context, id, userID int) (bool, error) {
	const op = "storage.postgresql.DeleteHabit"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, failure(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, failure(op, err)
	}
	return rowsAffected > 0, nil
}

func (s *Storage) queryHabits(ctx context.Context, op, query string, args ...any) ([]models.Habit, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, failure(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, failure(op, err)
		}
		result = append(result, h)
	}
	if err = rows.Err(); err != nil {
		return nil, failure(op, err)
	}
	return result, nil
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var frequency int
	if err := row.Scan(&h.ID, &h.Title, &h.Description, &frequency, &h.UserID, &h.CreationDate); err != nil {
		return models.Habit{}, err
	}
	h.Frequency = models.Frequency(frequency)
	h.CreationDate = day.Of(h.CreationDate)
	return h, nil
}

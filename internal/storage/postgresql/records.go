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

// SaveRecord отмечает привычку выполненной в указанный день.
// На пару (habit_id, date) хранится одна запись: повторная отметка
// не создаёт дубликат, а выставляет completed = true у существующей.
func (s *Storage) SaveRecord(ctx context.Context, habitID int, date time.Time) (models.HabitRecord, error) {
	const op = "storage.postgresql.SaveRecord"
	select {
	case <-ctx.Done():
		return models.HabitRecord{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO habit_records (id, habit_id, date, completed)
			  VALUES (nextval('habit_record_seq'), $1, $2, true)
			  ON CONFLICT (habit_id, date) DO UPDATE SET completed = true
			  RETURNING id, habit_id, date, completed`
	r, err := scanRecord(s.DB.QueryRowContext(ctx, query, habitID, day.Of(date)))
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.HabitRecord{}, fmt.Errorf("%s: %w", op, storage.ErrHabitNotFound)
		}
		return models.HabitRecord{}, failure(op, err)
	}
	return r, nil
}

// GetRecord возвращает запись о выполнении по ID.
func (s *Storage) GetRecord(ctx context.Context, id int) (models.HabitRecord, error) {
	const op = "storage.postgresql.GetRecord"
	select {
	case <-ctx.Done():
		return models.HabitRecord{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, habit_id, date, completed FROM habit_records WHERE id = $1`
	r, err := scanRecord(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.HabitRecord{}, fmt.Errorf("%s: %w", op, storage.ErrRecordNotFound)
		}
		return models.HabitRecord{}, failure(op, err)
	}
	return r, nil
}

// ListRecordsByHabit возвращает записи привычки по возрастанию даты.
func (s *Storage) ListRecordsByHabit(ctx context.Context, habitID int) ([]models.HabitRecord, error) {
	const op = "storage.postgresql.ListRecordsByHabit"
	query := `SELECT id, habit_id, date, completed
			  FROM habit_records
			  WHERE habit_id = $1
			  ORDER BY date, id`
	return s.queryRecords(ctx, op, query, habitID)
}

// ListRecordsByUserAndDate возвращает записи всех привычек пользователя за день.
func (s *Storage) ListRecordsByUserAndDate(ctx context.Context, userID int, date time.Time) ([]models.HabitRecord, error) {
	const op = "storage.postgresql.ListRecordsByUserAndDate"
	query := `SELECT hr.id, hr.habit_id, hr.date, hr.completed
			  FROM habit_records hr
			  JOIN habits h ON hr.habit_id = h.id
			  WHERE h.user_id = $1 AND hr.date = $2
			  ORDER BY hr.habit_id, hr.id`
	return s.queryRecords(ctx, op, query, userID, day.Of(date))
}

// DeleteRecord удаляет запись по ID и сообщает, существовала ли она.
func (s *Storage) DeleteRecord(ctx context.Context, id int) (bool, error) {
	const op = "storage.postgresql.DeleteRecord"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM habit_records WHERE id = $1`, id)
	if err != nil {
		return false, failure(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, failure(op, err)
	}
	return rowsAffected > 0, nil
}

func (s *Storage) queryRecords(ctx context.Context, op, query string, args ...any) ([]models.HabitRecord, error) {
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

	result := []models.HabitRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, failure(op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, failure(op, err)
	}
	return result, nil
}

func scanRecord(row scanner) (models.HabitRecord, error) {
	var r models.HabitRecord
	if err := row.Scan(&r.ID, &r.HabitID, &r.Date, &r.Completed); err != nil {
		return models.HabitRecord{}, err
	}
	r.Date = day.Of(r.Date)
	return r, nil
}

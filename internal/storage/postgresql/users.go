package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

// CreateUser сохраняет нового пользователя и возвращает его с присвоенным ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.postgresql.CreateUser"
	select {
	case <-ctx.Done():
		return models.User{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (id, email, password, name)
			  VALUES (nextval('user_seq'), $1, $2, $3)
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query, user.Email, user.Password, user.Name).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
		}
		return models.User{}, failure(op, err)
	}
	return user, nil
}

// GetUserByEmail возвращает пользователя по email (с учётом регистра).
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgresql.GetUserByEmail"
	select {
	case <-ctx.Done():
		return models.User{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, password, name FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, failure(op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id int) (models.User, error) {
	const op = "storage.postgresql.GetUserByID"
	select {
	case <-ctx.Done():
		return models.User{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, password, name FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, failure(op, err)
	}
	return u, nil
}

// UpdateUser перезаписывает email, пароль и имя пользователя.
// Уникальность email проверяется ограничением таблицы.
func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.postgresql.UpdateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET email = $1, password = $2, name = $3
			  WHERE id = $4`
	result, err := s.DB.ExecContext(ctx, query, user.Email, user.Password, user.Name, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
		}
		return failure(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return failure(op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

// DeleteUser удаляет пользователя вместе с его привычками и записями (ON DELETE CASCADE).
func (s *Storage) DeleteUser(ctx context.Context, id int) (bool, error) {
	const op = "storage.postgresql.DeleteUser"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, failure(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, failure(op, err)
	}
	return rowsAffected > 0, nil
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Package users содержит бизнес-логику регистрации и аутентификации пользователей.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/habit-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/validate"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

// UserRepository описывает контракт для работы с пользователями в хранилище.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его с присвоенным ID.
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	// GetUserByEmail возвращает пользователя по email или storage.ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	// GetUserByID возвращает пользователя по ID или storage.ErrUserNotFound.
	GetUserByID(ctx context.Context, id int) (models.User, error)
	// UpdateUser перезаписывает email, пароль и имя пользователя.
	UpdateUser(ctx context.Context, user models.User) error
	// DeleteUser удаляет пользователя вместе с его привычками.
	DeleteUser(ctx context.Context, id int) (bool, error)
}

// HabitCache сбрасывает закешированные привычки пользователя.
type HabitCache interface {
	ForgetUser(ctx context.Context, userID int)
}

// Service отвечает за регистрацию, вход и управление профилем.
type Service struct {
	users      UserRepository
	habitCache HabitCache
	validator  *validate.Validator
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// NewService создает новый экземпляр Service. habitCache может быть nil.
func NewService(users UserRepository, habitCache HabitCache, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		users:      users,
		habitCache: habitCache,
		validator:  validate.New(),
		metrics:    m,
		log:        log,
	}
}

// Register создает пользователя. Занятый email возвращает storage.ErrEmailExists.
func (s *Service) Register(ctx context.Context, in models.UserInput) (user models.User, err error) {
	const op = "users.Register"
	defer func() { s.metrics.Observe("register", metrics.Classify(err)) }()

	if err = s.validator.Struct(in); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.ensureEmailFree(ctx, in.Email, 0); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err = s.users.CreateUser(ctx, models.User{
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", sl.Op(op), slog.Int("id", user.ID))
	return user, nil
}

// Authenticate возвращает пользователя, если email и пароль совпадают точно.
// Неверный пароль неотличим от неизвестного email: оба дают storage.ErrUserNotFound.
func (s *Service) Authenticate(ctx context.Context, creds models.Credentials) (user models.User, err error) {
	const op = "users.Authenticate"
	defer func() { s.metrics.Observe("authenticate", metrics.Classify(err)) }()

	if err = s.validator.Struct(creds); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	user, err = s.users.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if user.Password != creds.Password {
		s.log.Debug("password mismatch", sl.Op(op), slog.Int("id", user.ID))
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return user, nil
}

// Get возвращает пользователя по ID.
func (s *Service) Get(ctx context.Context, id int) (models.User, error) {
	const op = "users.Get"
	user, err := s.users.GetUserByID(ctx, id)
	s.metrics.Observe("get_user", metrics.Classify(err))
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Update меняет email, пароль и имя пользователя id.
// Можно оставить свой же email, чужой возвращает storage.ErrEmailExists.
func (s *Service) Update(ctx context.Context, id int, in models.UserInput) (user models.User, err error) {
	const op = "users.Update"
	defer func() { s.metrics.Observe("update_user", metrics.Classify(err)) }()

	if err = s.validator.Struct(in); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = s.users.GetUserByID(ctx, id); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.ensureEmailFree(ctx, in.Email, id); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user = models.User{ID: id, Email: in.Email, Password: in.Password, Name: in.Name}
	if err = s.users.UpdateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user updated", sl.Op(op), slog.Int("id", id))
	return user, nil
}

// Delete удаляет пользователя и всё, что ему принадлежит.
func (s *Service) Delete(ctx context.Context, id int) (deleted bool, err error) {
	const op = "users.Delete"
	defer func() { s.metrics.Observe("delete_user", metrics.Classify(err)) }()

	deleted, err = s.users.DeleteUser(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if deleted {
		if s.habitCache != nil {
			s.habitCache.ForgetUser(ctx, id)
		}
		s.log.Info("user deleted", sl.Op(op), slog.Int("id", id))
	}
	return deleted, nil
}

// ensureEmailFree проверяет, что email не принадлежит никому, кроме owner.
// Хранилище всё равно проверяет уникальность, здесь ошибка получается заранее.
func (s *Service) ensureEmailFree(ctx context.Context, email string, owner int) error {
	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != owner:
		return storage.ErrEmailExists
	default:
		return nil
	}
}

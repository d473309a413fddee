package memory

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

// CreateUser сохраняет нового пользователя и возвращает его с присвоенным ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.memory.CreateUser"
	if err := ctx.Err(); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
	}
	s.userSeq++
	user.ID = s.userSeq
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.memory.GetUserByEmail"
	if err := ctx.Err(); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return s.users[id], nil
}

// GetUserByID возвращает пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id int) (models.User, error) {
	const op = "storage.memory.GetUserByID"
	if err := ctx.Err(); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return u, nil
}

// UpdateUser перезаписывает email, пароль и имя пользователя.
func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.memory.UpdateUser"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if owner, taken := s.byEmail[user.Email]; taken && owner != user.ID {
		return fmt.Errorf("%s: %w", op, storage.ErrEmailExists)
	}
	delete(s.byEmail, current.Email)
	s.byEmail[user.Email] = user.ID
	s.users[user.ID] = user
	return nil
}

// DeleteUser удаляет пользователя вместе с его привычками и их записями.
func (s *Storage) DeleteUser(ctx context.Context, id int) (bool, error) {
	const op = "storage.memory.DeleteUser"
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	for habitID, h := range s.habits {
		if h.UserID == id {
			s.deleteHabitLocked(habitID)
		}
	}
	delete(s.byEmail, u.Email)
	delete(s.users, id)
	return true, nil
}

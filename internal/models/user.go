// Package models содержит доменные структуры трекера привычек: пользователя,
// привычку и запись о её выполнении, а также входные структуры для валидации.
package models

import "fmt"

// User представляет зарегистрированного пользователя системы.
// Пароль хранится как есть и сравнивается на точное совпадение.
type User struct {
	ID       int    // Уникальный идентификатор пользователя
	Email    string // Электронная почта, уникальна с учётом регистра
	Password string // Пароль пользователя
	Name     string // Отображаемое имя
}

func (u User) String() string {
	return fmt.Sprintf("ID: %d, Имя: %s, Email: %s", u.ID, u.Name, u.Email)
}

// UserInput используется для приёма данных пользователя до их валидации.
type UserInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
	Name     string `validate:"required"`
}

// Credentials содержит данные для входа в систему.
type Credentials struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

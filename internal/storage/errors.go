// Package storage описывает общие для всех реализаций хранилища ошибки.
// Реализации лежат в подпакетах postgresql (PostgreSQL) и memory (in-memory),
// обе возвращают одни и те же ошибки, чтобы сервисный слой не зависел от бэкенда.
package storage

import "errors"

var (
	// ErrNotFound: запись не найдена. Все более конкретные ошибки поиска оборачивают её.
	ErrNotFound = errors.New("not found")
	// ErrUserNotFound: пользователь не найден.
	ErrUserNotFound = notFound("user not found")
	// ErrHabitNotFound: привычка не найдена или принадлежит другому пользователю.
	ErrHabitNotFound = notFound("habit not found")
	// ErrRecordNotFound: запись о выполнении не найдена.
	ErrRecordNotFound = notFound("habit record not found")

	// ErrEmailExists: email уже занят другим пользователем.
	ErrEmailExists = errors.New("email already exists")

	// ErrFailure: сбой самого хранилища: соединение, нарушение ограничений и т.п.
	// Никогда не совпадает с ErrNotFound.
	ErrFailure = errors.New("storage failure")
)

type notFoundError struct{ msg string }

func notFound(msg string) error { return &notFoundError{msg: msg} }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Unwrap() error { return ErrNotFound }

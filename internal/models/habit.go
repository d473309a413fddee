package models

import (
	"fmt"
	"time"
)

// Frequency задаёт периодичность выполнения привычки.
type Frequency int

const (
	// Daily: ежедневная привычка.
	Daily Frequency = 1
	// Weekly: еженедельная привычка.
	Weekly Frequency = 2
)

// Valid сообщает, входит ли значение в допустимый набор.
func (f Frequency) Valid() bool {
	return f == Daily || f == Weekly
}

// Label возвращает человекочитаемое название периодичности.
func (f Frequency) Label() string {
	if f == Daily {
		return "Ежедневная"
	}
	return "Недельная"
}

// Habit представляет привычку пользователя.
// CreationDate выставляется один раз при создании и дальше не меняется.
type Habit struct {
	ID           int       // Уникальный идентификатор привычки
	Title        string    // Название
	Description  string    // Описание
	Frequency    Frequency // Периодичность
	UserID       int       // Владелец привычки
	CreationDate time.Time // Календарный день создания (UTC, полночь)
}

func (h Habit) String() string {
	return fmt.Sprintf("ID: %d, Название: %s, Описание: %s, Частота: %s, Дата создания: %s",
		h.ID, h.Title, h.Description, h.Frequency.Label(), h.CreationDate.Format(time.DateOnly))
}

// HabitInput используется для приёма полей привычки до валидации.
type HabitInput struct {
	Title       string    `validate:"required"`
	Description string    `validate:"omitempty"`
	Frequency   Frequency `validate:"required,oneof=1 2"`
}

package models

import (
	"fmt"
	"time"
)

// HabitRecord: запись журнала о выполнении привычки в конкретный день.
// На одну пару (HabitID, Date) приходится не более одной записи.
type HabitRecord struct {
	ID        int       // Уникальный идентификатор записи
	HabitID   int       // Привычка, к которой относится запись
	Date      time.Time // Календарный день (UTC, полночь)
	Completed bool      // Признак выполнения
}

func (r HabitRecord) String() string {
	done := "Нет"
	if r.Completed {
		done = "Да"
	}
	return fmt.Sprintf("ID: %d, Дата: %s, Выполнено: %s", r.ID, r.Date.Format(time.DateOnly), done)
}

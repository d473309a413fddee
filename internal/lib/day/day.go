// Package day содержит функции для работы с календарными днями.
// Все даты в трекере приводятся к полуночи UTC того же числа, чтобы
// сравнение записей не зависело от часового пояса и времени суток.
package day

import (
	"fmt"
	"time"
)

// Layout: формат календарного дня во вводе и выводе.
const Layout = time.DateOnly

// Of возвращает календарный день момента t: год, месяц и число t
// в его собственной зоне, но в полночь UTC.
func Of(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today возвращает текущий календарный день по часам now.
func Today(now func() time.Time) time.Time {
	return Of(now())
}

// Before возвращает день, отстоящий от d на n дней назад.
func Before(d time.Time, n int) time.Time {
	return Of(d).AddDate(0, 0, -n)
}

// Parse разбирает строку формата 2006-01-02 в календарный день.
func Parse(s string) (time.Time, error) {
	const op = "day.Parse"
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

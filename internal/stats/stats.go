// Package stats вычисляет показатели прогресса по журналу выполнения привычки:
// текущую серию, процент успеха за последние 30 дней и текстовый отчёт.
// Функции пакета чистые: они не обращаются к хранилищу и не зависят от часов.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/magabrotheeeer/habit-tracker/internal/lib/day"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
)

// SuccessWindowDays: длина окна для процента успеха. Знаменатель не зависит
// от периодичности привычки и от того, сколько дней она существует.
const SuccessWindowDays = 30

// Streak считает текущую серию выполнения.
//
// Записи просматриваются от самой свежей к старой, начиная с today. Запись
// продолжает серию, если её день совпадает с курсором или на день раньше него;
// первая неподходящая запись обрывает серию. Благодаря этому серия не теряется,
// пока сегодняшняя отметка ещё не поставлена.
func Streak(records []models.HabitRecord, today time.Time) int {
	dates := completedDates(records)
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	streak := 0
	cursor := day.Of(today)
	for _, d := range dates {
		if !d.Equal(cursor) && !d.Equal(cursor.AddDate(0, 0, -1)) {
			break
		}
		streak++
		cursor = d
	}
	return streak
}

// SuccessRate возвращает долю выполненных записей с датой не раньше
// today-30 дней, делённую на 30, в процентах.
func SuccessRate(records []models.HabitRecord, today time.Time) float64 {
	from := day.Before(today, SuccessWindowDays)
	completed := 0
	for _, d := range completedDates(records) {
		if !d.Before(from) {
			completed++
		}
	}
	return float64(completed) / SuccessWindowDays * 100
}

// Summary: показатели одной привычки для отчёта.
type Summary struct {
	Habit       models.Habit
	Streak      int
	SuccessRate float64
}

// Summarize считает показатели привычки по её записям.
func Summarize(habit models.Habit, records []models.HabitRecord, today time.Time) Summary {
	return Summary{
		Habit:       habit,
		Streak:      Streak(records, today),
		SuccessRate: SuccessRate(records, today),
	}
}

// ReportHeader: первая строка отчёта о прогрессе.
const ReportHeader = "Отчет о прогрессе:\n"

const reportDelimiter = "----------\n"

// Report собирает текстовый отчёт по привычкам в переданном порядке.
// Для пустого списка возвращается только заголовок.
func Report(summaries []Summary) string {
	var b strings.Builder
	b.WriteString(ReportHeader)
	for _, s := range summaries {
		fmt.Fprintf(&b, "Привычка: %s\n", s.Habit.Title)
		fmt.Fprintf(&b, "Частота: %s\n", s.Habit.Frequency.Label())
		fmt.Fprintf(&b, "Текущая серия: %d дней\n", s.Streak)
		fmt.Fprintf(&b, "Процент успеха: %.2f%% за последний месяц\n", s.SuccessRate)
		b.WriteString(reportDelimiter)
	}
	return b.String()
}

// NoHistory возвращается вместо истории, если записей нет.
const NoHistory = "История отсутствует."

// History выводит записи по возрастанию даты, по одной на строку.
func History(records []models.HabitRecord) string {
	if len(records) == 0 {
		return NoHistory
	}
	sorted := make([]models.HabitRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	lines := make([]string, 0, len(sorted))
	for _, r := range sorted {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}

func completedDates(records []models.HabitRecord) []time.Time {
	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		if r.Completed {
			dates = append(dates, day.Of(r.Date))
		}
	}
	return dates
}

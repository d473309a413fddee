// Package memory реализует хранилище трекера привычек в памяти процесса.
// Поведение совпадает с PostgreSQL-реализацией: уникальный email, одна запись
// на пару (привычка, день), каскадное удаление привычек и записей.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/magabrotheeeer/habit-tracker/internal/models"
)

// Storage хранит пользователей, привычки и записи в map под одним RWMutex.
// Идентификаторы выдаются счётчиками, которые растут только под блокировкой записи.
type Storage struct {
	mu sync.RWMutex

	users   map[int]models.User
	byEmail map[string]int
	habits  map[int]models.Habit
	records map[int]models.HabitRecord

	userSeq   int
	habitSeq  int
	recordSeq int
}

// New создает пустое хранилище.
func New() *Storage {
	return &Storage{
		users:   make(map[int]models.User),
		byEmail: make(map[string]int),
		habits:  make(map[int]models.Habit),
		records: make(map[int]models.HabitRecord),
	}
}

// Close ничего не делает, нужен для совместимости с PostgreSQL-хранилищем.
func (s *Storage) Close() error {
	return nil
}

// Ping всегда успешен, пока не отменён контекст.
func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func sortHabits(habits []models.Habit) {
	sort.Slice(habits, func(i, j int) bool { return habits[i].ID < habits[j].ID })
}

func sortRecords(records []models.HabitRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].ID < records[j].ID
	})
}

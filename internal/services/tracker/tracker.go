// Package tracker отмечает выполнение привычек и считает показатели прогресса.
// Перед любым обращением к журналу сервис проверяет, что привычка принадлежит
// пользователю, поэтому чужие записи для него не существуют.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/habit-tracker/internal/lib/day"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/stats"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

// RecordRepository определяет методы для работы с журналом выполнения.
type RecordRepository interface {
	// SaveRecord отмечает выполнение за день; повторная отметка не создаёт новую запись.
	SaveRecord(ctx context.Context, habitID int, date time.Time) (models.HabitRecord, error)
	// GetRecord возвращает запись по ID или storage.ErrRecordNotFound.
	GetRecord(ctx context.Context, id int) (models.HabitRecord, error)
	// ListRecordsByHabit возвращает записи привычки по возрастанию даты.
	ListRecordsByHabit(ctx context.Context, habitID int) ([]models.HabitRecord, error)
	// ListRecordsByUserAndDate возвращает записи всех привычек пользователя за день.
	ListRecordsByUserAndDate(ctx context.Context, userID int, date time.Time) ([]models.HabitRecord, error)
	// DeleteRecord удаляет запись по ID.
	DeleteRecord(ctx context.Context, id int) (bool, error)
}

// HabitFinder находит привычку пользователя в хранилище, минуя кеш.
// Ошибка storage.ErrHabitNotFound означает, что привычки нет или она чужая.
type HabitFinder interface {
	GetHabit(ctx context.Context, id, userID int) (models.Habit, error)
}

// Service работает с журналом выполнения от имени пользователя.
type Service struct {
	records RecordRepository
	habits  HabitFinder
	now     func() time.Time
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewService создает новый экземпляр Service. Если now равен nil, используется time.Now.
func NewService(records RecordRepository, habits HabitFinder, now func() time.Time,
	m *metrics.Metrics, log *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		records: records,
		habits:  habits,
		now:     now,
		metrics: m,
		log:     log,
	}
}

// MarkCompletion отмечает привычку выполненной в день date.
// Нулевая дата означает сегодняшний день.
func (s *Service) MarkCompletion(ctx context.Context, userID, habitID int, date time.Time) (rec models.HabitRecord, err error) {
	const op = "tracker.MarkCompletion"
	defer func() { s.metrics.Observe("mark_completion", metrics.Classify(err)) }()

	if _, err = s.habits.GetHabit(ctx, habitID, userID); err != nil {
		return models.HabitRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	if date.IsZero() {
		date = s.today()
	}
	rec, err = s.records.SaveRecord(ctx, habitID, day.Of(date))
	if err != nil {
		s.log.Error("failed to save record", sl.Op(op), slog.Int("habit_id", habitID), sl.Err(err))
		return models.HabitRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("habit completed", sl.Op(op), slog.Int("habit_id", habitID),
		slog.String("date", rec.Date.Format(day.Layout)))
	return rec, nil
}

// Records возвращает журнал привычки по возрастанию даты.
func (s *Service) Records(ctx context.Context, userID, habitID int) (records []models.HabitRecord, err error) {
	const op = "tracker.Records"
	defer func() { s.metrics.Observe("list_records", metrics.Classify(err)) }()

	records, err = s.ownedRecords(ctx, userID, habitID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

// History возвращает журнал привычки построчно или "История отсутствует.".
func (s *Service) History(ctx context.Context, userID, habitID int) (string, error) {
	const op = "tracker.History"
	records, err := s.Records(ctx, userID, habitID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return stats.History(records), nil
}

// RecordsForDay возвращает записи всех привычек пользователя за день date.
func (s *Service) RecordsForDay(ctx context.Context, userID int, date time.Time) ([]models.HabitRecord, error) {
	const op = "tracker.RecordsForDay"
	records, err := s.records.ListRecordsByUserAndDate(ctx, userID, day.Of(date))
	s.metrics.Observe("list_records", metrics.Classify(err))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

// Record возвращает запись id, если она относится к привычке пользователя.
func (s *Service) Record(ctx context.Context, userID, id int) (models.HabitRecord, error) {
	const op = "tracker.Record"
	rec, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return models.HabitRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.habits.GetHabit(ctx, rec.HabitID, userID); err != nil {
		if errors.Is(err, storage.ErrHabitNotFound) {
			return models.HabitRecord{}, fmt.Errorf("%s: %w", op, storage.ErrRecordNotFound)
		}
		return models.HabitRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// DeleteRecord удаляет запись пользователя. Чужая или отсутствующая запись даёт false.
func (s *Service) DeleteRecord(ctx context.Context, userID, id int) (deleted bool, err error) {
	const op = "tracker.DeleteRecord"
	defer func() { s.metrics.Observe("delete_record", metrics.Classify(err)) }()

	if _, err = s.Record(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	deleted, err = s.records.DeleteRecord(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}

// Streak возвращает текущую серию выполнения привычки.
func (s *Service) Streak(ctx context.Context, userID, habitID int) (int, error) {
	summary, err := s.Statistics(ctx, userID, habitID)
	if err != nil {
		return 0, err
	}
	return summary.Streak, nil
}

// SuccessRate возвращает процент успеха привычки за последние 30 дней.
func (s *Service) SuccessRate(ctx context.Context, userID, habitID int) (float64, error) {
	summary, err := s.Statistics(ctx, userID, habitID)
	if err != nil {
		return 0, err
	}
	return summary.SuccessRate, nil
}

// Statistics возвращает серию и процент успеха привычки.
func (s *Service) Statistics(ctx context.Context, userID, habitID int) (summary stats.Summary, err error) {
	const op = "tracker.Statistics"
	defer func() { s.metrics.Observe("statistics", metrics.Classify(err)) }()

	habit, err := s.habits.GetHabit(ctx, habitID, userID)
	if err != nil {
		return stats.Summary{}, fmt.Errorf("%s: %w", op, err)
	}
	records, err := s.records.ListRecordsByHabit(ctx, habitID)
	if err != nil {
		return stats.Summary{}, fmt.Errorf("%s: %w", op, err)
	}
	return stats.Summarize(habit, records, s.today()), nil
}

// ProgressReport строит отчёт о прогрессе по привычкам habits пользователя userID.
// Каждая привычка перечитывается из хранилища по паре (ID, userID), поэтому
// чужая привычка даёт storage.ErrHabitNotFound независимо от поля UserID.
func (s *Service) ProgressReport(ctx context.Context, userID int, habits []models.Habit) (report string, err error) {
	const op = "tracker.ProgressReport"
	defer func() { s.metrics.Observe("progress_report", metrics.Classify(err)) }()

	today := s.today()
	summaries := make([]stats.Summary, 0, len(habits))
	for _, h := range habits {
		stored, err := s.habits.GetHabit(ctx, h.ID, userID)
		if err != nil {
			return "", fmt.Errorf("%s: habit %d: %w", op, h.ID, err)
		}
		records, err := s.records.ListRecordsByHabit(ctx, stored.ID)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		summaries = append(summaries, stats.Summarize(stored, records, today))
	}
	return stats.Report(summaries), nil
}

func (s *Service) ownedRecords(ctx context.Context, userID, habitID int) ([]models.HabitRecord, error) {
	if _, err := s.habits.GetHabit(ctx, habitID, userID); err != nil {
		return nil, err
	}
	return s.records.ListRecordsByHabit(ctx, habitID)
}

func (s *Service) today() time.Time {
	return day.Today(s.now)
}

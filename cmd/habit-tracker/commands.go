package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/habit-tracker/internal/app/habittracker"
	"github.com/magabrotheeeer/habit-tracker/internal/config"
	"github.com/magabrotheeeer/habit-tracker/internal/lib/day"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
	"github.com/magabrotheeeer/habit-tracker/internal/storage"
)

// CLI описывает команды и общие флаги.
type CLI struct {
	Config string `help:"Config file path." type:"path" env:"CONFIG_PATH" required:""`

	Migrate  MigrateCmd  `cmd:"" help:"Apply database migrations."`
	Register RegisterCmd `cmd:"" help:"Register a new user."`
	User     struct {
		Update UserUpdateCmd `cmd:"" help:"Update profile of the logged in user."`
		Delete UserDeleteCmd `cmd:"" help:"Delete account with all habits and records."`
	} `cmd:"" help:"Manage the user account."`
	Habit    struct {
		Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
		List   HabitListCmd   `cmd:"" help:"List habits."`
		Edit   HabitEditCmd   `cmd:"" help:"Edit an existing habit."`
		Delete HabitDeleteCmd `cmd:"" help:"Delete a habit with its records."`
	} `cmd:"" help:"Manage habits."`
	Complete CompleteCmd `cmd:"" help:"Mark a habit completed for a day."`
	History  HistoryCmd  `cmd:"" help:"Show completion history of a habit."`
	Stats    StatsCmd    `cmd:"" help:"Show streak and success rate of a habit."`
	Report   ReportCmd   `cmd:"" help:"Show the progress report for all habits."`
}

// Context передаётся во все команды.
type Context struct {
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer

	app *habittracker.App
}

// App открывает приложение при первом обращении.
func (c *Context) App() (*habittracker.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := habittracker.New(c.Ctx, c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

// Close закрывает приложение, если оно было открыто.
func (c *Context) Close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

// AuthFlags: учётные данные пользователя, от имени которого выполняется команда.
type AuthFlags struct {
	Email    string `help:"User email." required:""`
	Password string `help:"User password." required:""`
}

func (a AuthFlags) login(c *Context) (*habittracker.App, models.User, error) {
	app, err := c.App()
	if err != nil {
		return nil, models.User{}, err
	}
	user, err := app.Users.Authenticate(c.Ctx, models.Credentials{Email: a.Email, Password: a.Password})
	if err != nil {
		return nil, models.User{}, fmt.Errorf("login: %w", err)
	}
	return app, user, nil
}

func parseFrequency(s string) models.Frequency {
	if s == "weekly" {
		return models.Weekly
	}
	return models.Daily
}

// parseDay разбирает дату флага. Пустая строка даёт нулевое время.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return day.Parse(s)
}

type MigrateCmd struct{}

func (m *MigrateCmd) Run(c *Context) error {
	if err := habittracker.Migrate(c.Ctx, c.Config); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "Миграции применены.")
	return nil
}

type RegisterCmd struct {
	Email    string `help:"User email." required:""`
	Password string `help:"User password." required:""`
	Name     string `help:"Display name." required:""`
}

func (r *RegisterCmd) Run(c *Context) error {
	app, err := c.App()
	if err != nil {
		return err
	}
	user, err := app.Users.Register(c.Ctx, models.UserInput{Email: r.Email, Password: r.Password, Name: r.Name})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Out, user)
	return nil
}

type UserUpdateCmd struct {
	AuthFlags   `embed:""`
	NewEmail    string `help:"New email, current by default."`
	NewPassword string `help:"New password, current by default."`
	Name        string `help:"New display name, current by default."`
}

func (u *UserUpdateCmd) Run(c *Context) error {
	app, user, err := u.login(c)
	if err != nil {
		fmt.Fprintln(c.Out, "Вы должны войти в систему для обновления профиля.")
		return err
	}
	in := models.UserInput{Email: user.Email, Password: user.Password, Name: user.Name}
	if u.NewEmail != "" {
		in.Email = u.NewEmail
	}
	if u.NewPassword != "" {
		in.Password = u.NewPassword
	}
	if u.Name != "" {
		in.Name = u.Name
	}
	if _, err := app.Users.Update(c.Ctx, user.ID, in); err != nil {
		fmt.Fprintln(c.Out, "Не удалось обновить профиль. Возможно, email уже используется.")
		return err
	}
	fmt.Fprintln(c.Out, "Профиль успешно обновлен.")
	return nil
}

type UserDeleteCmd struct {
	AuthFlags `embed:""`
	Yes       bool `help:"Confirm account deletion."`
}

func (u *UserDeleteCmd) Run(c *Context) error {
	app, user, err := u.login(c)
	if err != nil {
		fmt.Fprintln(c.Out, "Вы должны войти в систему для удаления аккаунта.")
		return err
	}
	if !u.Yes {
		fmt.Fprintln(c.Out, "Удаление аккаунта отменено.")
		return nil
	}
	ok, err := app.Users.Delete(c.Ctx, user.ID)
	if err != nil || !ok {
		fmt.Fprintln(c.Out, "Не удалось удалить аккаунт.")
		return err
	}
	fmt.Fprintln(c.Out, "Аккаунт успешно удален.")
	return nil
}

type HabitAddCmd struct {
	AuthFlags   `embed:""`
	Title       string `help:"Habit title." required:""`
	Description string `help:"Habit description."`
	Frequency   string `help:"Habit frequency." enum:"daily,weekly" default:"daily"`
}

func (h *HabitAddCmd) Run(c *Context) error {
	app, user, err := h.login(c)
	if err != nil {
		return err
	}
	habit, err := app.Habits.Create(c.Ctx, user.ID, models.HabitInput{
		Title:       h.Title,
		Description: h.Description,
		Frequency:   parseFrequency(h.Frequency),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Out, habit)
	return nil
}

type HabitListCmd struct {
	AuthFlags `embed:""`
	Frequency string `help:"Only habits with this frequency." enum:"all,daily,weekly" default:"all"`
	Created   string `help:"Only habits created on this day (YYYY-MM-DD)."`
}

func (h *HabitListCmd) Run(c *Context) error {
	app, user, err := h.login(c)
	if err != nil {
		return err
	}

	created, err := parseDay(h.Created)
	if err != nil {
		return err
	}

	var list []models.Habit
	switch {
	case h.Frequency != "all":
		list, err = app.Habits.ListByFrequency(c.Ctx, user.ID, parseFrequency(h.Frequency))
		if err == nil && !created.IsZero() {
			list = createdOn(list, created)
		}
	case !created.IsZero():
		list, err = app.Habits.ListByCreationDate(c.Ctx, user.ID, created)
	default:
		list, err = app.Habits.List(c.Ctx, user.ID)
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(c.Out, "Привычки не найдены.")
		return nil
	}
	for _, habit := range list {
		fmt.Fprintln(c.Out, habit)
	}
	return nil
}

// createdOn оставляет привычки, созданные в день date.
func createdOn(list []models.Habit, date time.Time) []models.Habit {
	date = day.Of(date)
	filtered := list[:0]
	for _, habit := range list {
		if habit.CreationDate.Equal(date) {
			filtered = append(filtered, habit)
		}
	}
	return filtered
}

// HabitEditCmd меняет только переданные поля, остальные берутся из текущей привычки.
type HabitEditCmd struct {
	AuthFlags        `embed:""`
	ID               int    `name:"habit" help:"Habit ID." required:""`
	Title            string `help:"New title."`
	Description      string `help:"New description."`
	ClearDescription bool   `help:"Remove the description."`
	Frequency        string `help:"New frequency." enum:"keep,daily,weekly" default:"keep"`
}

func (h *HabitEditCmd) Run(c *Context) error {
	app, user, err := h.login(c)
	if err != nil {
		return err
	}
	current, err := app.Habits.Get(c.Ctx, user.ID, h.ID)
	if errors.Is(err, storage.ErrHabitNotFound) {
		fmt.Fprintln(c.Out, "Привычка не найдена.")
		return nil
	}
	if err != nil {
		return err
	}

	in := models.HabitInput{
		Title:       current.Title,
		Description: current.Description,
		Frequency:   current.Frequency,
	}
	if h.Title != "" {
		in.Title = h.Title
	}
	switch {
	case h.ClearDescription:
		in.Description = ""
	case h.Description != "":
		in.Description = h.Description
	}
	if h.Frequency != "keep" {
		in.Frequency = parseFrequency(h.Frequency)
	}

	ok, err := app.Habits.Update(c.Ctx, user.ID, h.ID, in)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.Out, "Привычка не найдена.")
		return nil
	}
	fmt.Fprintln(c.Out, "Привычка обновлена.")
	return nil
}

type HabitDeleteCmd struct {
	AuthFlags `embed:""`
	ID        int `name:"habit" help:"Habit ID." required:""`
}

func (h *HabitDeleteCmd) Run(c *Context) error {
	app, user, err := h.login(c)
	if err != nil {
		return err
	}
	ok, err := app.Habits.Delete(c.Ctx, user.ID, h.ID)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.Out, "Привычка не найдена.")
		return nil
	}
	fmt.Fprintln(c.Out, "Привычка удалена.")
	return nil
}

type CompleteCmd struct {
	AuthFlags `embed:""`
	ID        int    `name:"habit" help:"Habit ID." required:""`
	Date      string `help:"Day of completion (YYYY-MM-DD), today by default."`
}

func (cc *CompleteCmd) Run(c *Context) error {
	date, err := parseDay(cc.Date)
	if err != nil {
		return err
	}
	app, user, err := cc.login(c)
	if err != nil {
		return err
	}
	rec, err := app.Tracker.MarkCompletion(c.Ctx, user.ID, cc.ID, date)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Out, rec)
	return nil
}

type HistoryCmd struct {
	AuthFlags `embed:""`
	ID        int `name:"habit" help:"Habit ID." required:""`
}

func (h *HistoryCmd) Run(c *Context) error {
	app, user, err := h.login(c)
	if err != nil {
		return err
	}
	history, err := app.Tracker.History(c.Ctx, user.ID, h.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Out, history)
	return nil
}

type StatsCmd struct {
	AuthFlags `embed:""`
	ID        int `name:"habit" help:"Habit ID." required:""`
}

func (s *StatsCmd) Run(c *Context) error {
	app, user, err := s.login(c)
	if err != nil {
		return err
	}
	summary, err := app.Tracker.Statistics(c.Ctx, user.ID, s.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "Текущая серия: %d дней\n", summary.Streak)
	fmt.Fprintf(c.Out, "Процент успеха: %.2f%%\n", summary.SuccessRate)
	return nil
}

type ReportCmd struct {
	AuthFlags `embed:""`
}

func (r *ReportCmd) Run(c *Context) error {
	app, user, err := r.login(c)
	if err != nil {
		return err
	}
	list, err := app.Habits.List(c.Ctx, user.ID)
	if err != nil {
		return err
	}
	report, err := app.Tracker.ProgressReport(c.Ctx, user.ID, list)
	if err != nil {
		return err
	}
	fmt.Fprint(c.Out, report)
	return nil
}

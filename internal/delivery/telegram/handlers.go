package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"attendance-bot/internal/app/service"
	"attendance-bot/internal/delivery/telegram/flows"
	"attendance-bot/internal/delivery/telegram/router"
	"attendance-bot/internal/domain"
	"attendance-bot/pkg/calendar"
	"attendance-bot/pkg/shiftcal"

	"gopkg.in/telebot.v3"
)

type Handler struct {
	Bot        *telebot.Bot
	Attendance domain.AttendanceService
	Workers    *service.WorkerService
	Calendar   *calendar.CalendarController
	Cal        *shiftcal.Calendar
	router     *router.CallbackRouter
}

var (
	btnStepIn  = telebot.Btn{Text: "▶️ Начать смену"}
	btnStepOut = telebot.Btn{Text: "⏹ Закончить смену"}
	btnStatus  = telebot.Btn{Text: "ℹ️ Статус"}
)

func (h *Handler) Register() {
	h.router = router.New()
	h.router.CalDelegate = h.Calendar.Handle
	flows.RegisterSignup(h.router, h.Workers)
	flows.RegisterBulk(h.router, h.Attendance, h.Workers)
	flows.RegisterReport(h.Calendar, h.Attendance, h.Cal)
	h.router.Attach(h.Bot)

	h.Bot.Handle("/start", h.handleStart)
	h.Bot.Handle("/status", h.handleStatus)
	h.Bot.Handle("/bulk", h.handleBulk)
	h.Bot.Handle("/report", h.handleReport)

	// Единый обработчик текстовых сообщений: кнопки меню
	h.Bot.Handle(telebot.OnText, func(c telebot.Context) error {
		switch c.Text() {
		case btnStepIn.Text:
			return h.handleStepIn(c)
		case btnStepOut.Text:
			return h.handleStepOut(c)
		case btnStatus.Text:
			return h.handleStatus(c)
		}
		return nil
	})
}

// worker находит работника по чату. Справочник ведётся вне бота.
func (h *Handler) worker(c telebot.Context) (domain.Worker, error) {
	w, err := h.Workers.GetWorkerByChat(context.Background(), c.Chat().ID)
	if errors.Is(err, domain.ErrNotFound) {
		return w, c.Send("Вы не зарегистрированы. Нажмите /start.")
	}
	if err != nil {
		return w, c.Send("Ошибка при поиске сотрудника: " + err.Error())
	}
	return w, nil
}

// handleStart показывает меню, а незнакомому чату предлагает зарегистрироваться.
func (h *Handler) handleStart(c telebot.Context) error {
	w, err := h.Workers.GetWorkerByChat(context.Background(), c.Chat().ID)
	if errors.Is(err, domain.ErrNotFound) {
		title, markup := flows.SignupKeyboard()
		return c.Send(title, markup)
	}
	if err != nil {
		return c.Send("Ошибка при поиске сотрудника: " + err.Error())
	}
	markup := &telebot.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(
		markup.Row(markup.Text(btnStepIn.Text), markup.Text(btnStepOut.Text)),
		markup.Row(markup.Text(btnStatus.Text)),
	)
	return c.Send("Добро пожаловать, "+w.Name+"!", markup)
}

func (h *Handler) handleStepIn(c telebot.Context) error {
	w, err := h.worker(c)
	if err != nil || w.ID == 0 {
		return err
	}
	res, err := h.Attendance.StepIn(context.Background(), domain.StepInRequest{EmployeeID: w.ID})
	switch {
	case errors.Is(err, domain.ErrAlreadyOpen), errors.Is(err, domain.ErrConflict):
		return c.Send("Смена уже начата.")
	case err != nil:
		log.Printf("[stepin] chat=%d: %v", c.Chat().ID, err)
		return c.Send("Ошибка при отметке прихода: " + err.Error())
	}
	return c.Send(fmt.Sprintf("Приход отмечен в %s, смена %s до %s.",
		h.clock(res.Record.StepIn), res.Record.Shift, h.clock(res.ShiftEnd)))
}

func (h *Handler) handleStepOut(c telebot.Context) error {
	w, err := h.worker(c)
	if err != nil || w.ID == 0 {
		return err
	}
	ctx := context.Background()
	open, err := h.Attendance.Current(ctx, w.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Send("Открытой смены нет.")
	}
	if err != nil {
		return c.Send("Ошибка: " + err.Error())
	}
	rec, err := h.Attendance.StepOut(ctx, domain.StepOutRequest{RecordID: open.ID})
	if err != nil {
		log.Printf("[stepout] chat=%d record=%s: %v", c.Chat().ID, open.ID, err)
		return c.Send("Ошибка при отметке ухода: " + err.Error())
	}
	return c.Send(fmt.Sprintf("Уход отмечен в %s. Отработано %d ч %02d мин.",
		h.clock(*rec.StepOut), *rec.TotalTime/60, *rec.TotalTime%60))
}

func (h *Handler) handleStatus(c telebot.Context) error {
	w, err := h.worker(c)
	if err != nil || w.ID == 0 {
		return err
	}
	open, err := h.Attendance.Current(context.Background(), w.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Send("Сейчас вы не на смене.")
	}
	if err != nil {
		return c.Send("Ошибка: " + err.Error())
	}
	return c.Send(fmt.Sprintf("На смене с %s (%s), окончание в %s.",
		h.clock(open.StepIn), open.Shift, h.clock(h.Cal.End(open.StepIn, open.Shift))))
}

func (h *Handler) handleBulk(c telebot.Context) error {
	if !h.requireManager(c) {
		return nil
	}
	title, markup := flows.BulkKeyboard()
	return c.Send(title, markup)
}

func (h *Handler) handleReport(c telebot.Context) error {
	if !h.requireManager(c) {
		return nil
	}
	return h.Calendar.ShowCalendar(c)
}

func (h *Handler) requireManager(c telebot.Context) bool {
	w, err := h.worker(c)
	if err != nil || w.ID == 0 {
		return false
	}
	if !w.CanManage() {
		_ = c.Send("Команда доступна только менеджерам.")
		return false
	}
	return true
}

func (h *Handler) clock(t time.Time) string {
	return t.In(h.Cal.Loc).Format("15:04")
}

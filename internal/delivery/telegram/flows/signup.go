package flows

import (
	"context"
	"log"
	"strconv"
	"strings"

	"attendance-bot/internal/app/service"
	"attendance-bot/internal/delivery/telegram/keyboards"
	"attendance-bot/internal/delivery/telegram/middleware"
	"attendance-bot/internal/delivery/telegram/router"
	"attendance-bot/internal/domain"

	"gopkg.in/telebot.v3"
)

const SignupShiftKey = "signup_shift"

// SignupWorker собирает карточку работника из профиля Telegram.
func SignupWorker(u *telebot.User, chatID int64, shift domain.Shift) domain.Worker {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}
	return domain.Worker{ID: u.ID, Name: name, ChatID: chatID, Role: domain.RoleWorker, Shift: shift}
}

// RegisterSignup: самостоятельная регистрация по кнопке выбора смены после /start.
// Если менеджер уже завёл карточку с этим id, к ней только привязывается чат.
func RegisterSignup(r *router.CallbackRouter, workers *service.WorkerService) {
	r.Register(SignupShiftKey, func(c telebot.Context, payload string) error {
		ctx := context.Background()
		if w, err := workers.GetWorkerByChat(ctx, c.Chat().ID); err == nil {
			return middleware.EditOrSend(c, "Вы уже зарегистрированы: "+w.Name, nil)
		}
		w := SignupWorker(c.Sender(), c.Chat().ID, domain.Shift(payload))
		if existing, err := workers.GetWorkerByID(ctx, w.ID); err == nil {
			existing.ChatID = w.ChatID
			w = existing
		}
		if err := workers.CreateOrUpdateWorker(ctx, w); err != nil {
			log.Printf("[signup] chat=%d: %v", c.Chat().ID, err)
			return middleware.EditOrSend(c, "Ошибка регистрации: "+err.Error(), nil)
		}
		log.Printf("[signup] worker=%d shift=%s", w.ID, w.Shift)
		return middleware.EditOrSend(c, "Готово! Смена: "+keyboards.ShiftTitles[w.Shift]+". Нажмите /start.", nil)
	})
}

func SignupKeyboard() (string, *telebot.ReplyMarkup) {
	return keyboards.BuildShiftKeyboard("Вы ещё не зарегистрированы. Выберите свою смену:", SignupShiftKey)
}

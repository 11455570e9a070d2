package flows

import (
	"context"
	"errors"
	"fmt"

	"attendance-bot/internal/app/service"
	"attendance-bot/internal/delivery/telegram/keyboards"
	"attendance-bot/internal/delivery/telegram/middleware"
	"attendance-bot/internal/delivery/telegram/router"
	"attendance-bot/internal/domain"

	"gopkg.in/telebot.v3"
)

const BulkShiftKey = "bulk_shift"

// RegisterBulk: массовая отметка прихода всей смены. Только для менеджеров.
func RegisterBulk(r *router.CallbackRouter, attendance domain.AttendanceService, workers *service.WorkerService) {
	r.Register(BulkShiftKey, func(c telebot.Context, payload string) error {
		ctx := context.Background()
		actor, err := workers.GetWorkerByChat(ctx, c.Chat().ID)
		if err != nil || !actor.CanManage() {
			return middleware.EditOrSend(c, "Массовая отметка доступна только менеджерам.", nil)
		}
		res, err := attendance.BulkStepIn(ctx, domain.BulkStepInRequest{
			Shift: domain.Shift(payload),
			Actor: actor.Creator(),
		})
		if err != nil && !errors.Is(err, domain.ErrPartialBatch) {
			return middleware.EditOrSend(c, "Ошибка массовой отметки: "+err.Error(), nil)
		}
		msg := fmt.Sprintf("Смена %s: отмечено %d, уже на работе %d, ошибок %d",
			keyboards.ShiftTitles[domain.Shift(payload)], res.SuccessCount, res.AlreadyCount, res.FailureCount)
		return middleware.EditOrSend(c, msg, nil)
	})
}

func BulkKeyboard() (string, *telebot.ReplyMarkup) {
	return keyboards.BuildShiftKeyboard("Какую смену отметить?", BulkShiftKey)
}

package flows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"attendance-bot/internal/delivery/telegram/middleware"
	"attendance-bot/internal/domain"
	"attendance-bot/pkg/calendar"
	"attendance-bot/pkg/shiftcal"

	"gopkg.in/telebot.v3"
)

// RegisterReport вешает на выбор даты в календаре сводку по отметкам за сутки.
func RegisterReport(cc *calendar.CalendarController, attendance domain.AttendanceService, cal *shiftcal.Calendar) {
	cc.OnDate = func(date time.Time, c telebot.Context) error {
		day := date.Format(shiftcal.DayLayout)
		sum, err := attendance.Summary(context.Background(), day, "")
		if err != nil {
			return middleware.EditOrSend(c, "Ошибка при получении отчёта: "+err.Error(), nil)
		}
		return middleware.EditOrSend(c, FormatSummary(sum, cal), nil)
	}
}

func FormatSummary(sum domain.Summary, cal *shiftcal.Calendar) string {
	if len(sum.Records) == 0 {
		return "За " + sum.Day + " отметок нет."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Отметки за %s: %d (на смене сейчас %d), всего %d ч %02d мин\n",
		sum.Day, len(sum.Records), sum.Open, sum.TotalMinutes/60, sum.TotalMinutes%60)
	for _, r := range sum.Records {
		in := r.StepIn.In(cal.Loc).Format("15:04")
		out := "—"
		if r.StepOut != nil {
			out = r.StepOut.In(cal.Loc).Format("15:04")
		}
		total := ""
		if r.TotalTime != nil {
			total = fmt.Sprintf(" (%d мин)", *r.TotalTime)
		}
		fmt.Fprintf(&b, "#%d %s %s–%s%s [%s]\n", r.EmployeeID, r.Shift, in, out, total, r.Origin)
	}
	return b.String()
}

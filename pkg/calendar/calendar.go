package calendar

import (
	"log"
	"strconv"
	"strings"
	"time"

	"gopkg.in/telebot.v3"
)

// CalendarController реализует обработку inline-календаря
type CalendarController struct {
	Loc    *time.Location
	OnDate func(time.Time, telebot.Context) error
}

// ShowCalendar отправляет или редактирует инлайн-календарь для выбора даты с переключением месяцев
func (cc *CalendarController) ShowCalendar(c telebot.Context) error {
	now := time.Now().In(cc.location())
	return SendCalendar(c, now.Year(), int(now.Month()))
}

func (cc *CalendarController) location() *time.Location {
	if cc.Loc == nil {
		return time.UTC
	}
	return cc.Loc
}

var ruMonths = map[time.Month]string{
	time.January:   "Январь",
	time.February:  "Февраль",
	time.March:     "Март",
	time.April:     "Апрель",
	time.May:       "Май",
	time.June:      "Июнь",
	time.July:      "Июль",
	time.August:    "Август",
	time.September: "Сентябрь",
	time.October:   "Октябрь",
	time.November:  "Ноябрь",
	time.December:  "Декабрь",
}

// SendCalendar строит и отправляет календарь за указанный месяц
func SendCalendar(c telebot.Context, year, month int) error {
	title, markup := Build(year, month)
	if c.Callback() != nil {
		return c.Edit(title, markup)
	}
	return c.Send(title, markup)
}

// Build возвращает заголовок и разметку календаря за месяц.
func Build(year, month int) (string, *telebot.ReplyMarkup) {
	markup := &telebot.ReplyMarkup{}
	days := daysInMonth(year, month)
	var rows []telebot.Row
	week := telebot.Row{}
	for d := 1; d <= days; d++ {
		btn := markup.Data(strconv.Itoa(d), "cal_day", strconv.Itoa(d)+"-"+strconv.Itoa(month)+"-"+strconv.Itoa(year))
		week = append(week, btn)
		if len(week) == 7 {
			rows = append(rows, week)
			week = telebot.Row{}
		}
	}
	if len(week) > 0 {
		rows = append(rows, week)
	}
	prev := markup.Data("<", "cal_prev", strconv.Itoa(month-1)+"-"+strconv.Itoa(year))
	next := markup.Data(">", "cal_next", strconv.Itoa(month+1)+"-"+strconv.Itoa(year))
	rows = append(rows, telebot.Row{prev, next})
	markup.Inline(rows...)
	monthName := time.Month(month).String()
	if ru, ok := ruMonths[time.Month(month)]; ok {
		monthName = ru
	}
	return "Выберите дату: " + monthName + " " + strconv.Itoa(year), markup
}

// Handle обрабатывает callback-и календаря (cal_day, cal_prev, cal_next).
// Вызывается из общего роутера, а не регистрируется отдельно на OnCallback.
func (cc *CalendarController) Handle(c telebot.Context) error {
	key, payload, ok := strings.Cut(strings.TrimPrefix(c.Data(), "\f"), "|")
	if !ok {
		return nil
	}
	switch key {
	case "cal_day":
		date, err := ParseDay(payload, cc.location())
		if err != nil {
			return c.Send("Ошибка даты")
		}
		if cc.OnDate != nil {
			return cc.OnDate(date, c)
		}
		return c.Send("Ошибка даты")
	case "cal_prev", "cal_next":
		year, month, err := ParseMonth(payload)
		if err != nil {
			log.Printf("[calendar] %s bad payload %q", key, payload)
			return c.Send("Ошибка месяца")
		}
		return SendCalendar(c, year, month)
	}
	return nil
}

// ParseDay разбирает payload вида д-м-гггг.
func ParseDay(payload string, loc *time.Location) (time.Time, error) {
	parts := SplitDateData(payload)
	if len(parts) != 3 {
		return time.Time{}, strconv.ErrSyntax
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, strconv.ErrSyntax
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), nil
}

// ParseMonth разбирает payload вида м-гггг, перенося месяц через границу года.
func ParseMonth(payload string) (int, int, error) {
	parts := SplitDateData(payload)
	if len(parts) != 2 {
		return 0, 0, strconv.ErrSyntax
	}
	month, err1 := strconv.Atoi(parts[0])
	year, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, strconv.ErrSyntax
	}
	if month < 1 {
		month = 12
		year--
	}
	if month > 12 {
		month = 1
		year++
	}
	return year, month, nil
}

// SplitDateData разбивает строку даты на части
func SplitDateData(data string) []string {
	return strings.Split(data, "-")
}

func daysInMonth(year, month int) int {
	t := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return t.Day()
}

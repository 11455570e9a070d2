package shiftcal

import (
	"time"
)

// Shift: метка одной из трёх фиксированных смен.
type Shift string

const (
	Morning Shift = "morning"
	Evening Shift = "evening"
	Night   Shift = "night"
)

// Shifts в порядке начала суток.
var Shifts = []Shift{Morning, Evening, Night}

// Часы начала и конца смен. Конец одной смены совпадает с началом следующей.
const (
	MorningStart = 7
	EveningStart = 15
	NightStart   = 23
)

// fallbackLength используется, если смена неизвестна.
const fallbackLength = 8 * time.Hour

// Valid сообщает, является ли метка одной из трёх смен.
func (s Shift) Valid() bool {
	switch s {
	case Morning, Evening, Night:
		return true
	}
	return false
}

// StartHour возвращает час начала смены.
func (s Shift) StartHour() (int, bool) {
	switch s {
	case Morning:
		return MorningStart, true
	case Evening:
		return EveningStart, true
	case Night:
		return NightStart, true
	}
	return 0, false
}

// Calendar считает границы смен в одной гражданской таймзоне,
// а не в локальном времени вызывающего.
type Calendar struct {
	Loc *time.Location
}

func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{Loc: loc}
}

// Detect определяет смену по моменту прихода. Интервалы полуоткрытые.
func (c *Calendar) Detect(t time.Time) Shift {
	h := t.In(c.Loc).Hour()
	switch {
	case h >= MorningStart && h < EveningStart:
		return Morning
	case h >= EveningStart && h < NightStart:
		return Evening
	default:
		return Night
	}
}

// End возвращает момент окончания смены для прихода в момент t.
// Ночная смена заканчивается в 07:00 следующих календарных суток.
func (c *Calendar) End(t time.Time, s Shift) time.Time {
	local := t.In(c.Loc)
	y, m, d := local.Date()
	switch s {
	case Morning:
		return time.Date(y, m, d, EveningStart, 0, 0, 0, c.Loc)
	case Evening:
		return time.Date(y, m, d, NightStart, 0, 0, 0, c.Loc)
	case Night:
		return time.Date(y, m, d+1, MorningStart, 0, 0, 0, c.Loc)
	}
	return t.Add(fallbackLength)
}

// ShiftStartingAt возвращает смену, которая начинается в час момента t.
// Второе значение false, если в этот час смена не начинается.
func (c *Calendar) ShiftStartingAt(t time.Time) (Shift, bool) {
	h := t.In(c.Loc).Hour()
	for _, s := range Shifts {
		if start, _ := s.StartHour(); start == h {
			return s, true
		}
	}
	return "", false
}

// Day возвращает гражданскую дату момента t в формате 2006-01-02.
func (c *Calendar) Day(t time.Time) string {
	return t.In(c.Loc).Format(DayLayout)
}

// DayBounds возвращает полуоткрытый интервал [начало суток, начало следующих суток).
func (c *Calendar) DayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.In(c.Loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, c.Loc)
	return from, from.AddDate(0, 0, 1)
}

// ParseDay разбирает дату в таймзоне календаря.
func (c *Calendar) ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, c.Loc)
}

const DayLayout = "2006-01-02"

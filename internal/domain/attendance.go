package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"attendance-bot/pkg/shiftcal"
)

type Shift = shiftcal.Shift

// Origin: кто открыл запись. Заменяет поиск маркера в тексте заметки.
type Origin string

const (
	OriginManual Origin = "manual"
	OriginBulk   Origin = "bulk"
	OriginAuto   Origin = "auto"
)

type CreatorType string

const (
	CreatorAdmin   CreatorType = "admin"
	CreatorManager CreatorType = "manager"
	CreatorWorker  CreatorType = "worker"
	CreatorSystem  CreatorType = "system"
)

// Creator: типизированная ссылка на автора записи.
type Creator struct {
	Type CreatorType `json:"type"`
	ID   int64       `json:"id"`
}

var SystemCreator = Creator{Type: CreatorSystem}

// Capture: данные, снятые при отметке. Ядро их не интерпретирует.
type Capture struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   string   `json:"address,omitempty"`
	Image     string   `json:"image,omitempty"`
}

// Record: отметка присутствия. Отсутствие StepOut означает открытую запись.
type Record struct {
	ID             string     `json:"id"`
	EmployeeID     int64      `json:"employee_id"`
	ManagerID      int64      `json:"manager_id"`
	StepIn         time.Time  `json:"step_in"`
	StepOut        *time.Time `json:"step_out,omitempty"`
	TotalTime      *int       `json:"total_time,omitempty"`
	Shift          Shift      `json:"shift"`
	WorkDay        string     `json:"work_day"`
	StepInCapture  Capture    `json:"step_in_capture"`
	StepOutCapture Capture    `json:"step_out_capture"`
	Note           string     `json:"note,omitempty"`
	Origin         Origin     `json:"origin"`
	CreatedBy      Creator    `json:"created_by"`
}

func (r Record) Open() bool {
	return r.StepOut == nil
}

// Minutes: целые минуты между моментами, с округлением вниз.
func Minutes(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Minutes()))
}

// NullTime отличает «поле не передано» от явного null.
type NullTime struct {
	Set  bool
	Time *time.Time
}

func SetTime(t time.Time) NullTime { return NullTime{Set: true, Time: &t} }

var ClearTime = NullTime{Set: true}

func (n *NullTime) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Time = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	n.Time = &t
	return nil
}

func (n NullTime) MarshalJSON() ([]byte, error) {
	if n.Time == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Time)
}

// RecordPatch: правка записи задним числом. nil означает «не менять».
type RecordPatch struct {
	StepIn         *time.Time `json:"step_in,omitempty"`
	StepOut        NullTime   `json:"step_out"`
	TotalTime      *int       `json:"total_time,omitempty"`
	Shift          *Shift     `json:"shift,omitempty"`
	Note           *string    `json:"note,omitempty"`
	StepInCapture  *Capture   `json:"step_in_capture,omitempty"`
	StepOutCapture *Capture   `json:"step_out_capture,omitempty"`
}

// Closes сообщает, выставляет ли правка конкретное время ухода.
func (p RecordPatch) Closes() bool {
	return p.StepOut.Set && p.StepOut.Time != nil
}

func (p RecordPatch) Empty() bool {
	return p.StepIn == nil && !p.StepOut.Set && p.TotalTime == nil && p.Shift == nil &&
		p.Note == nil && p.StepInCapture == nil && p.StepOutCapture == nil
}

// Apply применяет правку к записи и пересчитывает TotalTime.
// Явный null в StepOut обнуляет TotalTime. Если обе границы известны
// и TotalTime не передан явно, он пересчитывается при изменении любой границы.
func (r *Record) Apply(p RecordPatch, cal *shiftcal.Calendar) error {
	if p.Shift != nil && !p.Shift.Valid() {
		return fmt.Errorf("%w: unknown shift %q", ErrValidation, *p.Shift)
	}
	if p.TotalTime != nil && *p.TotalTime < 0 {
		return fmt.Errorf("%w: negative total_time", ErrValidation)
	}
	next := *r
	if p.StepIn != nil {
		next.StepIn = *p.StepIn
		next.WorkDay = cal.Day(*p.StepIn)
	}
	if p.StepOut.Set {
		next.StepOut = p.StepOut.Time
	}
	if p.Shift != nil {
		next.Shift = *p.Shift
	}
	if p.Note != nil {
		next.Note = *p.Note
	}
	if p.StepInCapture != nil {
		next.StepInCapture = *p.StepInCapture
	}
	if p.StepOutCapture != nil {
		next.StepOutCapture = *p.StepOutCapture
	}
	if next.StepOut != nil && next.StepOut.Before(next.StepIn) {
		return fmt.Errorf("%w: step_out before step_in", ErrValidation)
	}

	switch {
	case next.StepOut == nil:
		next.TotalTime = nil
	case p.TotalTime != nil:
		v := *p.TotalTime
		next.TotalTime = &v
	case p.StepIn != nil || p.StepOut.Set || next.TotalTime == nil:
		v := Minutes(next.StepIn, *next.StepOut)
		next.TotalTime = &v
	}
	*r = next
	return nil
}

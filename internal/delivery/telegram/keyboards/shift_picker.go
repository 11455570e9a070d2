package keyboards

import (
	"attendance-bot/pkg/shiftcal"

	"gopkg.in/telebot.v3"
)

var ShiftTitles = map[shiftcal.Shift]string{
	shiftcal.Morning: "Утро 07–15",
	shiftcal.Evening: "Вечер 15–23",
	shiftcal.Night:   "Ночь 23–07",
}

// BuildShiftKeyboard строит выбор смены; unique: ключ callback-а, payload: метка смены.
func BuildShiftKeyboard(title, unique string) (string, *telebot.ReplyMarkup) {
	markup := &telebot.ReplyMarkup{}
	row := telebot.Row{}
	for _, s := range shiftcal.Shifts {
		row = append(row, markup.Data(ShiftTitles[s], unique, string(s)))
	}
	markup.Inline(row)
	return title, markup
}

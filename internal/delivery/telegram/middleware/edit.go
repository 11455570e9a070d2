package middleware

import (
	"gopkg.in/telebot.v3"
)

// EditOrSend редактирует сообщение с кнопкой, или отправляет новое, если редактирование невозможно.
func EditOrSend(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	if markup != nil {
		if err := c.Edit(text, markup); err != nil {
			return c.Send(text, markup)
		}
		return nil
	}
	if err := c.Edit(text); err != nil {
		return c.Send(text)
	}
	return nil
}

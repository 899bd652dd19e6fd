// Package keyboard builds inline keyboards whose buttons carry a callback
// unique and a payload.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is one inline button: Unique routes the callback, Data is the
// payload handed to the handler.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// Grid lays buttons out left to right, perRow per row. perRow < 1 means one
// button per row.
func Grid(buttons []InlineBtn, perRow int) *tele.ReplyMarkup {
	if perRow < 1 {
		perRow = 1
	}
	markup := &tele.ReplyMarkup{}
	rows := make([][]tele.InlineButton, 0, (len(buttons)+perRow-1)/perRow)
	for start := 0; start < len(buttons); start += perRow {
		chunk := buttons[start:min(start+perRow, len(buttons))]
		row := make([]tele.InlineButton, 0, len(chunk))
		for _, b := range chunk {
			row = append(row, *markup.Data(b.Text, b.Unique, b.Data).Inline())
		}
		rows = append(rows, row)
	}
	markup.InlineKeyboard = rows
	return markup
}

// Column is Grid with one button per row.
func Column(buttons []InlineBtn) *tele.ReplyMarkup {
	return Grid(buttons, 1)
}

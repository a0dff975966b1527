package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/promptbinder/core/telegram/keyboard"
	"github.com/m3rciful/promptbinder/internal/catalog"
)

// itemsPerRow is the width of a category's prompt keyboard.
const itemsPerRow = 2

func categoryKeyboard(cat *catalog.Catalog) *tele.ReplyMarkup {
	cats := cat.Categories()
	rows := make([][]string, 0, len(cats)+1)
	for _, c := range cats {
		rows = append(rows, []string{c.Label})
	}
	rows = append(rows, []string{btnHelp})
	return keyboard.ReplyButtons(rows...)
}

func itemsKeyboard(cat *catalog.Catalog, c catalog.Category) *tele.ReplyMarkup {
	items := cat.Items(c)
	labels := make([]string, 0, len(items))
	for _, p := range items {
		labels = append(labels, p.Label)
	}
	rows := keyboard.Chunk(labels, itemsPerRow)
	rows = append(rows, []string{btnBack, btnHome})
	return keyboard.ReplyButtons(rows...)
}

func cancelKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{btnCancel})
}

func copyKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{{Text: btnCopy, Data: copyCallback}})
}

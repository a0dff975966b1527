package bot

import (
	"unicode"

	"golang.org/x/text/language"

	"github.com/m3rciful/promptbinder/core/telegram/format"
)

// Button labels.
const (
	btnHelp   = "❓ Что может бот"
	btnHome   = "🏠 Домой"
	btnHomeRU = "Домой"
	btnBack   = "⬅️ Назад"
	btnCancel = "❌ Отмена"
	btnCopy   = "📋 Скопировать промпт"
)

// copyCallback is the raw callback_data of the copy button.
const copyCallback = "copy_prompt"

const (
	msgWelcome       = "<b>👋 PromptBinder</b>\nВыберите категорию:"
	msgMenu          = "Выберите категорию:"
	msgCancelled     = "Отменено."
	msgDenied        = "Команда доступна админу."
	msgNoStats       = "Нет stats.csv"
	msgPromptMissing = "Промпт не найден."
	msgSlowDown      = "Слишком часто. Повторите через секунду."
	msgCopyHint      = "📋 Чтобы скопировать — выделите текст и нажмите «Копировать»"
	msgHelp          = "<b>Что умеет PromptBinder</b>\n\n" +
		"• Быстро формирует промпты по шаблонам\n" +
		"• Категории → выбор задачи → ввод полей → готовый промпт\n\n" +
		"Команды: /start /help /cancel"
)

var (
	hintLanguages = []language.Tag{language.English, language.Russian}
	hintMatcher   = language.NewMatcher(hintLanguages)
	fallbackHints = map[language.Tag]string{
		language.Russian: "Выберите категорию из меню 👇",
		language.English: "Please choose a category 👇",
	}
)

// hintLanguage picks Russian for text with Cyrillic letters. Other text
// follows the sender's language code, English when it matches nothing.
func hintLanguage(text, langCode string) language.Tag {
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return language.Russian
		}
	}
	_, i, _ := hintMatcher.Match(language.Make(langCode))
	return hintLanguages[i]
}

func fallbackHint(text, langCode string) string {
	return fallbackHints[hintLanguage(text, langCode)]
}

func categoryText(title string) string {
	return format.Bold(title) + "\nВыберите задачу:"
}

func emptyCategoryText(title string) string {
	return format.Bold(title) + "\nЗдесь пока нет шаблонов."
}

func fieldText(field, example string) string {
	var hint string
	if example != "" {
		hint = format.Italic("пример: " + example)
	}
	return format.Lines("Введите "+format.Bold(field)+":", hint)
}

func resultText(out string) string {
	return "<b>✨ Ваш промпт</b>\n\n" + format.Code(out)
}

func readyText(out string) string {
	return "<b>✨ Готово</b>\n" + format.Code(out)
}

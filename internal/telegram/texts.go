package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zeprog/absentee-table/internal/domain"
)

// maxMessageLen is Telegram's limit on the text of one message.
const maxMessageLen = 4096

// UI texts
const (
	greetNewText = "Привет! Я ваш менеджер отсутствующих в классе!\n" +
		"Пожалуйста, выберите класс по умолчанию."
	greetAgainText = "Привет еще раз! Вы выбрали уже класс и время напоминания.\n" +
		"Чтобы изменить класс, выберите команду /change_class.\n" +
		"Чтобы изменить время, выберите команду /set_reminder\n" +
		"Чтобы посмотреть информацию интересующей даты, выберите команду /read"
	helpText = "Команды:\n" +
		"/start - начать работу\n" +
		"/change_class - изменить класс по умолчанию\n" +
		"/set_reminder - изменить время напоминания\n" +
		"/read - посмотреть данные листа\n" +
		"/cancel - отменить текущее действие"

	askClassText     = "Пожалуйста, введите новый класс по умолчанию."
	classSetFmt      = "Класс по умолчанию установлен на: %s"
	askTimeText      = "Пожалуйста, выберите время для напоминания или введите свое в формате ЧЧ:ММ."
	reminderSetFmt   = "Напоминание установлено на %s"
	badTimeText      = "Неверный формат времени. Пожалуйста, введите время в формате ЧЧ:ММ."
	noClassText      = "Класс по умолчанию не установлен. Пожалуйста, установите класс."
	confirmText      = "Вы сегодня отмечали отсутствующих?"
	thanksText       = "Спасибо! Хорошего дня!"
	chooseSheetText  = "Выберите лист:"
	noSheetsText     = "Не удалось получить список листов. Попробуйте позже."
	useButtonsText   = "Пожалуйста, выберите лист с помощью кнопок."
	sheetChosenFmt   = "Вы выбрали лист: %s. Теперь введите отсутствующих через пробел (ОРВИ, Ковид, Грипп, Другое заболевание, Другая причина (Ув., Неув.))."
	noSheetText      = "Лист не выбран. Пожалуйста, выберите лист."
	classMissingText = "Класс не найден в базе данных. Пожалуйста, установите класс по умолчанию."
	classNotFoundFmt = "Класс '%s' не найден в листе."
	recordedText     = "Спасибо, данные записаны."
	writeErrFmt      = "Ошибка при записи в таблицу: %s"
	genericErrFmt    = "Произошла ошибка: %s"
	readChooseFmt    = "Выберите лист (Класс по умолчанию: %s):"
	classUnsetText   = "Не установлен"
	readHeaderFmt    = "Данные из листа %s:\n\n"
	readEmptyText    = "Нет данных."
	readErrFmt       = "Ошибка: %s"
	storeErrText     = "Не удалось сохранить настройки. Попробуйте позже."
	cancelledText    = "Действие отменено."
	nothingText      = "Нечего отменять."
	staleButtonText  = "Кнопка устарела."
	unknownCmdText   = "Неизвестная команда. Список команд: /help"
)

// botCommands is the menu registered with Telegram.
var botCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Начать работу"},
	{Command: "change_class", Description: "Изменить класс по умолчанию"},
	{Command: "set_reminder", Description: "Изменить время напоминания"},
	{Command: "read", Description: "Посмотреть данные листа"},
	{Command: "cancel", Description: "Отменить текущее действие"},
	{Command: "help", Description: "Справка"},
}

func timeKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(domain.QuickTimes))
	for _, t := range domain.QuickTimes {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t, prefixTime+t),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Да", prefixConfirm+confirmYes),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Нет", prefixConfirm+confirmNo),
		),
	)
}

// sheetKeyboard lists one sheet per row. Names that don't fit into
// Telegram's callback data limit are skipped.
func sheetKeyboard(prefix string, names []string) (tgbotapi.InlineKeyboardMarkup, int) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(names))
	for _, name := range names {
		data, ok := callbackData(prefix, name)
		if !ok {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(name, data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), len(rows)
}

// emptyKeyboard removes inline buttons when sent as an edit.
func emptyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}

func formatGrid(sheet string, grid [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, readHeaderFmt, sheet)
	for i, row := range grid {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(row, ", "))
	}
	return b.String()
}

// splitMessage cuts text into parts of at most limit characters, breaking
// between lines where possible. Concatenated parts equal text.
func splitMessage(text string, limit int) []string {
	var (
		parts []string
		b     strings.Builder
		n     int
	)
	flush := func() {
		if b.Len() > 0 {
			parts = append(parts, b.String())
			b.Reset()
			n = 0
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		for utf8.RuneCountInString(line) > limit {
			flush()
			r := []rune(line)
			parts = append(parts, string(r[:limit]))
			line = string(r[limit:])
		}
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		b.WriteString(line)
		n += ln
	}
	flush()
	return parts
}

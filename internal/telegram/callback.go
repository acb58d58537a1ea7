package telegram

import (
	"strings"

	"github.com/zeprog/absentee-table/internal/domain"
)

// Callback data namespaces. Each keyboard tags its buttons so that a sheet
// name can never be mistaken for a confirmation or a time choice.
const (
	prefixTime    = "time:"
	prefixConfirm = "confirm:"
	prefixAbsence = "absent:"
	prefixRead    = "read:"

	// prefix of absence-sheet buttons sent by older releases
	legacyAbsencePrefix = "list "

	confirmYes = "yes"
	confirmNo  = "no"

	maxCallbackData = 64 // bytes, Telegram limit
)

type callbackKind int

const (
	cbReadSheet callbackKind = iota // also the fallthrough for unknown payloads
	cbTime
	cbConfirm
	cbAbsenceSheet
)

type callback struct {
	kind  callbackKind
	value string
}

// parseCallback decodes button data into a tagged callback.
func parseCallback(data string) callback {
	switch {
	case strings.HasPrefix(data, prefixTime):
		return callback{cbTime, strings.TrimPrefix(data, prefixTime)}
	case strings.HasPrefix(data, prefixConfirm):
		return callback{cbConfirm, strings.TrimPrefix(data, prefixConfirm)}
	case strings.HasPrefix(data, prefixAbsence):
		return callback{cbAbsenceSheet, strings.TrimPrefix(data, prefixAbsence)}
	case strings.HasPrefix(data, prefixRead):
		return callback{cbReadSheet, strings.TrimPrefix(data, prefixRead)}
	}

	// Untagged payloads from keyboards sent before namespacing.
	switch {
	case data == "yes" || data == "Да":
		return callback{cbConfirm, confirmYes}
	case data == "no" || data == "Нет":
		return callback{cbConfirm, confirmNo}
	case strings.HasPrefix(data, legacyAbsencePrefix):
		return callback{cbAbsenceSheet, strings.TrimPrefix(data, legacyAbsencePrefix)}
	case domain.IsReminderTime(data):
		return callback{cbTime, data}
	}
	return callback{cbReadSheet, data}
}

func callbackData(prefix, value string) (string, bool) {
	data := prefix + value
	return data, len(data) <= maxCallbackData
}

package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTime = errors.New("invalid time, expected HH:MM")
	ErrEmptyClass  = errors.New("empty class")
	ErrNoSheetCode = errors.New("sheet name has no <n>.<n> code")
)

var (
	reminderRx  = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
	sheetCodeRx = regexp.MustCompile(`\d+\.\d+`)
)

// QuickTimes are the reminder times offered as buttons.
var QuickTimes = []string{"09:00", "12:00", "15:00", "17:00"}

// ParseReminderTime validates a strict two-digit "HH:MM" 24h time.
func ParseReminderTime(s string) (string, error) {
	m := reminderRx.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return "", fmt.Errorf("%w: %q out of range", ErrInvalidTime, s)
	}
	return s, nil
}

// IsReminderTime is ParseReminderTime without the error.
func IsReminderTime(s string) bool {
	_, err := ParseReminderTime(s)
	return err == nil
}

// MinuteKey formats t as the HH:MM key reminders are compared against.
func MinuteKey(t time.Time) string {
	return t.Format("15:04")
}

// NormalizeClass lower-cases a class label. Whitespace is kept as typed.
func NormalizeClass(s string) (string, error) {
	if s == "" {
		return "", ErrEmptyClass
	}
	return strings.ToLower(s), nil
}

// SheetCode extracts the first "<digits>.<digits>" token of a sheet label,
// e.g. "list 12.05" -> "12.05".
func SheetCode(label string) (string, error) {
	code := sheetCodeRx.FindString(label)
	if code == "" {
		return "", fmt.Errorf("%w: %q", ErrNoSheetCode, label)
	}
	return code, nil
}

// SplitAbsentees splits on single spaces only. Repeated spaces yield empty tokens.
func SplitAbsentees(text string) []string {
	return strings.Split(text, " ")
}

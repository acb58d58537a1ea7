package telegram

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeprog/absentee-table/internal/session"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data      string
		wantKind  callbackKind
		wantValue string
	}{
		{"time:09:00", cbTime, "09:00"},
		{"confirm:yes", cbConfirm, confirmYes},
		{"confirm:no", cbConfirm, confirmNo},
		{"absent:list 12.05", cbAbsenceSheet, "list 12.05"},
		{"read:12.05", cbReadSheet, "12.05"},

		// untagged payloads
		{"yes", cbConfirm, confirmYes},
		{"Да", cbConfirm, confirmYes},
		{"no", cbConfirm, confirmNo},
		{"Нет", cbConfirm, confirmNo},
		{"list 12.05", cbAbsenceSheet, "12.05"},
		{"15:00", cbTime, "15:00"},

		// anything else is a sheet to display
		{"12.05", cbReadSheet, "12.05"},
		{"yes-report", cbReadSheet, "yes-report"},
		{"9:00", cbReadSheet, "9:00"},
		{"", cbReadSheet, ""},
	}
	for _, tt := range tests {
		got := parseCallback(tt.data)
		if got.kind != tt.wantKind || got.value != tt.wantValue {
			t.Fatalf("parseCallback(%q) = {%d %q}, want {%d %q}",
				tt.data, got.kind, got.value, tt.wantKind, tt.wantValue)
		}
	}
}

func TestSheetKeyboard_SkipsOversizedNames(t *testing.T) {
	long := strings.Repeat("x", maxCallbackData)
	kb, n := sheetKeyboard(prefixRead, []string{"12.05", long, "13.05"})
	if n != 2 || len(kb.InlineKeyboard) != 2 {
		t.Fatalf("want 2 rows, got %d", n)
	}
	if got := *kb.InlineKeyboard[1][0].CallbackData; got != "read:13.05" {
		t.Fatalf("unexpected data %q", got)
	}
}

func TestFormatGrid(t *testing.T) {
	got := formatGrid("12.05", [][]string{{"a", "b"}, {}, {"c"}})
	want := "Данные из листа 12.05:\n\n1. a, b\n2. \n3. c\n"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"fits", "абв\nгд\n", 10, []string{"абв\nгд\n"}},
		{"breaks between lines", "абвг\nабвг\nабвг\n", 10, []string{"абвг\nабвг\n", "абвг\n"}},
		{"long line is cut", "абвгдежзик\n", 4, []string{"абвг", "дежз", "ик\n"}},
		{"empty", "", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMessage(tt.text, tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("want %q, got %q", tt.want, got)
			}
			for _, part := range got {
				if utf8.RuneCountInString(part) > tt.limit {
					t.Fatalf("part %q exceeds %d characters", part, tt.limit)
				}
			}
		})
	}
}

func TestAnswerCallbackFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	bot := &fakeBot{requestErr: errors.New("query is too old")}
	r := NewRouter(bot, zap.New(core), nil, &fakeSheets{}, session.NewManager(0, 0, nil))

	// A stale button with no chat only needs the callback answered.
	r.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: testUser},
		Data: "confirm:yes",
	}})

	if logs.FilterMessage("answer callback failed").Len() != 1 {
		t.Fatalf("want the failed answer logged, got %v", logs.All())
	}
}

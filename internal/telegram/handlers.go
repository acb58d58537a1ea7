package telegram

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/zeprog/absentee-table/internal/domain"
	"github.com/zeprog/absentee-table/internal/session"
	"github.com/zeprog/absentee-table/internal/sheets"
	"github.com/zeprog/absentee-table/internal/store"
)

// lookupUser returns the stored record, nil when the user has none.
func (r *Router) lookupUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := r.repo.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func (r *Router) begin(ctx context.Context, p peer, ev session.Event) bool {
	if err := r.sessions.Begin(ctx, p.userID, ev); err != nil {
		r.log.Error("begin flow failed", zap.Error(err), zap.Int64("userID", p.userID))
		r.sendText(p.chatID, fmt.Sprintf(genericErrFmt, err))
		return false
	}
	return true
}

func (r *Router) advance(ctx context.Context, p peer, ev session.Event) {
	if err := r.sessions.Advance(ctx, p.userID, ev); err != nil {
		r.log.Warn("advance flow failed", zap.Error(err), zap.Int64("userID", p.userID))
	}
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, p peer) {
	u, err := r.lookupUser(ctx, p.userID)
	if err != nil {
		r.log.Error("get user failed", zap.Error(err), zap.Int64("userID", p.userID))
		r.sendText(p.chatID, storeErrText)
		return
	}
	if u != nil {
		r.sendText(p.chatID, greetAgainText)
		return
	}
	if r.begin(ctx, p, session.EventChooseClass) {
		r.sendText(p.chatID, greetNewText)
	}
}

func (r *Router) handleChangeClass(ctx context.Context, p peer) {
	if r.begin(ctx, p, session.EventChooseClass) {
		r.sendText(p.chatID, askClassText)
	}
}

func (r *Router) handleSetReminder(ctx context.Context, p peer) {
	if r.begin(ctx, p, session.EventSetReminder) {
		r.askTime(p)
	}
}

func (r *Router) handleCancel(ctx context.Context, p peer) {
	snap := r.sessions.Get(p.userID)
	if snap.State == session.Idle {
		r.sendText(p.chatID, nothingText)
		return
	}
	r.retractPrompt(p.chatID, snap.PromptMessageID)
	r.advance(ctx, p, session.EventAbort)
	r.sendText(p.chatID, cancelledText)
}

// --- Class & reminder flow ---

func (r *Router) onClassText(ctx context.Context, p peer, text string) {
	class, err := domain.NormalizeClass(text)
	if err != nil {
		r.sendText(p.chatID, askClassText)
		return
	}
	// Persisted right away, before a reminder time is picked.
	if err := r.repo.SetClass(ctx, p.userID, p.username, class); err != nil {
		r.log.Error("set class failed", zap.Error(err), zap.Int64("userID", p.userID))
		r.sendText(p.chatID, storeErrText)
		return
	}
	r.log.Info("default class set", zap.Int64("userID", p.userID), zap.String("class", class))

	r.advance(ctx, p, session.EventClassEntered)
	r.sessions.Update(p.userID, func(s *session.Session) { s.PendingClass = class })

	r.sendText(p.chatID, fmt.Sprintf(classSetFmt, class))
	r.askTime(p)
}

func (r *Router) askTime(p peer) {
	id, err := r.sendKeyboard(p.chatID, askTimeText, timeKeyboard())
	if err != nil {
		return
	}
	r.sessions.Update(p.userID, func(s *session.Session) { s.PromptMessageID = id })
}

func (r *Router) onTimeText(ctx context.Context, p peer, text string) {
	t, err := domain.ParseReminderTime(text)
	if err != nil {
		r.sendText(p.chatID, badTimeText)
		return
	}
	r.setReminder(ctx, p, t, r.sessions.Get(p.userID).PromptMessageID)
}

func (r *Router) chooseTime(ctx context.Context, p peer, value string, promptID int) {
	t, err := domain.ParseReminderTime(value)
	if err != nil {
		r.sendText(p.chatID, badTimeText)
		return
	}
	r.setReminder(ctx, p, t, promptID)
}

// setReminder stores t with the staged class, falling back to the class on file.
func (r *Router) setReminder(ctx context.Context, p peer, t string, promptID int) {
	class := r.sessions.Get(p.userID).PendingClass
	if class == "" {
		u, err := r.lookupUser(ctx, p.userID)
		if err != nil {
			r.log.Error("get user failed", zap.Error(err), zap.Int64("userID", p.userID))
			r.sendText(p.chatID, storeErrText)
			return
		}
		if u.HasClass() {
			class = u.DefaultClass
		}
	}
	if class == "" {
		r.sendText(p.chatID, noClassText)
		return
	}

	if err := r.repo.SetReminder(ctx, p.userID, p.username, class, t); err != nil {
		r.log.Error("set reminder failed", zap.Error(err), zap.Int64("userID", p.userID))
		r.sendText(p.chatID, storeErrText)
		return
	}
	r.log.Info("reminder set", zap.Int64("userID", p.userID), zap.String("time", t))

	r.retractPrompt(p.chatID, promptID)
	r.advance(ctx, p, session.EventTimeChosen)
	r.sendText(p.chatID, fmt.Sprintf(reminderSetFmt, t))
}

// --- Daily confirmation & absence flow ---

func (r *Router) handleConfirmation(ctx context.Context, p peer, answer string) {
	if answer != confirmNo {
		r.sendText(p.chatID, thanksText)
		return
	}

	names := r.sheets.ListSheetNames(ctx)
	kb, n := sheetKeyboard(prefixAbsence, names)
	if n == 0 {
		r.sendText(p.chatID, noSheetsText)
		return
	}
	if !r.begin(ctx, p, session.EventDecline) {
		return
	}
	id, err := r.sendKeyboard(p.chatID, chooseSheetText, kb)
	if err != nil {
		return
	}
	r.sessions.Update(p.userID, func(s *session.Session) { s.PromptMessageID = id })
}

func (r *Router) chooseSheet(ctx context.Context, p peer, name string, promptID int) {
	r.advance(ctx, p, session.EventSheetChosen)
	r.sessions.Update(p.userID, func(s *session.Session) {
		s.PendingSheet = name
		s.PromptMessageID = 0
	})
	r.log.Info("sheet selected", zap.Int64("userID", p.userID), zap.String("sheet", name))

	r.retractPrompt(p.chatID, promptID)
	r.sendText(p.chatID, fmt.Sprintf(sheetChosenFmt, name))
}

func (r *Router) onAbsenteesText(ctx context.Context, p peer, text string) {
	snap := r.sessions.Get(p.userID)
	if snap.PendingSheet == "" {
		r.sendText(p.chatID, noSheetText)
		return
	}

	u, err := r.lookupUser(ctx, p.userID)
	if err != nil {
		r.log.Error("get user failed", zap.Error(err), zap.Int64("userID", p.userID))
		r.sendText(p.chatID, storeErrText)
		return
	}
	if !u.HasClass() {
		r.sendText(p.chatID, classMissingText)
		return
	}

	tokens := domain.SplitAbsentees(text)
	sheet, rng, err := sheets.RecordAbsences(ctx, r.sheets, snap.PendingSheet, u.DefaultClass, tokens)
	switch {
	case err == nil:
		r.log.Info("absences recorded",
			zap.Int64("userID", p.userID),
			zap.String("sheet", sheet),
			zap.String("range", rng),
			zap.Int("tokens", len(tokens)),
		)
		r.advance(ctx, p, session.EventAbsenteesRecorded)
		r.sendText(p.chatID, recordedText)

	case errors.Is(err, domain.ErrNoSheetCode):
		r.log.Warn("sheet label without code", zap.Error(err), zap.Int64("userID", p.userID))
		r.advance(ctx, p, session.EventAbort)
		r.sendText(p.chatID, fmt.Sprintf(genericErrFmt, err))

	case errors.Is(err, sheets.ErrClassNotFound):
		r.advance(ctx, p, session.EventAbort)
		r.sendText(p.chatID, fmt.Sprintf(classNotFoundFmt, u.DefaultClass))

	default:
		r.log.Error("update sheet failed", zap.Error(err), zap.Int64("userID", p.userID))
		r.advance(ctx, p, session.EventAbort)
		r.sendText(p.chatID, fmt.Sprintf(writeErrFmt, err))
	}
}

// --- /read ---

func (r *Router) handleRead(ctx context.Context, p peer) {
	class := classUnsetText
	u, err := r.lookupUser(ctx, p.userID)
	if err != nil {
		r.log.Warn("get user failed", zap.Error(err), zap.Int64("userID", p.userID))
	}
	if u.HasClass() {
		class = u.DefaultClass
	}

	kb, n := sheetKeyboard(prefixRead, r.sheets.ListSheetNames(ctx))
	if n == 0 {
		r.sendText(p.chatID, noSheetsText)
		return
	}
	_, _ = r.sendKeyboard(p.chatID, fmt.Sprintf(readChooseFmt, class), kb)
}

func (r *Router) displaySheet(ctx context.Context, p peer, sheet string) {
	grid, err := r.sheets.ReadRange(ctx, sheet, sheets.DisplayRange)
	if err != nil {
		r.log.Error("read sheet failed", zap.Error(err), zap.String("sheet", sheet))
		r.sendText(p.chatID, fmt.Sprintf(readErrFmt, err))
		return
	}
	if len(grid) == 0 {
		r.sendText(p.chatID, readEmptyText)
		return
	}
	for _, part := range splitMessage(formatGrid(sheet, grid), maxMessageLen) {
		r.sendText(p.chatID, part)
	}
}

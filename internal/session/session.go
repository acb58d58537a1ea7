package session

import (
	"context"

	"github.com/looplab/fsm"
)

// State is the input a user's conversation currently expects.
type State string

const (
	Idle                 State = "idle"
	AwaitingClass        State = "awaiting_class"
	AwaitingTime         State = "awaiting_time"
	AwaitingSheetChoice  State = "awaiting_sheet_choice"
	AwaitingAbsenteeList State = "awaiting_absentee_list"
)

// Event drives a transition between states.
type Event string

const (
	EventChooseClass       Event = "choose_class"
	EventClassEntered      Event = "class_entered"
	EventSetReminder       Event = "set_reminder"
	EventTimeChosen        Event = "time_chosen"
	EventDecline           Event = "decline"
	EventSheetChosen       Event = "sheet_chosen"
	EventAbsenteesRecorded Event = "absentees_recorded"
	EventAbort             Event = "abort"
)

var transitions = fsm.Events{
	{Name: string(EventChooseClass), Src: []string{string(Idle)}, Dst: string(AwaitingClass)},
	{Name: string(EventClassEntered), Src: []string{string(AwaitingClass)}, Dst: string(AwaitingTime)},
	{Name: string(EventSetReminder), Src: []string{string(Idle)}, Dst: string(AwaitingTime)},
	{Name: string(EventTimeChosen), Src: []string{string(AwaitingTime)}, Dst: string(Idle)},
	{Name: string(EventDecline), Src: []string{string(Idle)}, Dst: string(AwaitingSheetChoice)},
	{Name: string(EventSheetChosen), Src: []string{string(AwaitingSheetChoice)}, Dst: string(AwaitingAbsenteeList)},
	{Name: string(EventAbsenteesRecorded), Src: []string{string(AwaitingAbsenteeList)}, Dst: string(Idle)},
	{Name: string(EventAbort), Src: []string{
		string(AwaitingClass), string(AwaitingTime),
		string(AwaitingSheetChoice), string(AwaitingAbsenteeList),
	}, Dst: string(Idle)},
}

// Session is the transient scratch data of one in-flight flow.
type Session struct {
	PendingClass    string
	PendingSheet    string
	PromptMessageID int // last interactive prompt; 0 when none

	machine *fsm.FSM
}

func newSession() *Session {
	return &Session{machine: fsm.NewFSM(string(Idle), transitions, fsm.Callbacks{})}
}

// State returns the current state.
func (s *Session) State() State {
	if s == nil {
		return Idle
	}
	return State(s.machine.Current())
}

func (s *Session) fire(ctx context.Context, ev Event) error {
	return s.machine.Event(ctx, string(ev))
}

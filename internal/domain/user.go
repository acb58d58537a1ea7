package domain

import "time"

// User holds the stored preferences of a chat user.
type User struct {
	UserID       int64
	Username     string // informational only
	DefaultClass string // lower-cased; "" when unset
	ReminderTime string // HH:MM, "" when unset
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasClass reports whether a default class is on file.
func (u *User) HasClass() bool { return u != nil && u.DefaultClass != "" }

// HasReminder reports whether a reminder time is on file.
func (u *User) HasReminder() bool { return u != nil && u.ReminderTime != "" }

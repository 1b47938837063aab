package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Status represents a public post on the platform
type Status struct {
	ID         string
	Text       string
	ScreenName string // Author handle
	UserID     string // Author platform ID (used for follow)
	ChatID     string // Channel the post was seen in
	CreatedAt  time.Time
}

// DirectMessage represents a private message addressed to the bot
type DirectMessage struct {
	ID               string
	Text             string
	SenderScreenName string
	SenderID         string
	ChatID           string
	CreatedAt        time.Time
}

// EventKind tells which payload an Event carries
type EventKind string

const (
	EventKindStatus        EventKind = "status"
	EventKindDirectMessage EventKind = "direct_message"
)

// Event is a single item read from the platform stream
type Event struct {
	Kind          EventKind
	Status        *Status
	DirectMessage *DirectMessage
}

// ID returns the identifier of the carried payload
func (e Event) ID() string {
	switch e.Kind {
	case EventKindStatus:
		if e.Status != nil {
			return e.Status.ID
		}
	case EventKindDirectMessage:
		if e.DirectMessage != nil {
			return e.DirectMessage.ID
		}
	}
	return ""
}

var weekdays = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// BeepStatus formats the hourly beep, e.g. "BEEP BEEP! WE 17 14:00:00"
func BeepStatus(t time.Time) string {
	// time.Weekday starts on Sunday
	day := weekdays[(int(t.Weekday())+6)%7]
	return fmt.Sprintf("BEEP BEEP! %s %d %02d:%02d:00", day, t.Day(), t.Hour(), t.Minute())
}

// alarmReplyLimit is the length the alarm reply is padded towards
const alarmReplyLimit = 130

// AlarmReply formats the reply sent when an alarm fires
func AlarmReply(screenName string) string {
	status := "@" + screenName
	for utf8.RuneCountInString(status) < alarmReplyLimit {
		status += " BEEP BEEP!"
	}
	return status
}

// HornStatus formats the ferry horn with n en-space suffixes so that
// consecutive posts never carry identical text
func HornStatus(text string, n int) string {
	return text + strings.Repeat("\u2002", n)
}

package domain

import (
	"fmt"
	"slices"
)

// AlarmTime is a wall-clock time of day in the bot's timezone
type AlarmTime struct {
	Hour   int
	Minute int
}

// Key returns the zero-padded "HH:MM" alarm key
func (t AlarmTime) Key() string {
	return AlarmKey(t.Hour, t.Minute)
}

// AlarmKey formats hour and minute as "HH:MM"
func AlarmKey(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// AlarmRequest is one requester waiting for an alarm
type AlarmRequest struct {
	MessageID  string // Mention that asked for the alarm, replied to when it fires
	ScreenName string
}

// BotState is the persisted per-bot configuration
type BotState struct {
	Terms       []string
	Chance      int
	Admins      []string
	Alarms      map[string]map[string]string // "HH:MM" -> message ID -> screen name
	LastMention string
}

// NewBotState returns an empty state
func NewBotState() *BotState {
	return &BotState{
		Alarms: make(map[string]map[string]string),
	}
}

// Clone returns a deep copy
func (s *BotState) Clone() *BotState {
	c := &BotState{
		Terms:       slices.Clone(s.Terms),
		Chance:      s.Chance,
		Admins:      slices.Clone(s.Admins),
		Alarms:      make(map[string]map[string]string, len(s.Alarms)),
		LastMention: s.LastMention,
	}
	for key, reqs := range s.Alarms {
		m := make(map[string]string, len(reqs))
		for id, name := range reqs {
			m[id] = name
		}
		c.Alarms[key] = m
	}
	return c
}

// IsAdmin checks the admin allow-list
func (s *BotState) IsAdmin(screenName string) bool {
	return slices.Contains(s.Admins, screenName)
}

// HasTerm checks term membership
func (s *BotState) HasTerm(term string) bool {
	return slices.Contains(s.Terms, term)
}

// AddTerm appends the term if absent and reports whether it was added
func (s *BotState) AddTerm(term string) bool {
	if s.HasTerm(term) {
		return false
	}
	s.Terms = append(s.Terms, term)
	return true
}

// RemoveTerm deletes the term if present and reports whether it was removed
func (s *BotState) RemoveTerm(term string) bool {
	i := slices.Index(s.Terms, term)
	if i < 0 {
		return false
	}
	s.Terms = slices.Delete(s.Terms, i, i+1)
	return true
}

// AddAlarm registers a requester under the alarm key
func (s *BotState) AddAlarm(key, messageID, screenName string) {
	if s.Alarms == nil {
		s.Alarms = make(map[string]map[string]string)
	}
	if s.Alarms[key] == nil {
		s.Alarms[key] = make(map[string]string)
	}
	s.Alarms[key][messageID] = screenName
}

// TakeAlarms removes and returns all requesters under the key.
// Requests are ordered by message ID.
func (s *BotState) TakeAlarms(key string) []AlarmRequest {
	reqs, ok := s.Alarms[key]
	if !ok {
		return nil
	}
	delete(s.Alarms, key)

	ids := make([]string, 0, len(reqs))
	for id := range reqs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	result := make([]AlarmRequest, 0, len(ids))
	for _, id := range ids {
		result = append(result, AlarmRequest{MessageID: id, ScreenName: reqs[id]})
	}
	return result
}

// Package server keeps the in-memory chat history replayed to new joiners
// via the History type.
package server

import "time"

// Clock supplies the current time. Injectable so tests can pin timestamps.
type Clock func() time.Time

// DateFormatter renders a message timestamp into the wire format's date
// string.
type DateFormatter func(time.Time) string

// LocaleDate is the default DateFormatter: a short en-US style date, e.g.
// "9/1/2026".
func LocaleDate(t time.Time) string {
	return t.Format("1/2/2006")
}

// History is the append-only, process-lifetime chat log. Like the Registry
// it is owned by the hub goroutine and needs no locking.
type History struct {
	clock    Clock
	format   DateFormatter
	messages []ChatMessage
}

// NewHistory returns an empty History. A nil clock defaults to time.Now and
// a nil format to LocaleDate.
func NewHistory(clock Clock, format DateFormatter) *History {
	if clock == nil {
		clock = time.Now
	}
	if format == nil {
		format = LocaleDate
	}
	return &History{clock: clock, format: format}
}

// Append stamps a new chat message with the current date, stores it, and
// returns the stored envelope. Messages are kept in append order and never
// removed.
func (h *History) Append(username, text string) ChatMessage {
	message := ChatMessage{
		Header:   HeaderNewMessage,
		Username: username,
		Text:     text,
		Date:     h.format(h.clock()),
	}
	h.messages = append(h.messages, message)
	return message
}

// Snapshot returns a copy of the full history in append order.
func (h *History) Snapshot() []ChatMessage {
	snapshot := make([]ChatMessage, len(h.messages))
	copy(snapshot, h.messages)
	return snapshot
}

// Len reports the number of stored messages.
func (h *History) Len() int {
	return len(h.messages)
}

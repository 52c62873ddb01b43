package models

import (
	"regexp"
	"time"
)

var utcInstantPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z$`)

// ValidUTCInstant reports whether s is an ISO-8601 instant with a Z
// suffix that names a real point in time. Both Message.Timestamp and the
// since filter use this format.
func ValidUTCInstant(s string) bool {
	if !utcInstantPattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

// Message is a stored webhook message. Timestamps are kept as the
// ISO-8601 UTC strings the sender supplied so they sort lexically.
type Message struct {
	ID         string  `json:"message_id"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	Timestamp  string  `json:"ts"`
	Text       *string `json:"text"`
	ReceivedAt string  `json:"-"` // server-assigned, audit only
}

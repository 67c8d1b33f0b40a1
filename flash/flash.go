// Package flash keeps short notifications for the user, grouped by the part
// of the interface that raised them.
package flash

import (
	"sync"

	"github.com/BenB289/BMGPanel/client"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Type is the severity of a message.
type Type string

const (
	Error   Type = "error"
	Warning Type = "warning"
	Success Type = "success"
	Info    Type = "info"
)

// Message is a single notification.
type Message struct {
	Key     string
	Type    Type
	Title   string
	Message string
}

// Store holds messages by key. The zero value is ready to use.
type Store struct {
	mu       sync.Mutex
	messages []Message
}

// Add appends a message.
func (s *Store) Add(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// Clear removes every message for key. An empty key clears all messages.
func (s *Store) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == "" {
		s.messages = nil
		return
	}
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.Key != key {
			kept = append(kept, m)
		}
	}
	s.messages = kept
}

// ClearAndAddHTTPError replaces the messages for key with one describing err.
func (s *Store) ClearAndAddHTTPError(key string, err error) {
	log.WithField("key", key).WithError(err).Warn("Request to the panel failed.")

	s.Clear(key)
	s.Add(Message{
		Key:     key,
		Type:    Error,
		Title:   "Error",
		Message: HumanError(err),
	})
}

// Messages returns the messages for key in the order they were added.
func (s *Store) Messages(key string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Message
	for _, m := range s.messages {
		if m.Key == key {
			out = append(out, m)
		}
	}
	return out
}

// HumanError returns the message a user should see for err.
func HumanError(err error) string {
	var re *client.RequestError
	if errors.As(err, &re) {
		if re.Detail != "" {
			return re.Detail
		}
		return re.Error()
	}
	return errors.Cause(err).Error()
}

package torch

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds
const (
	NotifyDeviceUnavailable = "device_unavailable"
	NotifyNoDeviceFound     = "no_device_found"
)

// Notification is a user-visible, dismissible error.
type Notification struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raised_at"`
}

func newNotification(kind, message string) Notification {
	return Notification{
		ID:       uuid.NewString(),
		Kind:     kind,
		Message:  message,
		RaisedAt: time.Now(),
	}
}

// raise records n and announces it to watchers. A kind is held at most
// once: raising an active kind refreshes that entry instead of adding one.
func (s *Session) raise(n Notification) {
	s.notifyMu.Lock()
	active := false
	for i := range s.notifications {
		if s.notifications[i].Kind == n.Kind {
			s.notifications[i].Message = n.Message
			s.notifications[i].RaisedAt = n.RaisedAt
			n = s.notifications[i]
			active = true
			break
		}
	}
	if !active {
		s.notifications = append(s.notifications, n)
	}
	s.notifyMu.Unlock()

	s.publish(Update{
		Type:         UpdateNotification,
		State:        s.State(),
		Notification: &n,
		Timestamp:    n.RaisedAt,
	})
}

// Notifications returns the notifications not yet dismissed, oldest first
func (s *Session) Notifications() []Notification {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// Dismiss removes a notification by ID
func (s *Session) Dismiss(id string) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return ErrNotificationNotFound
}

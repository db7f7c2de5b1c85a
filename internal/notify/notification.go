// Package notify delivers appointment messages to residents through the notifications service.
package notify

import (
	"time"

	"agecare/appointments/internal/domain"
)

const ChannelEmail = "EMAIL"

// Notification is the payload accepted by the notifications service.
type Notification struct {
	EventID  string `json:"eventId,omitempty"`
	UserID   int64  `json:"userId"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	SentDate string `json:"sentDate"`
}

func newNotification(residentID int64, message string, now time.Time) Notification {
	return Notification{
		UserID:   residentID,
		Type:     ChannelEmail,
		Message:  message,
		SentDate: domain.DateOf(now).String(),
	}
}

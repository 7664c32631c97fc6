package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace-messaging/models"
	"marketplace-messaging/observability"
	"marketplace-messaging/utils"
)

// sendTimeout bounds a single alert delivery
const sendTimeout = 45 * time.Second

// EmailAlerter emails the recipient of a freshly persisted notification.
// Delivery failures are logged and never reach the caller.
type EmailAlerter struct {
	mailer utils.Mailer
}

// NewEmailAlerter returns an alerter sending through mailer
func NewEmailAlerter(mailer utils.Mailer) *EmailAlerter {
	return &EmailAlerter{mailer: mailer}
}

func cErr(tag string, err error, args ...any) {
	if err != nil {
		observability.Logger().Error(tag, append(args, "error", err)...)
	}
}

// NotificationCreated implements messaging.Alerter
func (a *EmailAlerter) NotificationCreated(recipient models.Counterpart, n models.Notification) {
	log := observability.WithFields(
		"notification_id", n.ID.Hex(),
		"recipient_id", recipient.ID.Hex(),
	)
	if recipient.Email == "" {
		log.Debug("recipient has no email, skipping alert")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	subject, data := compose(recipient, n)
	err := send(ctx, a.mailer, recipient.Email, subject, data)
	cErr("err_send_notification_mail", err,
		"notification_id", n.ID.Hex(),
		"recipient_id", recipient.ID.Hex())
	if err == nil {
		log.Info("notification email sent")
	}
}

func compose(recipient models.Counterpart, n models.Notification) (string, MessageEmailData) {
	data := MessageEmailData{
		Name:    recipient.Name,
		Title:   n.Title,
		Preview: n.Body,
	}
	if data.Name == "" {
		data.Name = "there"
	}

	if n.Type != models.MessageN {
		return genericSubject, data
	}

	from := strings.TrimPrefix(n.Title, "New message from ")
	data.Footer = fmt.Sprintf(conversationLinkFormat, from)
	return fmt.Sprintf(newMessageSubject, from), data
}

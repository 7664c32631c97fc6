package notifications

var (
	newMessageSubject      = "%s sent you a message"
	genericSubject         = "You have a new notification"
	conversationLinkFormat = "Open your inbox to reply to %s."
)

package notifications

import (
	"context"
	"html/template"

	"marketplace-messaging/utils"
)

// MessageEmailData is rendered into the new message email
type MessageEmailData struct {
	Name    string
	Title   string
	Preview string
	Footer  string
}

var messageTemplate = template.Must(template.New("new_message.html").Parse(`<!DOCTYPE html>
<html>
  <body>
    <p>Hi {{.Name}},</p>
    <p><strong>{{.Title}}</strong></p>
    <blockquote>{{.Preview}}</blockquote>
    <p>{{.Footer}}</p>
  </body>
</html>
`))

func send(ctx context.Context, mailer utils.Mailer, to, subject string, data interface{}) error {
	return mailer.Send(ctx, utils.EmailData{
		Title:       subject,
		ContentData: data,
		EmailTo:     to,
		Template:    messageTemplate,
	})
}

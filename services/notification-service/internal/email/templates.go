package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/md-rashed-zaman/apptbook/libs/events"
)

type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindCancellation Kind = "cancellation"
)

const (
	dateLayout = "Monday, January 2, 2006"
	timeLayout = "03:04 PM"
)

type templateData struct {
	Name    string
	Service string
	Date    string
	Start   string
	End     string
}

const htmlLayout = `<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h1>{{.Title}}</h1>
      <p>Hi {{.Data.Name}},</p>
      <p>{{.Lead}}</p>
      <div style="background: #fff; padding: 15px; border-left: 4px solid #667eea;">
        <strong>Service:</strong> {{.Data.Service}}<br>
        <strong>Date:</strong> {{.Data.Date}}<br>
        <strong>Time:</strong> {{.Data.Start}}{{if .Data.End}} - {{.Data.End}}{{end}}
      </div>
      <p>{{.Closing}}</p>
      <p style="color: #6b7280; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
  </body>
</html>`

var layout = template.Must(template.New("layout").Parse(htmlLayout))

type htmlView struct {
	Title   string
	Lead    string
	Closing string
	Data    templateData
}

var templates = map[Kind]struct {
	subject string
	title   string
	lead    string
	closing string
	text    *texttemplate.Template
}{
	KindConfirmation: {
		subject: "Appointment Confirmation",
		title:   "Appointment Confirmed!",
		lead:    "Your appointment has been confirmed. We look forward to seeing you!",
		closing: "If you need to cancel or reschedule, please contact us as soon as possible.",
		text: texttemplate.Must(texttemplate.New("confirmation").Parse(
			"Hi {{.Name}},\n\nYour appointment has been confirmed.\n\n" +
				"Service: {{.Service}}\nDate: {{.Date}}\nTime: {{.Start}} - {{.End}}\n\n" +
				"If you need to cancel or reschedule, please contact us as soon as possible.\n")),
	},
	KindCancellation: {
		subject: "Appointment Cancelled",
		title:   "Appointment Cancelled",
		lead:    "Your appointment has been cancelled.",
		closing: "We hope to see you again soon. You can book a new appointment at any time.",
		text: texttemplate.Must(texttemplate.New("cancellation").Parse(
			"Hi {{.Name}},\n\nYour appointment has been cancelled.\n\n" +
				"Service: {{.Service}}\nDate: {{.Date}}\nTime: {{.Start}}\n\n" +
				"We hope to see you again soon.\n")),
	},
}

// Render builds the email for notice. Dates and times are shown in the
// notice's timezone.
func Render(kind Kind, notice events.AppointmentNotice) (Message, error) {
	tpl, ok := templates[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown email kind %q", kind)
	}
	loc := notice.Location()
	start := notice.StartTime.In(loc)
	data := templateData{
		Name:    notice.RecipientName,
		Service: notice.ServiceName,
		Date:    start.Format(dateLayout),
		Start:   start.Format(timeLayout),
	}
	if strings.TrimSpace(data.Name) == "" {
		data.Name = "there"
	}
	if kind == KindConfirmation && notice.EndTime != nil {
		data.End = notice.EndTime.In(loc).Format(timeLayout)
	}

	var text, html bytes.Buffer
	if err := tpl.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	view := htmlView{Title: tpl.title, Lead: tpl.lead, Closing: tpl.closing, Data: data}
	if err := layout.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", kind, err)
	}
	return Message{
		To:      notice.RecipientEmail,
		ToName:  notice.RecipientName,
		Subject: tpl.subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

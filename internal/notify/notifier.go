package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/observability"
)

var (
	contactAdminTmpl = template.Must(template.New("contact_admin").Parse(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>New Contact Form Submission</h2>
    <p><strong>Name/Company:</strong> {{.Name}}</p>
    <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
    <p><strong>Phone:</strong> {{.Phone}}</p>
    <p><strong>Service Interested:</strong> {{.Service}}</p>
    <p><strong>Comment:</strong></p>
    <p>{{if .Comment}}{{.Comment}}{{else}}No comment provided{{end}}</p>
    <p style="font-size: 12px; color: #666;">Please respond to the customer at: <a href="mailto:{{.Email}}">{{.Email}}</a></p>
  </body>
</html>
`))

	contactReplyTmpl = template.Must(template.New("contact_reply").Parse(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <p>Dear {{.Name}},</p>
    <p>Thank you for contacting MITA ICT about {{.Service}}. We have received your message and will get back to you soon.</p>
    <p>Kind regards,<br>MITA ICT</p>
  </body>
</html>
`))

	meetingAdminTmpl = template.Must(template.New("meeting_admin").Parse(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>New Meeting Request</h2>
    <p><strong>Name:</strong> {{.Name}}</p>
    <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
    <p><strong>Preferred time:</strong> {{.PreferredDatetime}}</p>
    <p><strong>Topic:</strong> {{.Topic}}</p>
    <p style="font-size: 12px; color: #666;">Booked by the website assistant in chat session {{.SessionID}}.</p>
  </body>
</html>
`))
)

// Notifier turns site events into email for the admin and, for contact
// submissions, an auto-reply to the visitor.
type Notifier struct {
	mailer     Mailer
	adminEmail string
	autoReply  bool
}

type Option func(*Notifier)

// WithoutAutoReply disables the visitor auto-reply.
func WithoutAutoReply() Option {
	return func(n *Notifier) { n.autoReply = false }
}

func New(mailer Mailer, adminEmail string, opts ...Option) *Notifier {
	n := &Notifier{mailer: mailer, adminEmail: adminEmail, autoReply: true}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Handle sends the mail for event. Unknown event types are ignored.
func (n *Notifier) Handle(ctx context.Context, event *domain.Event) error {
	switch event.Type {
	case domain.EventContactSubmitted:
		var contact domain.Contact
		if err := event.Decode(&contact); err != nil {
			return err
		}
		return n.contactSubmitted(ctx, &contact)
	case domain.EventMeetingRequested:
		var meeting domain.MeetingRequest
		if err := event.Decode(&meeting); err != nil {
			return err
		}
		return n.meetingRequested(ctx, &meeting)
	default:
		observability.FromContext(ctx).Debug("ignoring event", "type", event.Type)
		return nil
	}
}

func (n *Notifier) contactSubmitted(ctx context.Context, c *domain.Contact) error {
	html, err := render(contactAdminTmpl, c)
	if err != nil {
		return err
	}
	err = n.send(ctx, Mail{
		To:      []string{n.adminEmail},
		ReplyTo: c.Email,
		Subject: "New Contact Form Submission from " + c.Name,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	if !n.autoReply || c.Email == "" {
		return nil
	}
	html, err = render(contactReplyTmpl, c)
	if err != nil {
		return err
	}
	return n.send(ctx, Mail{
		To:      []string{c.Email},
		Subject: "Thank you for contacting MITA ICT",
		HTML:    html,
	})
}

func (n *Notifier) meetingRequested(ctx context.Context, m *domain.MeetingRequest) error {
	html, err := render(meetingAdminTmpl, m)
	if err != nil {
		return err
	}
	return n.send(ctx, Mail{
		To:      []string{n.adminEmail},
		ReplyTo: m.Email,
		Subject: "New Meeting Request from " + m.Name,
		HTML:    html,
	})
}

func (n *Notifier) send(ctx context.Context, m Mail) error {
	if err := n.mailer.Send(ctx, m); err != nil {
		observability.NotificationsSent.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to send %q: %w", m.Subject, err)
	}
	observability.NotificationsSent.WithLabelValues("sent").Inc()
	observability.FromContext(ctx).Info("notification sent", "subject", m.Subject, "to", m.To)
	return nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

package emailsvc

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/escola/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// SendgridService mails notifications to the configured alert recipients.
type SendgridService struct {
	key        string
	host       string
	appName    string
	from       *sgmail.Email
	to         []mail.Address
	subjPrefix string
}

var _ core.Notifier = (*SendgridService)(nil)

func NewSendgridService(conf *core.Config) *SendgridService {
	from := conf.DefaultFromEmail()
	return &SendgridService{
		key:        conf.SendgridApiKey,
		host:       host,
		appName:    conf.AppName,
		from:       sgmail.NewEmail(from.Name, from.Address),
		to:         parseRecipients(conf.Email.AlertRecipients),
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc *SendgridService) Enabled() bool {
	return svc.key != "" && len(svc.to) > 0
}

func (svc *SendgridService) Notify(ctx context.Context, n core.Notification) error {
	if !svc.Enabled() {
		return core.ErrNotifierDisabled
	}
	msg := notificationMessage(n, svc.to)
	if err := msg.Render(svc.appName); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	return svc.send(ctx, msg)
}

func (svc *SendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject

	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func (svc *SendgridService) send(ctx context.Context, msg core.EmailMessage) error {
	req := sendgrid.GetRequest(svc.key, endpoint, svc.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sending email")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}
	return nil
}

// notificationMessage renders n with the low_attendance email template.
func notificationMessage(n core.Notification, to []mail.Address) core.EmailMessage {
	return core.EmailMessage{
		To:           to,
		Subject:      n.Title,
		TemplateName: "low_attendance",
		TemplateData: n,
	}
}

func parseRecipients(addrs []string) []mail.Address {
	recipients := make([]mail.Address, 0, len(addrs))
	for _, a := range addrs {
		if addr, err := mail.ParseAddress(a); err == nil {
			recipients = append(recipients, *addr)
		}
	}
	return recipients
}

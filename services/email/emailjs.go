package emailsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/escola/core"
)

type emailJSPayload struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams core.Notification `json:"template_params"`
}

// EmailJSService relays notifications through the EmailJS REST API.
type EmailJSService struct {
	conf   core.EmailJSConfig
	client *rest.Client
	logger core.Logger
}

var _ core.Notifier = (*EmailJSService)(nil)

func NewEmailJSService(conf core.EmailJSConfig, client *http.Client, logger core.Logger) *EmailJSService {
	if client == nil {
		client = http.DefaultClient
	}
	return &EmailJSService{conf: conf, client: &rest.Client{HTTPClient: client}, logger: logger}
}

func (svc *EmailJSService) Enabled() bool {
	return svc.conf.Configured()
}

// Notify posts n as the template params. Without credentials it only logs a warning.
func (svc *EmailJSService) Notify(ctx context.Context, n core.Notification) error {
	if !svc.Enabled() {
		svc.logger.Warn("EmailJS não configurado. Alerta não enviado.")
		return nil
	}

	body, err := json.Marshal(emailJSPayload{
		ServiceID:      svc.conf.ServiceID,
		TemplateID:     svc.conf.TemplateID,
		UserID:         svc.conf.PublicKey,
		AccessToken:    svc.conf.PrivateKey,
		TemplateParams: n,
	})
	if err != nil {
		return errors.Wrap(err, "encoding emailjs payload")
	}

	res, err := svc.client.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: svc.conf.Endpoint,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
	if err != nil {
		return errors.Wrap(err, "sending emailjs notification")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("emailjs - status: %d - body: %s", res.StatusCode, strings.TrimSpace(res.Body))
	}
	return nil
}

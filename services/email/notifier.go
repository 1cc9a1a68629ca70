package emailsvc

import (
	"net/http"

	"github.com/trezcool/escola/core"
)

// NewNotifier returns the notifier selected by notifications.transport (emailjs by default).
func NewNotifier(conf *core.Config, logger core.Logger) core.Notifier {
	switch conf.Notifications.Transport {
	case "sendgrid":
		return NewSendgridService(conf)
	case "console":
		return NewConsoleService(conf, nil)
	default:
		client := &http.Client{Timeout: conf.Client.Timeout}
		return NewEmailJSService(conf.EmailJS, client, logger)
	}
}

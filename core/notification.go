package core

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const (
	ContextLowAttendance = "frequencia_baixa"
	NoReplyEmail         = "nao-responder@sistema-escolar.com"
)

var ErrNotifierDisabled = errors.New("notificações não configuradas")

type (
	// Notification is the payload handed to the notification relay (EmailJS template params).
	Notification struct {
		Name       string  `json:"name"`
		Email      string  `json:"email"`
		Message    string  `json:"message"`
		Title      string  `json:"title"`
		Time       string  `json:"time"`
		Context    string  `json:"context"`
		Frequencia float64 `json:"frequencia"`
		Notas      string  `json:"notas"`
	}

	// Notifier is any service that can relay a Notification.
	Notifier interface {
		// Enabled reports whether the notifier has everything it needs to send.
		Enabled() bool
		Notify(ctx context.Context, n Notification) error
	}
)

// NewLowAttendanceNotification builds the alert sent when a student is registered below the attendance threshold.
func NewLowAttendanceNotification(nome string, frequencia float64, notas []float64, threshold float64, now time.Time) Notification {
	return Notification{
		Name:  nome,
		Email: NoReplyEmail,
		Message: fmt.Sprintf(
			"Aluno %s cadastrado com frequência de %s%% (abaixo de %s%%).",
			nome, FormatNumber(frequencia), FormatNumber(threshold),
		),
		Title:      "Alerta: frequência baixa de " + nome,
		Time:       now.Format("02/01/2006 15:04:05"),
		Context:    ContextLowAttendance,
		Frequencia: frequencia,
		Notas:      JoinNumbers(notas),
	}
}

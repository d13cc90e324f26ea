package notifier

import (
	"gopkg.in/gomail.v2"
)

// EmailNotifier sends the alert over SMTP to the academy's intake inbox.
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

func NewEmail(cfg EmailConfig) *EmailNotifier {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &EmailNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   from,
		to:     cfg.To,
	}
}

func (e *EmailNotifier) Notify(subject, message string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", e.to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", message)
	return e.dialer.DialAndSend(m)
}

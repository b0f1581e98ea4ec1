package email

import (
	"fmt"

	"CoPenny/pkg/logger"

	gomail "gopkg.in/gomail.v2"
)

// Sender delivers alert notifications over SMTP. Disabled (no-op with a
// warning) when credentials are not configured.
type Sender struct {
	host string
	port int
	user string
	pass string
	from string
	log  *logger.Logger
}

// NewSender creates an SMTP sender.
func NewSender(host string, port int, user, pass, from string, log *logger.Logger) *Sender {
	if from == "" {
		from = user
	}
	return &Sender{
		host: host,
		port: port,
		user: user,
		pass: pass,
		from: from,
		log:  log,
	}
}

// Enabled reports whether credentials are configured.
func (s *Sender) Enabled() bool {
	return s.user != "" && s.pass != ""
}

// Send delivers one plain-text message.
func (s *Sender) Send(to, subject, body string) error {
	if !s.Enabled() {
		if s.log != nil {
			s.log.Warn("email disabled: smtp user or password not set")
		}
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if s.log != nil {
		s.log.Info("email sent", logger.String("to", to), logger.String("subject", subject))
	}
	return nil
}

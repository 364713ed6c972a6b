package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Sender define o contrato do colaborador de notificação.
// O core só precisa disto: entregar um texto a um destinatário.
type Sender interface {
	Send(recipient, subject, body string) error
}

// SMTPConfig agrupa as credenciais do servidor de e-mail.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// SMTPSender é a implementação concreta da interface Sender via SMTP.
type SMTPSender struct {
	config SMTPConfig
	auth   smtp.Auth
}

// NewSMTPSender cria um novo remetente SMTP.
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	var auth smtp.Auth
	if config.User != "" && config.Pass != "" {
		auth = smtp.PlainAuth("", config.User, config.Pass, config.Host)
	}
	return &SMTPSender{config: config, auth: auth}
}

// Send monta a mensagem e a entrega via servidor SMTP configurado.
func (s *SMTPSender) Send(recipient, subject, body string) error {
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", s.config.From),
		fmt.Sprintf("To: %s", recipient),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	addr := s.config.Host + ":" + s.config.Port
	if err := smtp.SendMail(addr, s.auth, s.config.From, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("falha ao enviar e-mail para %s: %w", recipient, err)
	}
	return nil
}

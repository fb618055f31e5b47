package auth

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"classcapture-api/models"
	"classcapture-api/utils"
)

// LoadEmailConfig loads email configuration from environment
func LoadEmailConfig() *models.EmailConfig {
	return &models.EmailConfig{
		SMTPHost:    utils.GetEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:    utils.GetEnvInt("SMTP_PORT", 465),
		Username:    utils.GetEnvOrDefault("SMTP_USERNAME", ""),
		Password:    utils.GetEnvOrDefault("SMTP_PASSWORD", ""),
		FromAddress: utils.GetEnvOrDefault("FROM_EMAIL", "noreply@classcapture.app"),
		FromName:    utils.GetEnvOrDefault("FROM_NAME", "ClassCapture"),
		BaseURL:     utils.GetEnvOrDefault("BASE_URL", "http://localhost:8080"),
	}
}

// EmailService handles email sending
type EmailService struct {
	config *models.EmailConfig
}

func NewEmailService(config *models.EmailConfig) *EmailService {
	return &EmailService{config: config}
}

// BuildWelcomeEmail composes the message queued right after registration.
func (es *EmailService) BuildWelcomeEmail(user *models.User) (string, string) {
	subject := "Welcome to ClassCapture"
	body := fmt.Sprintf(`Hello %s,

Your ClassCapture account is ready.

Upload a photo of your handwritten notes or a whiteboard and we'll turn it
into a clean summary and a quick quiz. Everything you save lands in your
study library at %s.

Happy studying,
The ClassCapture Team`, user.Username, es.config.BaseURL)

	return subject, body
}

// SendEmail delivers a message, or logs it when SMTP isn't configured so
// development setups never need a mail server.
func (es *EmailService) SendEmail(to, subject, body string) error {
	if es.config.SMTPHost == "" || es.config.Username == "" || es.config.Password == "" {
		utils.LogInfo("SMTP not configured, logging email instead")
		utils.LogInfo("=== EMAIL ===")
		utils.LogInfo("To: %s", to)
		utils.LogInfo("Subject: %s", subject)
		utils.LogInfo("Body: %s", body)
		utils.LogInfo("=============")
		return nil
	}

	return es.sendEmail(to, subject, body)
}

// sendEmail sends an email using SMTP with SSL support
func (es *EmailService) sendEmail(to, subject, body string) error {
	utils.LogInfo("Sending email to %s: %s", to, subject)

	message := fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", es.config.FromName, es.config.FromAddress, to, subject, body)

	// Port 465 is implicit SSL; 587/25 start plain and upgrade via STARTTLS.
	addr := fmt.Sprintf("%s:%d", es.config.SMTPHost, es.config.SMTPPort)

	var conn net.Conn
	var err error

	if es.config.SMTPPort == 465 {
		utils.LogDebug("Connecting to SMTP server %s with SSL", addr)
		tlsConfig := &tls.Config{
			ServerName: es.config.SMTPHost,
		}
		conn, err = tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			utils.LogError("Failed to establish SSL connection to %s: %v", addr, err)
			return err
		}
	} else {
		utils.LogDebug("Connecting to SMTP server %s (plain)", addr)
		conn, err = net.Dial("tcp", addr)
		if err != nil {
			utils.LogError("Failed to connect to %s: %v", addr, err)
			return err
		}
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, es.config.SMTPHost)
	if err != nil {
		utils.LogError("Failed to create SMTP client: %v", err)
		return err
	}
	defer client.Quit()

	if es.config.SMTPPort != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			tlsConfig := &tls.Config{
				ServerName: es.config.SMTPHost,
			}
			if err = client.StartTLS(tlsConfig); err != nil {
				utils.LogError("Failed to start TLS: %v", err)
				return err
			}
			utils.LogDebug("STARTTLS initiated successfully")
		}
	}

	smtpAuth := smtp.PlainAuth("", es.config.Username, es.config.Password, es.config.SMTPHost)
	if err = client.Auth(smtpAuth); err != nil {
		utils.LogError("SMTP authentication failed: %v", err)
		return err
	}

	if err = client.Mail(es.config.FromAddress); err != nil {
		utils.LogError("Failed to set sender: %v", err)
		return err
	}

	if err = client.Rcpt(to); err != nil {
		utils.LogError("Failed to set recipient: %v", err)
		return err
	}

	writer, err := client.Data()
	if err != nil {
		utils.LogError("Failed to open data writer: %v", err)
		return err
	}
	defer writer.Close()

	if _, err = writer.Write([]byte(message)); err != nil {
		utils.LogError("Failed to write message: %v", err)
		return err
	}

	utils.LogInfo("Email sent successfully to %s", to)
	return nil
}

// Package mailer sends lead and appointment confirmation emails.
package mailer

import (
	"fmt"
	"net/smtp"
	"os"

	"go.uber.org/zap"

	"github.com/metalogics/leadchat/internal/models"
)

// Mailer sends confirmation emails. Send failures never fail the operation
// that triggered them; callers log and move on.
type Mailer interface {
	SendLeadConfirmation(lead *models.Lead) error
	SendAppointmentConfirmation(lead *models.Lead) error
}

// SMTPMailer sends mail over plain SMTP with optional auth. Credentials come
// from SMTP_USER / SMTP_PASSWORD environment variables.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPMailer creates a mailer for the given host/port and From address.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	var auth smtp.Auth
	if user := os.Getenv("SMTP_USER"); user != "" {
		auth = smtp.PlainAuth("", user, os.Getenv("SMTP_PASSWORD"), host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
		auth: auth,
	}
}

// SendLeadConfirmation emails the lead a thank-you note.
func (m *SMTPMailer) SendLeadConfirmation(lead *models.Lead) error {
	company := lead.Company
	if company == "" {
		company = "your organization"
	}
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nThank you for your interest in Metalogics. Our team will reach out shortly to discuss how we can help %s.\r\n\r\nBest regards,\r\nThe Metalogics Team\r\n",
		lead.Name, company)
	return m.send(lead.Email, "Thank you for your interest in Metalogics", body)
}

// SendAppointmentConfirmation emails the lead their consultation details.
func (m *SMTPMailer) SendAppointmentConfirmation(lead *models.Lead) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour consultation with Metalogics is confirmed for %s at %s.\r\n\r\nBest regards,\r\nThe Metalogics Team\r\n",
		lead.Name, lead.AppointmentDate, lead.AppointmentTime)
	return m.send(lead.Email, "Appointment Confirmation - Metalogics Consultation", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer logs instead of sending. Used when no SMTP host is configured.
type LogMailer struct {
	Logger *zap.Logger
}

// SendLeadConfirmation logs the would-be confirmation.
func (m *LogMailer) SendLeadConfirmation(lead *models.Lead) error {
	m.Logger.Info("lead confirmation email skipped, no SMTP configured",
		zap.String("email", lead.Email))
	return nil
}

// SendAppointmentConfirmation logs the would-be confirmation.
func (m *LogMailer) SendAppointmentConfirmation(lead *models.Lead) error {
	m.Logger.Info("appointment confirmation email skipped, no SMTP configured",
		zap.String("email", lead.Email),
		zap.String("date", lead.AppointmentDate),
		zap.String("time", lead.AppointmentTime))
	return nil
}

package services

import (
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"

	"expertgate/internal/models"
)

type EmailService interface {
	SendResetCode(email, code string, ttl time.Duration) error
	SendExpertSignupAdminNotice(to string, s models.ExpertSignup) error
	SendExpertSignupReceived(s models.ExpertSignup) error
	SendExpertVerified(v models.ExpertVerification) error
	SendSupportTicket(to string, t models.SupportTicket) error
}

// mailSender is satisfied by *gomail.Dialer.
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer     mailSender
	from       string
	appBaseURL string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, appBaseURL string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return newEmailService(dialer, fromEmail, appBaseURL)
}

func newEmailService(dialer mailSender, from, appBaseURL string) *emailService {
	return &emailService{dialer: dialer, from: from, appBaseURL: appBaseURL}
}

func (s *emailService) send(to, subject, body string, replyTo string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	if replyTo != "" {
		m.SetHeader("Reply-To", replyTo)
	}
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendResetCode(email, code string, ttl time.Duration) error {
	body := fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your ExpertGate account.</p>
		<p>Your verification code is: <strong>%s</strong></p>
		<p>The code expires in %d minutes.</p>
		<p>If you did not request this change, you can ignore this email.</p>
	`, html.EscapeString(code), int(ttl.Minutes()))

	if err := s.send(email, "Your ExpertGate password reset code", body, ""); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *emailService) SendExpertSignupAdminNotice(to string, su models.ExpertSignup) error {
	body := fmt.Sprintf(`
		<h3>New expert signup</h3>
		<p><strong>Name:</strong> %s</p>
		<p><strong>Email:</strong> %s</p>
		<p><strong>Expertise:</strong> %s</p>
		<p>Review the profile in the <a href="%s/admin/experts">admin console</a>.</p>
	`, html.EscapeString(su.Name), html.EscapeString(su.Email), html.EscapeString(su.Expertise), s.appBaseURL)

	if err := s.send(to, "New expert signup: "+su.Name, body, su.Email); err != nil {
		return fmt.Errorf("failed to send expert signup notice: %w", err)
	}
	return nil
}

func (s *emailService) SendExpertSignupReceived(su models.ExpertSignup) error {
	body := fmt.Sprintf(`
		<h2>Thanks for joining ExpertGate, %s!</h2>
		<p>We received your expert application and our team is reviewing it.</p>
		<p>You will get another email as soon as your profile is verified.</p>
		<p>Best regards,<br>The ExpertGate Team</p>
	`, html.EscapeString(su.Name))

	if err := s.send(su.Email, "We received your ExpertGate application", body, ""); err != nil {
		return fmt.Errorf("failed to send signup confirmation: %w", err)
	}
	return nil
}

func (s *emailService) SendExpertVerified(v models.ExpertVerification) error {
	body := fmt.Sprintf(`
		<h2>Your expert profile is verified, %s!</h2>
		<p>Researchers can now find you and request interviews.</p>
		<p><a href="%s/login">Sign in</a> to complete your availability.</p>
		<p>Best regards,<br>The ExpertGate Team</p>
	`, html.EscapeString(v.Name), s.appBaseURL)

	if err := s.send(v.Email, "Your ExpertGate expert profile is verified", body, ""); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func (s *emailService) SendSupportTicket(to string, t models.SupportTicket) error {
	body := fmt.Sprintf(`
		<h3>New support ticket %s</h3>
		<p><strong>From:</strong> %s &lt;%s&gt;</p>
		<p><strong>Subject:</strong> %s</p>
		<p>%s</p>
	`, html.EscapeString(t.ID), html.EscapeString(t.Name), html.EscapeString(t.Email),
		html.EscapeString(t.Subject), html.EscapeString(t.Message))

	subject := "Support ticket"
	if t.Subject != "" {
		subject += ": " + t.Subject
	}
	if err := s.send(to, subject, body, t.Email); err != nil {
		return fmt.Errorf("failed to send support ticket email: %w", err)
	}
	return nil
}

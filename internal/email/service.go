package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"backoffice-server/internal/clients/mail"
	"backoffice-server/internal/observability"
)

var (
	ErrInvalidEmailAddress = errors.New("invalid email address")
	ErrSendingEmail        = errors.New("error sending email")
	ErrEmptyTemplate       = errors.New("email template is empty")
)

// EmailService handles sending emails
type EmailService struct {
	mailClient    *mail.ResendClient
	logger        *observability.Logger
	defaultSender string
	templates     map[string]string
}

// TemplateData represents the data that can be used in templates
type TemplateData struct {
	FirstName        string
	Email            string
	ReferralLink     string
	CommissionAmount float64
	ReferralCount    int
}

// New creates a new EmailService
func New(mailClient *mail.ResendClient, defaultSender string, logger *observability.Logger) *EmailService {
	return &EmailService{
		mailClient:    mailClient,
		logger:        logger,
		defaultSender: defaultSender,
		templates: map[string]string{
			"activation_welcome": `
			<html>
				<body>
					<h1>Welcome, {{.FirstName}}!</h1>
					<p>Your account is now active. We're excited to have you on board.</p>
					<p>Invite others and earn commissions with your personal referral link:</p>
					<p><a href="{{.ReferralLink}}" style="background-color: #2563EB; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">{{.ReferralLink}}</a></p>
					<p>If you have any questions, please don't hesitate to reach out to our support team.</p>
				</body>
			</html>
			`,
			"commission_earned": `
			<html>
				<body>
					<h1>You Earned a Commission!</h1>
					<p>Hi {{.FirstName}},</p>
					<p>Someone you referred just activated their account, and a commission of <strong>{{.CommissionAmount}} USDT</strong> has been credited to your ledger.</p>
					<p>Keep sharing your referral link to earn more.</p>
				</body>
			</html>
			`,
		},
	}
}

// renderTemplate renders a template with the provided data
func (s *EmailService) renderTemplate(templateName string, data TemplateData) (string, error) {
	tmplStr, ok := s.templates[templateName]
	if !ok {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	tmpl, err := template.New(templateName).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// SendActivationWelcomeEmail sends a welcome email to a freshly activated user
func (s *EmailService) SendActivationWelcomeEmail(ctx context.Context, to, firstName, referralLink string) error {
	if !strings.Contains(to, "@") {
		return ErrInvalidEmailAddress
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "email_type", Value: "activation_welcome"},
		observability.Field{Key: "recipient", Value: to},
	)

	subject := "Welcome to the platform"

	data := TemplateData{
		FirstName:    firstName,
		Email:        to,
		ReferralLink: referralLink,
	}

	htmlContent, err := s.renderTemplate("activation_welcome", data)
	if err != nil {
		s.logger.Error(ctx, "failed to render welcome email template", err)
		return fmt.Errorf("%w: %s", ErrEmptyTemplate, err.Error())
	}

	_, err = s.mailClient.SendEmail(ctx, s.defaultSender, to, subject, htmlContent)
	if err != nil {
		s.logger.Error(ctx, "failed to send welcome email", err)
		return fmt.Errorf("%w: %s", ErrSendingEmail, err.Error())
	}

	return nil
}

// SendCommissionEarnedEmail notifies a referrer that a commission was credited
func (s *EmailService) SendCommissionEarnedEmail(ctx context.Context, to, firstName string, amount float64) error {
	if !strings.Contains(to, "@") {
		return ErrInvalidEmailAddress
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "email_type", Value: "commission_earned"},
		observability.Field{Key: "recipient", Value: to},
	)

	subject := "You earned a referral commission"

	data := TemplateData{
		FirstName:        firstName,
		Email:            to,
		CommissionAmount: amount,
	}

	htmlContent, err := s.renderTemplate("commission_earned", data)
	if err != nil {
		s.logger.Error(ctx, "failed to render commission email template", err)
		return fmt.Errorf("%w: %s", ErrEmptyTemplate, err.Error())
	}

	_, err = s.mailClient.SendEmail(ctx, s.defaultSender, to, subject, htmlContent)
	if err != nil {
		s.logger.Error(ctx, "failed to send commission email", err)
		return fmt.Errorf("%w: %s", ErrSendingEmail, err.Error())
	}

	return nil
}

// SendEmail sends a generic email with custom content
func (s *EmailService) SendEmail(ctx context.Context, to, subject, htmlContent string) error {
	if !strings.Contains(to, "@") {
		return ErrInvalidEmailAddress
	}

	_, err := s.mailClient.SendEmail(ctx, s.defaultSender, to, subject, htmlContent)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSendingEmail, err.Error())
	}
	return nil
}

// RegisterTemplate adds a new template to the email service
func (s *EmailService) RegisterTemplate(name, templateContent string) error {
	if strings.TrimSpace(templateContent) == "" {
		return ErrEmptyTemplate
	}
	if _, err := template.New(name).Parse(templateContent); err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	s.templates[name] = templateContent
	return nil
}

// SendEmailWithTemplate sends an email using a template and custom data
func (s *EmailService) SendEmailWithTemplate(ctx context.Context, to, subject, templateName string, data TemplateData) error {
	if !strings.Contains(to, "@") {
		return ErrInvalidEmailAddress
	}

	htmlContent, err := s.renderTemplate(templateName, data)
	if err != nil {
		s.logger.Error(ctx, "failed to render email template", err)
		return fmt.Errorf("%w: %s", ErrEmptyTemplate, err.Error())
	}

	_, err = s.mailClient.SendEmail(ctx, s.defaultSender, to, subject, htmlContent)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSendingEmail, err.Error())
	}
	return nil
}

package email

import (
	"context"
)

// EmailSender defines the interface for sending emails
type EmailSender interface {
	// SendActivationWelcomeEmail sends a welcome email to a freshly activated user
	SendActivationWelcomeEmail(ctx context.Context, to, firstName, referralLink string) error

	// SendCommissionEarnedEmail notifies a referrer that a commission was credited
	SendCommissionEarnedEmail(ctx context.Context, to, firstName string, amount float64) error

	// SendEmail sends a generic email with custom content
	SendEmail(ctx context.Context, to, subject, htmlContent string) error

	// RegisterTemplate adds a new template to the email service
	RegisterTemplate(name, templateContent string) error

	// SendEmailWithTemplate sends an email using a template and custom data
	SendEmailWithTemplate(ctx context.Context, to, subject, templateName string, data TemplateData) error
}

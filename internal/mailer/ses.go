package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
)

// Mailer sends transactional mail. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string) error
	SendStatusNotice(ctx context.Context, to, issueTitle, status string) error
}

// SESMailer delivers mail through AWS SES.
type SESMailer struct {
	client      *ses.Client
	fromAddress string
	logger      *zap.Logger
}

// NewSESMailer loads AWS credentials from the default chain for the
// configured region.
func NewSESMailer(ctx context.Context, cfg config.EmailConfig, logger *zap.Logger) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("mailer: load AWS config: %w", err)
	}

	return &SESMailer{
		client:      ses.NewFromConfig(awsCfg),
		fromAddress: cfg.FromAddress,
		logger:      logger,
	}, nil
}

// SendOTP mails a one-time verification code.
func (m *SESMailer) SendOTP(ctx context.Context, to, name, code string) error {
	if name == "" {
		name = "there"
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2>Your verification code</h2>
        <p>Hi %s,</p>
        <p>Use the code below to continue. It expires in 10 minutes.</p>
        <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
        <p style="color: #666; font-size: 12px;">If you did not request this code, you can ignore this email.</p>
    </div>
</body>
</html>`, name, code)

	textBody := fmt.Sprintf("Hi %s,\n\nYour verification code is: %s\n\nIt expires in 10 minutes. If you did not request this code, you can ignore this email.\n", name, code)

	return m.send(ctx, to, "Your verification code", htmlBody, textBody)
}

// SendStatusNotice tells a reporter that their issue reached a new status.
func (m *SESMailer) SendStatusNotice(ctx context.Context, to, issueTitle, status string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2>Issue update</h2>
        <p>Your reported issue <strong>%s</strong> is now <strong>%s</strong>.</p>
        <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply.</p>
    </div>
</body>
</html>`, issueTitle, status)

	textBody := fmt.Sprintf("Your reported issue %q is now %s.\n\nThis is an automated message. Please do not reply.\n", issueTitle, status)

	return m.send(ctx, to, fmt.Sprintf("Issue update: %s", status), htmlBody, textBody)
}

func (m *SESMailer) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(m.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		m.logger.Error("failed to send email via SES",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("mailer: send: %w", err)
	}

	m.logger.Info("email sent",
		zap.String("to", to),
		zap.Stringp("message_id", result.MessageId))
	return nil
}

// NoopMailer is used when email delivery is disabled; it logs and succeeds.
type NoopMailer struct {
	logger *zap.Logger
}

// NewNoopMailer returns a mailer that only logs.
func NewNoopMailer(logger *zap.Logger) *NoopMailer {
	return &NoopMailer{logger: logger}
}

func (m *NoopMailer) SendOTP(ctx context.Context, to, name, code string) error {
	m.logger.Info("email disabled, skipping OTP delivery", zap.String("to", to))
	return nil
}

func (m *NoopMailer) SendStatusNotice(ctx context.Context, to, issueTitle, status string) error {
	m.logger.Info("email disabled, skipping status notice", zap.String("to", to))
	return nil
}

package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"academicevents/internal/domain"
)

const (
	ProviderSES  = "ses"
	ProviderNoop = "noop"
)

// SESConfig holds the AWS settings used when Provider is "ses".
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// InsecureSkipVerify is for local SES emulators with self-signed certs.
	InsecureSkipVerify bool
}

type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
}

// sesAPI is the part of *ses.Client the mailer calls.
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// NewMailer builds the transport named by cfg.Provider. An empty provider
// means noop; anything unrecognised is a configuration error.
func NewMailer(cfg MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch cfg.Provider {
	case "", ProviderNoop:
		return &noopMailer{logger: logger}, nil
	case ProviderSES:
		if cfg.FromAddress == "" {
			return nil, errors.New("email: ses provider needs a from address")
		}
		if cfg.SES.InsecureSkipVerify {
			logger.Warn("SES TLS verification disabled; development only")
		}
		from := mail.Address{Name: cfg.FromName, Address: cfg.FromAddress}
		return &sesMailer{client: newSESClient(cfg.SES), source: from.String(), logger: logger}, nil
	default:
		return nil, fmt.Errorf("email: unknown provider %q", cfg.Provider)
	}
}

func newSESClient(c SESConfig) *ses.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
	return ses.NewFromConfig(aws.Config{
		Region:      c.Region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, "")),
		HTTPClient:  &http.Client{Transport: transport},
	})
}

type sesMailer struct {
	client sesAPI
	source string
	logger *slog.Logger
}

func (m *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	out, err := m.client.SendEmail(ctx, buildSendEmailInput(m.source, to, subject, html, text))
	if err != nil {
		return fmt.Errorf("ses send to %s: %w", to, err)
	}
	m.logger.InfoContext(ctx, "email sent", "provider", ProviderSES, "message_id", aws.ToString(out.MessageId))
	return nil
}

func utf8(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

// buildSendEmailInput leaves out empty body parts; SES rejects empty content.
func buildSendEmailInput(source, to, subject, html, text string) *ses.SendEmailInput {
	body := &types.Body{}
	if html != "" {
		body.Html = utf8(html)
	}
	if text != "" {
		body.Text = utf8(text)
	}
	return &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message:     &types.Message{Subject: utf8(subject), Body: body},
	}
}

// noopMailer only logs; used in development and tests.
type noopMailer struct {
	logger *slog.Logger
}

func (m *noopMailer) Send(ctx context.Context, to, subject, _, _ string) error {
	m.logger.InfoContext(ctx, "email skipped", "provider", ProviderNoop, "to", to, "subject", subject)
	return nil
}

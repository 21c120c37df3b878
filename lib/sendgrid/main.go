package sendgrid

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	sendgridGo "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Config for the sendgrid integration. Templates maps a template name and
// language to the sendgrid template id.
type Config struct {
	Key       string
	From      string
	FromName  string `mapstructure:"from_name"`
	Templates map[string]map[string]string
	// Batch sending knobs for digest style emails
	BatchSize        int `mapstructure:"batch_size"`
	SendDelaySeconds int `mapstructure:"send_delay_seconds"`
}

// Sendgrid is the email sending interface used by the service layer
type Sendgrid interface {
	SendEmail(email, language, template string, vars map[string]string) error
	SendBatch(emails []string, language, template string, vars map[string]string) (sent, failed int)
}

type client struct {
	cfg Config
	sg  *sendgridGo.Client
}

// NewClient creates a sendgrid backed sender
func NewClient(cfg Config) Sendgrid {
	return &client{
		cfg: cfg,
		sg:  sendgridGo.NewSendClient(cfg.Key),
	}
}

var errUnknownTemplate = errors.New("EMAIL_UNKNOWN_TEMPLATE")

func (c *client) templateID(template, language string) (string, error) {
	languages, ok := c.cfg.Templates[template]
	if !ok {
		return "", errUnknownTemplate
	}
	if id, ok := languages[language]; ok {
		return id, nil
	}
	// english is the fallback for every template
	if id, ok := languages["en"]; ok {
		return id, nil
	}
	return "", errUnknownTemplate
}

// SendEmail sends one templated email
func (c *client) SendEmail(email, language, template string, vars map[string]string) error {
	templateID, err := c.templateID(template, language)
	if err != nil {
		return err
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(c.cfg.FromName, c.cfg.From))
	message.SetTemplateID(templateID)

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", email))
	for key, value := range vars {
		personalization.SetDynamicTemplateData(key, value)
	}
	message.AddPersonalizations(personalization)

	resp, err := c.sg.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		log.Error().
			Str("section", "sendgrid").
			Str("action", "send").
			Str("template", template).
			Int("status", resp.StatusCode).
			Msg("Sendgrid rejected the email")
		return errors.New("EMAIL_SEND_FAILED")
	}
	return nil
}

// SendBatch sends the same templated email to many recipients in chunks,
// pausing between chunks so the account rate limit is never hit. Returns
// how many sends succeeded and failed.
func (c *client) SendBatch(emails []string, language, template string, vars map[string]string) (sent, failed int) {
	batchSize := c.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	delay := time.Duration(c.cfg.SendDelaySeconds) * time.Second

	for i, email := range emails {
		if err := c.SendEmail(email, language, template, vars); err != nil {
			failed++
		} else {
			sent++
		}
		if (i+1)%batchSize == 0 && i+1 < len(emails) {
			time.Sleep(delay)
		}
	}
	return sent, failed
}

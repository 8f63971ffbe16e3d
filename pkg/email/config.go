package email

// Config holds email delivery configuration.
// The Postmark tokens are optional: without them NewSenderFromConfig falls
// back to the file-writing DevSender.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`

	// DevDir is where DevSender writes messages.
	DevDir string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`

	// LinkBaseURL prefixes the confirmation and recovery links.
	LinkBaseURL string `env:"EMAIL_LINK_BASE_URL" envDefault:"http://localhost:3000"`
	ProductName string `env:"EMAIL_PRODUCT_NAME" envDefault:"authcore"`
}

// NewSenderFromConfig picks Postmark when both tokens are set and DevSender otherwise.
func NewSenderFromConfig(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" && cfg.PostmarkAccountToken == "" {
		return NewDevSender(cfg.DevDir), nil
	}
	return NewPostmarkClient(cfg)
}

// Package email delivers the transactional messages of the auth flows.
//
// EmailSender is the delivery seam. PostmarkClient sends through Postmark;
// DevSender writes each message to disk as HTML plus JSON metadata, which is
// what local setups without Postmark tokens get from NewSenderFromConfig.
//
// AuthMailer implements auth.Mailer on top of any EmailSender, rendering the
// confirmation, recovery and two-factor messages from the templ components in
// the templates subpackage:
//
//	var cfg email.Config
//	config.MustLoad(&cfg)
//
//	mailer, err := email.NewAuthMailerFromConfig(cfg)
//	if err != nil {
//	    return err
//	}
//	svc := auth.NewService(store, sessions, registry, mailer)
//
// Errors: ErrInvalidConfig, ErrInvalidParams and ErrFailedToSendEmail.
package email

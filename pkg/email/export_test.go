package email

import (
	"context"

	"github.com/mrz1836/postmark"
)

// PostmarkFunc adapts a function to the Postmark API seam.
type PostmarkFunc func(ctx context.Context, e postmark.Email) (postmark.EmailResponse, error)

func (f PostmarkFunc) SendEmail(ctx context.Context, e postmark.Email) (postmark.EmailResponse, error) {
	return f(ctx, e)
}

// NewPostmarkClientWithAPI builds a client over a stubbed API.
func NewPostmarkClientWithAPI(cfg Config, api PostmarkFunc) *PostmarkClient {
	return &PostmarkClient{api: api, config: cfg}
}

package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/privacy"
)

// ShoutrrrSender fans an alert out to every configured shoutrrr URL.
type ShoutrrrSender struct {
	urls   []string
	sender *router.ServiceRouter
}

// NewShoutrrrSender validates urls and builds the router. Errors never
// contain the URLs themselves since they usually embed tokens.
func NewShoutrrrSender(urls []string, timeout time.Duration) (*ShoutrrrSender, error) {
	if len(urls) == 0 {
		return nil, errors.Newf("at least one alert URL is required").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, errors.New(privacy.WrapError(err)).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ShoutrrrSender{urls: slices.Clone(urls), sender: sender}, nil
}

// Name implements Sender
func (s *ShoutrrrSender) Name() string { return "shoutrrr" }

// Send delivers to all services and returns the first failure.
func (s *ShoutrrrSender) Send(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := types.Params{}
	if title != "" {
		params.SetTitle(title)
	}

	for i, err := range s.sender.Send(message, &params) {
		if err != nil {
			return errors.New(fmt.Errorf("service %d: %w", i, privacy.WrapError(err))).
				Component("notification").
				Category(errors.CategoryNotification).
				Build()
		}
	}
	return nil
}

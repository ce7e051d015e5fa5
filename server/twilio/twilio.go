package twilio

import (
	"context"
	"fmt"
	"strings"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/Daskott/raksha/shared"
	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	twilioClient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Account SIDs starting with this prefix are the sample values from the docs
const PLACEHOLDER_SID_PREFIX = "ACxxxxxxxx"

type ClientWrapper struct {
	client    *twilio.RestClient
	config    shared.TwilioConfig
	simulated bool
}

// NewClient returns a client for the twilio REST API. When the credentials in
// config are missing or placeholders, the client runs in simulation mode.
func NewClient(config shared.TwilioConfig) *ClientWrapper {
	if !HasLiveCredentials(config) {
		return &ClientWrapper{config: config, simulated: true}
	}

	client := twilio.NewRestClientWithParams(twilio.RestClientParams{
		Username: config.AccountSid,
		Password: config.AuthToken,
	})

	return &ClientWrapper{client: client, config: config}
}

func HasLiveCredentials(config shared.TwilioConfig) bool {
	return strings.TrimSpace(config.AccountSid) != "" &&
		strings.TrimSpace(config.AuthToken) != "" &&
		!strings.HasPrefix(config.AccountSid, PLACEHOLDER_SID_PREFIX)
}

func (cw *ClientWrapper) Simulated() bool {
	return cw.simulated
}

// Send creates a message via the twilio API. Errors are tagged as transport errors.
func (cw *ClientWrapper) Send(ctx context.Context, body, from, to string) (string, error) {
	if cw.simulated {
		return "", apperr.New(apperr.Transport, "twilio client is in simulation mode")
	}

	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(err, apperr.Transport, "sms cancelled")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetBody(body)

	if cw.config.MessagingServiceSid != "" {
		params.SetMessagingServiceSid(cw.config.MessagingServiceSid)
	}
	if from != "" {
		params.SetFrom(from)
	}

	resp, err := cw.client.ApiV2010.CreateMessage(params)
	if err != nil {
		return "", tagError(err)
	}

	if resp.ErrorMessage != nil && *resp.ErrorMessage != "" {
		return "", apperr.New(apperr.Transport, *resp.ErrorMessage)
	}

	if resp.Sid == nil {
		return "", nil
	}

	return *resp.Sid, nil
}

func tagError(err error) error {
	var restErr *twilioClient.TwilioRestError
	if errors.As(err, &restErr) {
		return apperr.Wrap(err, apperr.Transport,
			fmt.Sprintf("twilio error (code: %v, status: %v)", restErr.Code, restErr.Status))
	}

	return apperr.Wrap(err, apperr.Transport, "twilio error")
}

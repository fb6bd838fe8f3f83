package twilio

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/MrJamesThe3rd/dunning/internal/config"
)

const whatsappPrefix = "whatsapp:"

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Channel sends WhatsApp messages through the Twilio Messages API.
type Channel struct {
	api messageCreator
}

func NewChannel(cfg config.TwilioConfig) *Channel {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.SID,
		Password: cfg.Token,
	})

	return &Channel{api: client.Api}
}

// SendText addresses both ends on the WhatsApp channel and returns the message SID.
// The Twilio SDK takes no context, so cancellation is only checked before the call.
func (c *Channel) SendText(ctx context.Context, to, from, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(whatsapp(to))
	params.SetFrom(whatsapp(from))
	params.SetBody(body)

	resp, err := c.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("creating message: %w", err)
	}

	if resp.Sid == nil {
		return "", nil
	}

	return *resp.Sid, nil
}

func whatsapp(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(addr, whatsappPrefix) {
		return addr
	}

	return whatsappPrefix + addr
}

package twilio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/MrJamesThe3rd/dunning/internal/config"
)

type fakeAPI struct {
	got  *twilioApi.CreateMessageParams
	resp *twilioApi.ApiV2010Message
	err  error
}

func (f *fakeAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.got = params
	return f.resp, f.err
}

func TestChannel_SendText(t *testing.T) {
	sid := "SM123"
	api := &fakeAPI{resp: &twilioApi.ApiV2010Message{Sid: &sid}}
	c := &Channel{api: api}

	got, err := c.SendText(context.Background(), "+966500000001", "whatsapp:+14155238886", "hello")
	require.NoError(t, err)
	assert.Equal(t, "SM123", got)

	require.NotNil(t, api.got)
	assert.Equal(t, "whatsapp:+966500000001", *api.got.To)
	assert.Equal(t, "whatsapp:+14155238886", *api.got.From)
	assert.Equal(t, "hello", *api.got.Body)
}

func TestChannel_SendTextError(t *testing.T) {
	c := &Channel{api: &fakeAPI{err: errors.New("Status: 400 - ApiError 63016")}}

	_, err := c.SendText(context.Background(), "+966500000001", "+14155238886", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "63016")
}

func TestChannel_CancelledContext(t *testing.T) {
	api := &fakeAPI{}
	c := &Channel{api: api}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SendText(ctx, "+966500000001", "+14155238886", "hello")
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, api.got)
}

func TestNewChannel(t *testing.T) {
	c := NewChannel(config.TwilioConfig{SID: "AC1", Token: "tok", From: "+14155238886"})
	assert.NotNil(t, c.api)
}

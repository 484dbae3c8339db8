package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSub_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ps := NewPubSub(logger.NewNoopLogger())
	defer ps.Close()

	require.NoError(t, ps.Publish(ctx, "billing_events", message.NewMessage("evt_1", []byte(`{"ok":true}`))))

	messages, err := ps.Subscribe(ctx, "billing_events")
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, "evt_1", msg.UUID)
		assert.JSONEq(t, `{"ok":true}`, string(msg.Payload))
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

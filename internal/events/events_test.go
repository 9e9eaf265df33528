// internal/events/events_test.go
package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventEnvelope(t *testing.T) {
	event := New(TypeTransactionCreated, "txn-1", map[string]string{"code": "TXN-20260315-ABCDEF"})

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "txn-1", event.Key)
	assert.False(t, event.OccurredAt.IsZero())

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, TypeTransactionCreated, decoded["event_type"])
	assert.NotContains(t, decoded, "Key")
}

func TestRecorderKeepsOrder(t *testing.T) {
	recorder := &Recorder{}
	ctx := context.Background()

	require.NoError(t, recorder.Publish(ctx, New(TypeTransactionCreated, "a", nil)))
	require.NoError(t, recorder.Publish(ctx, New(TypeTransactionCompleted, "a", nil)))

	assert.Equal(t, []string{TypeTransactionCreated, TypeTransactionCompleted}, recorder.Types())
}

func TestNoopPublisher(t *testing.T) {
	var publisher Publisher = NoopPublisher{}
	assert.NoError(t, publisher.Publish(context.Background(), New(TypeCheckoutCompleted, "x", nil)))
	assert.NoError(t, publisher.Close())
}

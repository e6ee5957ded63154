package rabbitmq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

func TestSendEventQueuesJSON(t *testing.T) {
	r := NewRabbitMQ(RabbitMQConfig{QueueName: "myo-events"}, 1)

	require.NoError(t, r.SendEvent(model.NewRecord("onArmLost", 9)))

	var got map[string]string
	require.NoError(t, json.Unmarshal(<-r.msgs, &got))
	assert.Equal(t, map[string]string{"eventType": "onArmLost", "timestamp": "9"}, got)
}

func TestSendEventNeverBlocks(t *testing.T) {
	r := NewRabbitMQ(RabbitMQConfig{QueueName: "myo-events"}, 1)

	for i := 0; i < queueDepth; i++ {
		require.NoError(t, r.SendEvent(model.NewRecord("onPose", uint64(i))))
	}
	assert.ErrorIs(t, r.SendEvent(model.NewRecord("onPose", 0)), ErrQueueFull)
}

func TestCloseWithoutConnection(t *testing.T) {
	r := NewRabbitMQ(RabbitMQConfig{}, 1)

	assert.NoError(t, r.Close())
}

package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"mystic-forest-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestNopPublisher(t *testing.T) {
	p := NewNopGameEventPublisher()
	assert.NoError(t, p.PublishGameEvent(context.Background(), models.GameEvent{Type: models.GameEventChoiceApplied}))
}

func TestRabbitMQGameEventPublisher(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping rabbitmq integration test in short mode")
	}
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	amqpURL, err := container.AmqpURL(ctx)
	require.NoError(t, err)

	conn, err := ConnectRabbitMQ(ctx, amqpURL, 5, time.Second, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	const queue = "test_game_events"
	publisher, err := NewRabbitMQGameEventPublisher(conn, queue, zap.NewNop())
	require.NoError(t, err)

	event := models.GameEvent{
		Type:           models.GameEventEndingReached,
		SessionToken:   "tok",
		FromNode:       "deep_forest",
		ToNode:         "end_brave",
		Tag:            "brave",
		Score:          3,
		EndingCategory: "Brave Explorer",
		OccurredAt:     time.Now().UTC(),
	}
	require.NoError(t, publisher.PublishGameEvent(ctx, event))

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()
	msgs, err := ch.Consume(queue, "", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, "application/json", msg.ContentType)
		assert.Equal(t, "ending_reached", msg.Type)
		assert.Equal(t, appID, msg.AppId)
		assert.Equal(t, amqp.Persistent, msg.DeliveryMode)

		var got models.GameEvent
		require.NoError(t, json.Unmarshal(msg.Body, &got))
		assert.Equal(t, event.EndingCategory, got.EndingCategory)
		assert.Equal(t, event.ToNode, got.ToNode)
		assert.Equal(t, event.Score, got.Score)
	case <-time.After(10 * time.Second):
		t.Fatal("event was not delivered")
	}
}

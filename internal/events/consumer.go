package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"

	"notify-gateway/internal/notification"
	"notify-gateway/internal/websocket"
)

// notificationEvent is the message shape producing services publish on the
// platform events topic. UserIDs addresses several recipients with one
// event; an event with neither UserID nor UserIDs is a broadcast.
type notificationEvent struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	UserID  string          `json:"userId,omitempty"`
	UserIDs []string        `json:"userIds,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Consumer bridges the platform events topic to the dispatcher. It is an
// alternative ingestion path to the internal HTTP API; both feed the same
// fan-out.
type Consumer struct {
	group      sarama.ConsumerGroup
	dispatcher websocket.Dispatcher
	topic      string
}

func NewConsumer(brokers []string, topic, groupID string, dispatcher websocket.Dispatcher) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_0_0_0
	config.ClientID = "notify-gateway"
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:      group,
		dispatcher: dispatcher,
		topic:      topic,
	}, nil
}

// Run consumes until the context is cancelled. Consume returns on every
// rebalance, hence the loop.
func (c *Consumer) Run(ctx context.Context) error {
	go func() {
		for err := range c.group.Errors() {
			slog.Error("kafka consumer error", "error", err)
		}
	}()

	for {
		if err := c.group.Consume(ctx, []string{c.topic}, c); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("kafka consume failed", "topic", c.topic, "error", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		c.handle(session.Context(), msg.Value)
		session.MarkMessage(msg, "")
	}
	return nil
}

// handle decodes one event and dispatches it. Malformed or unknown-typed
// events are logged and dropped; the stream must keep moving.
func (c *Consumer) handle(ctx context.Context, value []byte) {
	var event notificationEvent
	if err := json.Unmarshal(value, &event); err != nil {
		slog.Error("malformed notification event", "error", err)
		return
	}

	typ := notification.Type(event.Type)
	if !typ.IsValid() {
		slog.Warn("unknown notification type in event", "type", event.Type)
		return
	}
	if event.Message == "" {
		slog.Warn("notification event missing message", "type", event.Type)
		return
	}

	switch {
	case len(event.UserIDs) > 0:
		c.dispatcher.Broadcast(ctx, event.UserIDs, notification.New(typ, "", event.Message, event.Data))
	case event.UserID != "":
		c.dispatcher.Notify(ctx, notification.New(typ, event.UserID, event.Message, event.Data))
	default:
		c.dispatcher.BroadcastAll(ctx, notification.New(typ, "", event.Message, event.Data))
	}
}

package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reconcile-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamName    = "EVENTS"
	subjectPrefix = "events."
	occurredAtKey = "occurred_at"
)

// AllEvents matches every subject the publisher writes.
const AllEvents = subjectPrefix + ">"

func connect(url string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return nc, js, nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{AllEvents},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	return err
}

// EncodeEvent returns the subject and JSON body for event. The occurrence
// time travels in the body next to the payload keys.
func EncodeEvent(event events.Event) (string, []byte, error) {
	body := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		body[k] = v
	}
	body[occurredAtKey] = event.Timestamp().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return subjectPrefix + event.EventType(), data, nil
}

// DecodeEvent rebuilds an event from a subject and a body written by EncodeEvent.
func DecodeEvent(subject string, data []byte) (events.BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return events.BaseEvent{}, err
	}

	occurredAt := time.Now().UTC()
	if raw, ok := payload[occurredAtKey].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			occurredAt = t
		}
		delete(payload, occurredAtKey)
	}

	return events.BaseEvent{
		Type:       strings.TrimPrefix(subject, subjectPrefix),
		Data:       payload,
		OccurredAt: occurredAt,
	}, nil
}

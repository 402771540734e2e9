package service

import (
	"context"
	"sync"
	"time"

	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/pkg/events"

	"github.com/google/uuid"
)

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventHandler receives events in-process when the bus is unavailable.
type EventHandler interface {
	HandleEvent(ctx context.Context, event events.Event) error
}

// IPartnerGateway delivers session events to participants. Delivery is best
// effort: calls return immediately and failures are only logged.
type IPartnerGateway interface {
	Notify(ctx context.Context, sessionId, targetUserId uuid.UUID, eventName string, payload map[string]interface{})
	PublishSessionEvent(ctx context.Context, session *entity.Session, eventName string, payload map[string]interface{})
	// Flush waits for in-flight deliveries.
	Flush()
}

const deliveryTimeout = 5 * time.Second

type partnerGateway struct {
	publisher EventPublisher
	fallback  EventHandler
	logger    logger.ILogger
	wg        sync.WaitGroup
}

// NewPartnerGateway wires the bus publisher and the in-process fallback.
// Either may be nil.
func NewPartnerGateway(publisher EventPublisher, fallback EventHandler, log logger.ILogger) IPartnerGateway {
	return &partnerGateway{
		publisher: publisher,
		fallback:  fallback,
		logger:    log,
	}
}

func (g *partnerGateway) Notify(ctx context.Context, sessionId, targetUserId uuid.UUID, eventName string, payload map[string]interface{}) {
	data := map[string]interface{}{
		events.KeySessionID: sessionId.String(),
		events.KeyUserID:    targetUserId.String(),
	}
	if len(payload) > 0 {
		data[events.KeyData] = payload
	}
	evt := events.New(eventName, data)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("PartnerGateway", "Recovered from delivery panic", map[string]interface{}{"event": eventName, "panic": r})
			}
		}()

		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
		defer cancel()
		g.deliver(dctx, evt)
	}()
}

func (g *partnerGateway) PublishSessionEvent(ctx context.Context, session *entity.Session, eventName string, payload map[string]interface{}) {
	for _, userId := range session.ParticipantIds() {
		g.Notify(ctx, session.Id, userId, eventName, payload)
	}
}

func (g *partnerGateway) deliver(ctx context.Context, evt events.BaseEvent) {
	if g.publisher != nil {
		err := g.publisher.Publish(ctx, evt)
		if err == nil {
			return
		}
		g.logger.Warn("PartnerGateway", "Publish failed, delivering in-process", map[string]interface{}{
			"event": evt.Type,
			"error": err.Error(),
		})
	}

	if g.fallback == nil {
		return
	}
	if err := g.fallback.HandleEvent(ctx, evt); err != nil {
		g.logger.Warn("PartnerGateway", "Notification dropped", map[string]interface{}{
			"event": evt.Type,
			"error": err.Error(),
		})
	}
}

func (g *partnerGateway) Flush() {
	g.wg.Wait()
}

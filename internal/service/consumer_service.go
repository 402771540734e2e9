package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/entity"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/pkg/analysis"
	"reconcile-be/pkg/events"
	"reconcile-be/pkg/gate"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// ITransitionRequester schedules a transition message for a participant who
// just entered a new stage. It never blocks the calling request.
type ITransitionRequester interface {
	RequestTransition(ctx context.Context, sessionId, userId uuid.UUID, from, to gate.Stage, reason string)
}

type transitionRequester struct {
	publisher IPublisherService
	logger    logger.ILogger
}

func NewTransitionRequester(publisher IPublisherService, log logger.ILogger) ITransitionRequester {
	return &transitionRequester{publisher: publisher, logger: log}
}

func (r *transitionRequester) RequestTransition(ctx context.Context, sessionId, userId uuid.UUID, from, to gate.Stage, reason string) {
	msgPayload := dto.PublishTransitionMessage{
		SessionId: sessionId,
		UserId:    userId,
		From:      int(from),
		To:        int(to),
		Reason:    reason,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		r.logger.Error("TransitionWorker", "Failed to encode transition request", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := r.publisher.Publish(context.WithoutCancel(ctx), msgJson); err != nil {
		r.logger.Warn("TransitionWorker", "Failed to publish transition request", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	analyzer   analysis.Analyzer
	gateway    IPartnerGateway
	logger     logger.ILogger
	timeout    time.Duration
}

// NewConsumerService builds the transition-message worker. It consumes
// transition requests, asks the AI collaborator for a short message, stores
// it in the participant's history and notifies them.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	analyzer analysis.Analyzer,
	gateway IPartnerGateway,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		analyzer:   analyzer,
		gateway:    gateway,
		logger:     log,
		timeout:    90 * time.Second,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: transition messages are cosmetic and a failed
// one is dropped rather than retried.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.PublishTransitionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("TransitionWorker", "Failed to unmarshal transition message", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := cs.handle(ctx, payload); err != nil {
		cs.logger.Warn("TransitionWorker", "Transition message dropped", map[string]interface{}{
			"session_id": payload.SessionId.String(),
			"user_id":    payload.UserId.String(),
			"to":         payload.To,
			"error":      err.Error(),
		})
	}
}

func (cs *consumerService) handle(ctx context.Context, payload dto.PublishTransitionMessage) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindById(ctx, payload.SessionId)
	if err != nil {
		return err
	}
	if session == nil || !session.IsMember(payload.UserId) {
		return fmt.Errorf("session %s has no member %s", payload.SessionId, payload.UserId)
	}

	history, err := uow.MessageRepository().FindHistory(ctx, payload.SessionId, payload.UserId)
	if err != nil {
		return err
	}

	tctx := analysis.TransitionContext{
		From:    gate.Stage(payload.From),
		To:      gate.Stage(payload.To),
		Reason:  payload.Reason,
		History: toLLMHistory(history),
	}

	callCtx, cancel := context.WithTimeout(ctx, cs.timeout)
	defer cancel()

	text, err := cs.analyzer.TransitionMessage(callCtx, tctx)
	if err != nil {
		// Cosmetic: carry on without the generated text.
		cs.logger.Warn("TransitionWorker", "AI transition message failed, using fallback", map[string]interface{}{"error": err.Error()})
		text = constant.TransitionFallbackMessage
	}

	aiMessage := &entity.Message{
		Id:        uuid.New(),
		SessionId: payload.SessionId,
		UserId:    payload.UserId,
		Role:      entity.MessageRoleAI,
		Stage:     gate.Stage(payload.To),
		Content:   text,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, aiMessage); err != nil {
		return err
	}

	cs.gateway.Notify(ctx, payload.SessionId, payload.UserId, events.TransitionMessage, map[string]interface{}{
		"message_id": aiMessage.Id.String(),
		"stage":      payload.To,
	})
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/booking-service/internal/config"
	"github.com/spec-kit/booking-service/internal/events"
)

// NotifiedEvents lists the event types the notification service reacts to.
var NotifiedEvents = []events.EventType{
	events.EventServiceRequestCreated,
	events.EventServiceRequestCancelled,
	events.EventServiceRequestUpdated,
	events.EventServiceRequestDeleted,
	events.EventUserBanChanged,
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
	http   *resty.Client
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		logger: logger,
		cfg:    cfg,
		http: resty.New().
			SetTimeout(5*time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

// Notify logs the event and forwards it to the configured channels.
func (n *NotificationService) Notify(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventServiceRequestCreated:
		n.logger.Info("ServiceRequestCreated", zap.String("request_id", event.SubjectID), zap.Any("payload", event.Payload))
		n.sendEmailNotificationStub(ctx, event)
	case events.EventServiceRequestUpdated:
		n.logger.Info("ServiceRequestUpdated", zap.String("request_id", event.SubjectID), zap.Any("payload", event.Payload))
		if p, ok := event.Payload.(events.ServiceRequestPayload); ok && p.OldStatus != p.Status {
			n.sendEmailNotificationStub(ctx, event)
		}
	case events.EventServiceRequestCancelled, events.EventServiceRequestDeleted:
		n.logger.Info(string(event.Type), zap.String("request_id", event.SubjectID), zap.String("actor_role", string(event.Actor.Role)))
	case events.EventUserBanChanged:
		n.logger.Info("UserBanChanged", zap.String("user_id", event.SubjectID), zap.Any("payload", event.Payload))
	default:
		return nil
	}
	return n.sendWebhook(ctx, event)
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("request_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	resp, err := n.http.R().
		SetContext(ctx).
		SetBody(event).
		Post(url)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", event.Type, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s: unexpected status %d", event.Type, resp.StatusCode())
	}
	return nil
}

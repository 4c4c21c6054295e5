package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/events"
	"github.com/spec-kit/civic-issue-service/internal/mailer"
)

// NotificationService reacts to domain events. Status changes are mailed to
// the reporter; everything else is logged for the audit trail. Delivery is
// best-effort and never propagates failure into the triggering request.
type NotificationService struct {
	dispatcher events.Dispatcher
	mail       mailer.Mailer
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mail mailer.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mail:       mail,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIssueReported, n.handleIssueReported)
	n.dispatcher.Subscribe(events.EventIssueStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventIssueDeleted, n.handleIssueDeleted)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *NotificationService) handleIssueReported(_ context.Context, event events.Event) error {
	n.logger.Info("IssueReported", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("IssueStatusChanged", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))

	payload, ok := event.Payload.(events.IssueStatusChangedPayload)
	if !ok || payload.ReporterEmail == "" || n.mail == nil {
		return nil
	}
	if err := n.mail.SendStatusNotice(ctx, payload.ReporterEmail, payload.Title, payload.NewStatus); err != nil {
		n.logger.Warn("status notice delivery failed",
			zap.String("issue_id", event.IssueID),
			zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handleIssueDeleted(_ context.Context, event events.Event) error {
	n.logger.Info("IssueDeleted", zap.String("issue_id", event.IssueID), zap.String("actor_id", event.ActorID))
	return nil
}

func (n *NotificationService) handleCommentAdded(_ context.Context, event events.Event) error {
	n.logger.Info("CommentAdded", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	return nil
}

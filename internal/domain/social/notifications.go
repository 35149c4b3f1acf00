package social

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/dope-network/dope-go/internal/transport"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

// NotificationService exposes the inbox surface of the API.
type NotificationService interface {
	List(ctx context.Context, params NotificationParams) (NotificationPage, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	UnreadCount(ctx context.Context) (int, error)
}

type notificationService struct {
	api    *transport.Client
	logger *slog.Logger
}

// NewNotificationService builds the inbox client.
func NewNotificationService(api *transport.Client, logger *slog.Logger) NotificationService {
	return &notificationService{
		api:    api,
		logger: logger.With("component", "social.notifications"),
	}
}

func (s *notificationService) List(ctx context.Context, params NotificationParams) (NotificationPage, error) {
	query := url.Values{}
	if params.Cursor != "" {
		query.Set("cursor", params.Cursor)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.UnreadOnly {
		query.Set("unread", "true")
	}
	resp, err := s.api.Get(ctx, "/v1/notifications", query)
	if err != nil {
		return NotificationPage{}, apperrors.Categorize("list notifications failed", err)
	}
	var env notificationsEnvelope
	if err := resp.Decode(&env); err != nil {
		return NotificationPage{}, apperrors.Categorize("list notifications failed", err)
	}
	return NotificationPage{Notifications: env.Notifications, NextCursor: env.NextCursor}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	if _, err := s.api.Post(ctx, "/v1/notifications/"+url.PathEscape(id)+"/read", nil); err != nil {
		return apperrors.Categorize("mark notification read failed", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context) error {
	if _, err := s.api.Post(ctx, "/v1/notifications/read-all", nil); err != nil {
		return apperrors.Categorize("mark all notifications read failed", err)
	}
	s.logger.Info("all notifications marked read")
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context) (int, error) {
	resp, err := s.api.Get(ctx, "/v1/notifications/unread-count", nil)
	if err != nil {
		return 0, apperrors.Categorize("unread count failed", err)
	}
	var env unreadEnvelope
	if err := resp.Decode(&env); err != nil {
		return 0, apperrors.Categorize("unread count failed", err)
	}
	return env.Unread, nil
}

var _ NotificationService = (*notificationService)(nil)

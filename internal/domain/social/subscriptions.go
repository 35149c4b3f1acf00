package social

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/dope-network/dope-go/internal/transport"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

// SubscriptionService manages follow relations.
type SubscriptionService interface {
	Follow(ctx context.Context, uid string) (FollowState, error)
	Unfollow(ctx context.Context, uid string) (FollowState, error)
	Followers(ctx context.Context, uid, cursor string, limit int) (ProfilePage, error)
	Following(ctx context.Context, uid, cursor string, limit int) (ProfilePage, error)
}

type subscriptionService struct {
	api    *transport.Client
	logger *slog.Logger
}

// NewSubscriptionService builds the follow-relation client.
func NewSubscriptionService(api *transport.Client, logger *slog.Logger) SubscriptionService {
	return &subscriptionService{
		api:    api,
		logger: logger.With("component", "social.subscriptions"),
	}
}

func (s *subscriptionService) Follow(ctx context.Context, uid string) (FollowState, error) {
	resp, err := s.api.Post(ctx, "/v1/users/"+url.PathEscape(uid)+"/follow", nil)
	if err != nil {
		return FollowState{}, apperrors.Categorize("follow failed", err)
	}
	state, err := decodeFollowState(resp)
	if err != nil {
		return FollowState{}, err
	}
	s.logger.Info("followed", "uid", uid)
	return state, nil
}

func (s *subscriptionService) Unfollow(ctx context.Context, uid string) (FollowState, error) {
	resp, err := s.api.Delete(ctx, "/v1/users/"+url.PathEscape(uid)+"/follow")
	if err != nil {
		return FollowState{}, apperrors.Categorize("unfollow failed", err)
	}
	return decodeFollowState(resp)
}

func (s *subscriptionService) Followers(ctx context.Context, uid, cursor string, limit int) (ProfilePage, error) {
	return s.listRelation(ctx, uid, "followers", cursor, limit)
}

func (s *subscriptionService) Following(ctx context.Context, uid, cursor string, limit int) (ProfilePage, error) {
	return s.listRelation(ctx, uid, "following", cursor, limit)
}

func (s *subscriptionService) listRelation(ctx context.Context, uid, relation, cursor string, limit int) (ProfilePage, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	resp, err := s.api.Get(ctx, "/v1/users/"+url.PathEscape(uid)+"/"+relation, query)
	if err != nil {
		return ProfilePage{}, apperrors.Categorize("list "+relation+" failed", err)
	}
	var env profilesEnvelope
	if err := resp.Decode(&env); err != nil {
		return ProfilePage{}, apperrors.Categorize("list "+relation+" failed", err)
	}
	return ProfilePage{Users: env.Users, NextCursor: env.NextCursor}, nil
}

func decodeFollowState(resp *transport.Response) (FollowState, error) {
	var state FollowState
	if err := resp.Decode(&state); err != nil {
		return FollowState{}, apperrors.Categorize("decode follow state failed", err)
	}
	return state, nil
}

var _ SubscriptionService = (*subscriptionService)(nil)

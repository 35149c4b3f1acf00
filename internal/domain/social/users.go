package social

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/dope-network/dope-go/internal/transport"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

// UpdateProfileRequest edits the caller's own profile. Nil fields are left
// unchanged by the server.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

type userEnvelope struct {
	User *Profile `json:"user"`
}

// UserService reads public profiles and edits the caller's own.
type UserService interface {
	Get(ctx context.Context, uid string) (Profile, error)
	GetByUsername(ctx context.Context, username string) (Profile, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (Profile, error)
}

type userService struct {
	api    *transport.Client
	logger *slog.Logger
}

// NewUserService builds the profile client.
func NewUserService(api *transport.Client, logger *slog.Logger) UserService {
	return &userService{
		api:    api,
		logger: logger.With("component", "social.users"),
	}
}

func (s *userService) Get(ctx context.Context, uid string) (Profile, error) {
	resp, err := s.api.Get(ctx, "/v1/users/"+url.PathEscape(uid), nil)
	if err != nil {
		return Profile{}, apperrors.Categorize("fetch user failed", err)
	}
	return decodeUser(resp)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (Profile, error) {
	query := url.Values{}
	query.Set("username", username)
	resp, err := s.api.Get(ctx, "/v1/users/lookup", query)
	if err != nil {
		return Profile{}, apperrors.Categorize("lookup user failed", err)
	}
	return decodeUser(resp)
}

func (s *userService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (Profile, error) {
	resp, err := s.api.Patch(ctx, "/v1/users/me", req)
	if err != nil {
		return Profile{}, apperrors.Categorize("update profile failed", err)
	}
	updated, err := decodeUser(resp)
	if err != nil {
		return Profile{}, err
	}
	s.logger.Info("profile updated", "uid", updated.UID)
	return updated, nil
}

func decodeUser(resp *transport.Response) (Profile, error) {
	var env userEnvelope
	if err := resp.Decode(&env); err != nil {
		return Profile{}, apperrors.Categorize("decode user failed", err)
	}
	if env.User == nil {
		return Profile{}, apperrors.Wrap(apperrors.CodeInvalidResponse, "user response missing user", nil)
	}
	return *env.User, nil
}

var _ UserService = (*userService)(nil)

package social

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/dope-network/dope-go/internal/transport"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

// BusinessService reads and writes the commercial profile of an account.
type BusinessService interface {
	Get(ctx context.Context, uid string) (BusinessProfile, error)
	// Upsert creates the caller's business profile or replaces it entirely.
	Upsert(ctx context.Context, profile BusinessProfile) (BusinessProfile, error)
}

type businessService struct {
	api    *transport.Client
	logger *slog.Logger
}

// NewBusinessService builds the business-profile client.
func NewBusinessService(api *transport.Client, logger *slog.Logger) BusinessService {
	return &businessService{
		api:    api,
		logger: logger.With("component", "social.business"),
	}
}

func (s *businessService) Get(ctx context.Context, uid string) (BusinessProfile, error) {
	resp, err := s.api.Get(ctx, "/v1/business/"+url.PathEscape(uid), nil)
	if err != nil {
		return BusinessProfile{}, apperrors.Categorize("fetch business profile failed", err)
	}
	return decodeBusiness(resp)
}

func (s *businessService) Upsert(ctx context.Context, profile BusinessProfile) (BusinessProfile, error) {
	resp, err := s.api.Put(ctx, "/v1/business", profile)
	if err != nil {
		return BusinessProfile{}, apperrors.Categorize("save business profile failed", err)
	}
	saved, err := decodeBusiness(resp)
	if err != nil {
		return BusinessProfile{}, err
	}
	s.logger.Info("business profile saved", "uid", saved.UID)
	return saved, nil
}

func decodeBusiness(resp *transport.Response) (BusinessProfile, error) {
	var env businessEnvelope
	if err := resp.Decode(&env); err != nil {
		return BusinessProfile{}, apperrors.Categorize("decode business profile failed", err)
	}
	if env.Business == nil {
		return BusinessProfile{}, apperrors.Wrap(apperrors.CodeInvalidResponse, "business response missing profile", nil)
	}
	return *env.Business, nil
}

var _ BusinessService = (*businessService)(nil)

package social

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/dope-network/dope-go/internal/transport"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

// SearchService queries users, posts and tags.
type SearchService interface {
	Search(ctx context.Context, params SearchParams) (SearchResults, error)
}

type searchService struct {
	api    *transport.Client
	logger *slog.Logger
}

// NewSearchService builds the search client.
func NewSearchService(api *transport.Client, logger *slog.Logger) SearchService {
	return &searchService{
		api:    api,
		logger: logger.With("component", "social.search"),
	}
}

func (s *searchService) Search(ctx context.Context, params SearchParams) (SearchResults, error) {
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return SearchResults{}, apperrors.Wrap(apperrors.CodeInvalidInput, "search query must not be empty", nil)
	}
	values := url.Values{}
	values.Set("q", query)
	if len(params.Types) > 0 {
		values.Set("types", strings.Join(params.Types, ","))
	}
	if params.Limit > 0 {
		values.Set("limit", strconv.Itoa(params.Limit))
	}
	resp, err := s.api.Get(ctx, "/v1/search", values)
	if err != nil {
		return SearchResults{}, apperrors.Categorize("search failed", err)
	}
	var env searchEnvelope
	if err := resp.Decode(&env); err != nil {
		return SearchResults{}, apperrors.Categorize("search failed", err)
	}
	return env.Results, nil
}

var _ SearchService = (*searchService)(nil)

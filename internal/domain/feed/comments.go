package feed

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/dope-network/dope-go/internal/transport"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

// CommentService exposes the comment surface of the API.
type CommentService interface {
	List(ctx context.Context, postID string) ([]Comment, error)
	Create(ctx context.Context, postID string, req CreateCommentRequest) (Comment, error)
	Delete(ctx context.Context, commentID string) error
	Like(ctx context.Context, commentID string) (LikeResult, error)
	// Thread fetches a post's comments and assembles the reply tree.
	Thread(ctx context.Context, postID string) ([]*ThreadNode, error)
}

type commentService struct {
	api    *transport.Client
	logger *slog.Logger
}

// NewCommentService builds the comment client.
func NewCommentService(api *transport.Client, logger *slog.Logger) CommentService {
	return &commentService{
		api:    api,
		logger: logger.With("component", "feed.comments"),
	}
}

func (s *commentService) List(ctx context.Context, postID string) ([]Comment, error) {
	resp, err := s.api.Get(ctx, "/v1/posts/"+url.PathEscape(postID)+"/comments", nil)
	if err != nil {
		return nil, apperrors.Categorize("list comments failed", err)
	}
	var env commentsEnvelope
	if err := resp.Decode(&env); err != nil {
		return nil, apperrors.Categorize("list comments failed", err)
	}
	return env.Comments, nil
}

func (s *commentService) Create(ctx context.Context, postID string, req CreateCommentRequest) (Comment, error) {
	resp, err := s.api.Post(ctx, "/v1/posts/"+url.PathEscape(postID)+"/comments", req)
	if err != nil {
		return Comment{}, apperrors.Categorize("create comment failed", err)
	}
	var env commentEnvelope
	if err := resp.Decode(&env); err != nil {
		return Comment{}, apperrors.Categorize("create comment failed", err)
	}
	if env.Comment == nil {
		return Comment{}, apperrors.Wrap(apperrors.CodeInvalidResponse, "comment response missing comment", nil)
	}
	s.logger.Info("comment created", "id", env.Comment.ID, "post", postID)
	return *env.Comment, nil
}

func (s *commentService) Delete(ctx context.Context, commentID string) error {
	if _, err := s.api.Delete(ctx, "/v1/comments/"+url.PathEscape(commentID)); err != nil {
		return apperrors.Categorize("delete comment failed", err)
	}
	return nil
}

func (s *commentService) Like(ctx context.Context, commentID string) (LikeResult, error) {
	resp, err := s.api.Post(ctx, "/v1/comments/"+url.PathEscape(commentID)+"/like", nil)
	if err != nil {
		return LikeResult{}, apperrors.Categorize("like comment failed", err)
	}
	var result LikeResult
	if err := resp.Decode(&result); err != nil {
		return LikeResult{}, apperrors.Categorize("like comment failed", err)
	}
	return result, nil
}

func (s *commentService) Thread(ctx context.Context, postID string) ([]*ThreadNode, error) {
	comments, err := s.List(ctx, postID)
	if err != nil {
		return nil, err
	}
	return BuildThread(comments), nil
}

var _ CommentService = (*commentService)(nil)

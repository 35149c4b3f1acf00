package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/dope-network/dope-go/internal/transport"
	apperrors "github.com/dope-network/dope-go/pkg/errors"
)

// PostService exposes the post surface of the API.
type PostService interface {
	ListFeed(ctx context.Context, params FeedParams) (FeedPage, error)
	Get(ctx context.Context, id string) (Post, error)
	Create(ctx context.Context, req CreatePostRequest) (Post, error)
	Update(ctx context.Context, id string, req UpdatePostRequest) (Post, error)
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, id string) (LikeResult, error)
	Unlike(ctx context.Context, id string) (LikeResult, error)
	UploadAttachment(ctx context.Context, att Attachment) (string, error)
}

// Attachment is a media file staged for upload before it is referenced by a
// post.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// MediaUploader stores an attachment and returns the key a post references it
// by.
type MediaUploader interface {
	Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error)
}

type postService struct {
	api      *transport.Client
	uploader MediaUploader
	logger   *slog.Logger
}

// NewPostService builds the post client. The uploader may be nil when media
// attachments are not configured.
func NewPostService(api *transport.Client, uploader MediaUploader, logger *slog.Logger) PostService {
	return &postService{
		api:      api,
		uploader: uploader,
		logger:   logger.With("component", "feed.posts"),
	}
}

func (s *postService) ListFeed(ctx context.Context, params FeedParams) (FeedPage, error) {
	query := url.Values{}
	if params.Cursor != "" {
		query.Set("cursor", params.Cursor)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	resp, err := s.api.Get(ctx, "/v1/posts/feed", query)
	if err != nil {
		return FeedPage{}, apperrors.Categorize("list feed failed", err)
	}
	var env feedEnvelope
	if err := resp.Decode(&env); err != nil {
		return FeedPage{}, apperrors.Categorize("list feed failed", err)
	}
	return FeedPage{Posts: env.Posts, NextCursor: env.NextCursor}, nil
}

func (s *postService) Get(ctx context.Context, id string) (Post, error) {
	resp, err := s.api.Get(ctx, "/v1/posts/"+url.PathEscape(id), nil)
	if err != nil {
		return Post{}, apperrors.Categorize("fetch post failed", err)
	}
	return decodePost(resp)
}

func (s *postService) Create(ctx context.Context, req CreatePostRequest) (Post, error) {
	resp, err := s.api.Post(ctx, "/v1/posts", req)
	if err != nil {
		return Post{}, apperrors.Categorize("create post failed", err)
	}
	post, err := decodePost(resp)
	if err != nil {
		return Post{}, err
	}
	s.logger.Info("post created", "id", post.ID)
	return post, nil
}

func (s *postService) Update(ctx context.Context, id string, req UpdatePostRequest) (Post, error) {
	resp, err := s.api.Put(ctx, "/v1/posts/"+url.PathEscape(id), req)
	if err != nil {
		return Post{}, apperrors.Categorize("update post failed", err)
	}
	return decodePost(resp)
}

func (s *postService) Delete(ctx context.Context, id string) error {
	if _, err := s.api.Delete(ctx, "/v1/posts/"+url.PathEscape(id)); err != nil {
		return apperrors.Categorize("delete post failed", err)
	}
	s.logger.Info("post deleted", "id", id)
	return nil
}

func (s *postService) Like(ctx context.Context, id string) (LikeResult, error) {
	return s.likeCall(ctx, id, true)
}

func (s *postService) Unlike(ctx context.Context, id string) (LikeResult, error) {
	return s.likeCall(ctx, id, false)
}

func (s *postService) likeCall(ctx context.Context, id string, like bool) (LikeResult, error) {
	path := "/v1/posts/" + url.PathEscape(id) + "/like"
	var (
		resp *transport.Response
		err  error
	)
	if like {
		resp, err = s.api.Post(ctx, path, nil)
	} else {
		resp, err = s.api.Delete(ctx, path)
	}
	if err != nil {
		return LikeResult{}, apperrors.Categorize("like update failed", err)
	}
	var result LikeResult
	if err := resp.Decode(&result); err != nil {
		return LikeResult{}, apperrors.Categorize("like update failed", err)
	}
	return result, nil
}

// UploadAttachment stages a media file and returns its storage key for use in
// CreatePostRequest.MediaKeys.
func (s *postService) UploadAttachment(ctx context.Context, att Attachment) (string, error) {
	if s.uploader == nil {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "media uploads not configured", nil)
	}
	key, err := s.uploader.Upload(ctx, att.Filename, att.ContentType, att.Size, att.Reader)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeServerError, fmt.Sprintf("upload %s failed", att.Filename), err)
	}
	s.logger.Info("attachment uploaded", "key", key)
	return key, nil
}

func decodePost(resp *transport.Response) (Post, error) {
	var env postEnvelope
	if err := resp.Decode(&env); err != nil {
		return Post{}, apperrors.Categorize("decode post failed", err)
	}
	if env.Post == nil {
		return Post{}, apperrors.Wrap(apperrors.CodeInvalidResponse, "post response missing post", nil)
	}
	return *env.Post, nil
}

var _ PostService = (*postService)(nil)

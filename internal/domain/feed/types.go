// Package feed holds the typed clients for posts and comments plus the
// client-side comment threading assembler.
package feed

import "time"

// Author is the embedded profile snippet carried on posts and comments.
type Author struct {
	UID         string `json:"uid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
}

// PostStats carries the counters rendered next to a post.
type PostStats struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares,omitempty"`
}

// Post is a published feed entry.
type Post struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	Media     []string  `json:"media,omitempty"`
	Stats     PostStats `json:"stats"`
	LikedByMe bool      `json:"likedByMe,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// CommentStats carries the counters rendered next to a comment.
type CommentStats struct {
	Likes   int `json:"likes"`
	Replies int `json:"replies"`
}

// Comment is a flat comment record as served by the API. ParentID is empty
// for top-level comments.
type Comment struct {
	ID        string       `json:"id"`
	PostID    string       `json:"postId,omitempty"`
	Content   string       `json:"content"`
	Author    Author       `json:"author"`
	Stats     CommentStats `json:"stats"`
	ParentID  string       `json:"parentId,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ThreadNode is a comment placed in its reply tree. The assembler owns the
// tree; callers only read it.
type ThreadNode struct {
	Comment
	Depth   int
	Replies []*ThreadNode
}

// FeedParams pages through the home feed.
type FeedParams struct {
	Cursor string
	Limit  int
}

// FeedPage is one page of the home feed.
type FeedPage struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// CreatePostRequest is the payload for publishing a post. MediaKeys reference
// previously uploaded attachments.
type CreatePostRequest struct {
	Content   string   `json:"content"`
	MediaKeys []string `json:"media,omitempty"`
}

// UpdatePostRequest edits the body of an existing post.
type UpdatePostRequest struct {
	Content string `json:"content"`
}

// CreateCommentRequest adds a comment to a post. ParentID nests it under an
// existing comment.
type CreateCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parentId,omitempty"`
}

// LikeResult is the counter state after a like or unlike.
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

type postEnvelope struct {
	Post *Post `json:"post"`
}

type feedEnvelope struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"nextCursor"`
}

type commentEnvelope struct {
	Comment *Comment `json:"comment"`
}

type commentsEnvelope struct {
	Comments []Comment `json:"comments"`
}

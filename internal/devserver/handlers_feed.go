package devserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dope-network/dope-go/internal/domain/feed"
	"github.com/dope-network/dope-go/internal/domain/social"
)

func (s *Server) currentAuthor(c *gin.Context) (feed.Author, bool) {
	acct, found, err := s.accounts.GetByUID(c.Request.Context(), currentUID(c))
	if err != nil || !found {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "account no longer exists", err))
		return feed.Author{}, false
	}
	return feed.Author{
		UID:         acct.UID,
		Username:    acct.Username,
		DisplayName: acct.DisplayName,
		AvatarURL:   acct.AvatarURL,
		Verified:    acct.Verified,
	}, true
}

func (s *Server) handleFeed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	posts, next := s.content.Feed(c.Query("cursor"), limit)
	c.JSON(http.StatusOK, gin.H{"posts": posts, "nextCursor": next})
}

func (s *Server) handleCreatePost(c *gin.Context) {
	var req struct {
		Content string   `json:"content"`
		Media   []string `json:"media"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		abortWithError(c, NewHTTPError(http.StatusUnprocessableEntity, "invalid_input", "post content must not be empty", err))
		return
	}
	author, ok := s.currentAuthor(c)
	if !ok {
		return
	}
	post := s.content.CreatePost(author, req.Content, req.Media)
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

func (s *Server) handleGetPost(c *gin.Context) {
	post, ok := s.content.GetPost(c.Param("id"))
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "post not found", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (s *Server) handleUpdatePost(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		abortWithError(c, NewHTTPError(http.StatusUnprocessableEntity, "invalid_input", "post content must not be empty", err))
		return
	}
	post, ok := s.content.UpdatePost(c.Param("id"), currentUID(c), req.Content)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "post not found or not yours", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (s *Server) handleDeletePost(c *gin.Context) {
	if !s.content.DeletePost(c.Param("id"), currentUID(c)) {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "post not found or not yours", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleLikePost(c *gin.Context) {
	s.likePost(c, true)
}

func (s *Server) handleUnlikePost(c *gin.Context) {
	s.likePost(c, false)
}

func (s *Server) likePost(c *gin.Context, like bool) {
	author, ok := s.currentAuthor(c)
	if !ok {
		return
	}
	result, ownerUID, ok := s.content.LikePost(c.Param("id"), author.UID, like)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "post not found", nil))
		return
	}
	if like {
		s.content.Notify(ownerUID, social.Notification{
			Kind:      "like",
			Actor:     &social.Profile{UID: author.UID, Username: author.Username},
			SubjectID: c.Param("id"),
		})
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListComments(c *gin.Context) {
	if _, ok := s.content.GetPost(c.Param("id")); !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "post not found", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": s.content.CommentsForPost(c.Param("id"))})
}

func (s *Server) handleCreateComment(c *gin.Context) {
	var req struct {
		Content  string `json:"content"`
		ParentID string `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		abortWithError(c, NewHTTPError(http.StatusUnprocessableEntity, "invalid_input", "comment content must not be empty", err))
		return
	}
	author, ok := s.currentAuthor(c)
	if !ok {
		return
	}
	comment, ownerUID, ok := s.content.CreateComment(c.Param("id"), author, req.Content, req.ParentID)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "post not found", nil))
		return
	}
	s.content.Notify(ownerUID, social.Notification{
		Kind:      "reply",
		Actor:     &social.Profile{UID: author.UID, Username: author.Username},
		SubjectID: comment.PostID,
		Message:   req.Content,
	})
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	if !s.content.DeleteComment(c.Param("id"), currentUID(c)) {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "comment not found or not yours", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleLikeComment(c *gin.Context) {
	result, ok := s.content.LikeComment(c.Param("id"), currentUID(c))
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "comment not found", nil))
		return
	}
	c.JSON(http.StatusOK, result)
}

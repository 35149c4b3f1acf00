package devserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dope-network/dope-go/internal/domain/social"
)

func (s *Server) accountProfile(c *gin.Context, uid string) (social.Profile, bool) {
	acct, found, err := s.accounts.GetByUID(c.Request.Context(), uid)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to load account", err))
		return social.Profile{}, false
	}
	if !found {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "user not found", nil))
		return social.Profile{}, false
	}
	return social.Profile{
		UID:         acct.UID,
		Username:    acct.Username,
		DisplayName: acct.DisplayName,
		AvatarURL:   acct.AvatarURL,
		Bio:         acct.Bio,
		Verified:    acct.Verified,
		CreatedAt:   acct.CreatedAt,
	}, true
}

func (s *Server) handleNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	inbox := s.content.Notifications(currentUID(c), unreadOnly)
	c.JSON(http.StatusOK, gin.H{"notifications": inbox, "nextCursor": ""})
}

func (s *Server) handleMarkRead(c *gin.Context) {
	if !s.content.MarkRead(currentUID(c), c.Param("id")) {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "notification not found", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleMarkAllRead(c *gin.Context) {
	s.content.MarkRead(currentUID(c), "")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleUnreadCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"unread": s.content.UnreadCount(currentUID(c))})
}

func (s *Server) handleSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "q is required", nil))
		return
	}
	types := map[string]bool{}
	for _, t := range strings.Split(c.Query("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			types[t] = true
		}
	}
	all := len(types) == 0

	results := social.SearchResults{}
	if all || types["users"] {
		if acct, found, err := s.accounts.GetByUsername(c.Request.Context(), query); err == nil && found {
			results.Users = []social.Profile{{
				UID:         acct.UID,
				Username:    acct.Username,
				DisplayName: acct.DisplayName,
				Verified:    acct.Verified,
			}}
		}
	}
	if all || types["posts"] {
		results.Posts = s.content.SearchPosts(query, 25)
	}
	if all || types["tags"] {
		results.Tags = s.content.SearchTags(query)
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleLookupUser(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "username is required", nil))
		return
	}
	acct, found, err := s.accounts.GetByUsername(c.Request.Context(), username)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to load account", err))
		return
	}
	if !found {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "user not found", nil))
		return
	}
	profile, ok := s.accountProfile(c, acct.UID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (s *Server) handleGetUser(c *gin.Context) {
	profile, ok := s.accountProfile(c, c.Param("uid"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req struct {
		DisplayName *string `json:"displayName"`
		Bio         *string `json:"bio"`
		AvatarURL   *string `json:"avatarUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "malformed profile payload", err))
		return
	}
	acct, found, err := s.accounts.GetByUID(c.Request.Context(), currentUID(c))
	if err != nil || !found {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "account no longer exists", err))
		return
	}
	if req.DisplayName != nil {
		acct.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		acct.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		acct.AvatarURL = *req.AvatarURL
	}
	if err := s.accounts.Update(c.Request.Context(), acct); err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "storage_error", "failed to update profile", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": accountUser(acct)})
}

func (s *Server) handleFollow(c *gin.Context) {
	s.follow(c, true)
}

func (s *Server) handleUnfollow(c *gin.Context) {
	s.follow(c, false)
}

func (s *Server) follow(c *gin.Context, follow bool) {
	target, ok := s.accountProfile(c, c.Param("uid"))
	if !ok {
		return
	}
	me := currentUID(c)
	if target.UID == me {
		abortWithError(c, NewHTTPError(http.StatusUnprocessableEntity, "invalid_input", "cannot follow yourself", nil))
		return
	}
	state := s.content.Follow(me, target.UID, follow)
	if follow {
		actor, ok := s.accountProfile(c, me)
		if !ok {
			return
		}
		s.content.Notify(target.UID, social.Notification{
			Kind:  "follow",
			Actor: &actor,
		})
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) handleFollowers(c *gin.Context) {
	s.listRelation(c, "followers")
}

func (s *Server) handleFollowing(c *gin.Context) {
	s.listRelation(c, "following")
}

func (s *Server) listRelation(c *gin.Context, relation string) {
	if _, ok := s.accountProfile(c, c.Param("uid")); !ok {
		return
	}
	uids := s.content.Relations(c.Param("uid"), relation)
	users := make([]social.Profile, 0, len(uids))
	for _, uid := range uids {
		if acct, found, err := s.accounts.GetByUID(c.Request.Context(), uid); err == nil && found {
			users = append(users, social.Profile{
				UID:         acct.UID,
				Username:    acct.Username,
				DisplayName: acct.DisplayName,
				Verified:    acct.Verified,
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "nextCursor": ""})
}

func (s *Server) handleGetBusiness(c *gin.Context) {
	profile, ok := s.content.Business(c.Param("uid"))
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "not_found", "business profile not found", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": profile})
}

func (s *Server) handleUpsertBusiness(c *gin.Context) {
	var profile social.BusinessProfile
	if err := c.ShouldBindJSON(&profile); err != nil || strings.TrimSpace(profile.Name) == "" {
		abortWithError(c, NewHTTPError(http.StatusUnprocessableEntity, "invalid_input", "business name must not be empty", err))
		return
	}
	profile.UID = currentUID(c)
	c.JSON(http.StatusOK, gin.H{"business": s.content.UpsertBusiness(profile)})
}

package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dope-network/dope-go/internal/domain/feed"
	"github.com/dope-network/dope-go/internal/domain/social"
)

// ContentStore holds all non-account state of the stub: posts, comments,
// likes, follows, notifications and business profiles. Everything lives in
// process memory behind one mutex; the stub favors simplicity over scale.
type ContentStore struct {
	mu            sync.Mutex
	posts         map[string]*feed.Post
	postOrder     []string
	comments      map[string]*feed.Comment
	postLikes     map[string]map[string]bool        // post id -> uid set
	commentLikes  map[string]map[string]bool
	follows       map[string]map[string]bool        // uid -> followed uid set
	notifications map[string][]social.Notification  // recipient uid -> inbox
	business      map[string]social.BusinessProfile
	now           func() time.Time
}

// NewContentStore constructs an empty store.
func NewContentStore() *ContentStore {
	return &ContentStore{
		posts:         make(map[string]*feed.Post),
		comments:      make(map[string]*feed.Comment),
		postLikes:     make(map[string]map[string]bool),
		commentLikes:  make(map[string]map[string]bool),
		follows:       make(map[string]map[string]bool),
		notifications: make(map[string][]social.Notification),
		business:      make(map[string]social.BusinessProfile),
		now:           time.Now,
	}
}

func (s *ContentStore) CreatePost(author feed.Author, content string, media []string) feed.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	post := &feed.Post{
		ID:        uuid.NewString(),
		Author:    author,
		Content:   content,
		Media:     media,
		CreatedAt: s.now().UTC(),
	}
	s.posts[post.ID] = post
	s.postOrder = append(s.postOrder, post.ID)
	return *post
}

func (s *ContentStore) GetPost(id string) (feed.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return feed.Post{}, false
	}
	return *post, true
}

func (s *ContentStore) UpdatePost(id, authorUID, content string) (feed.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok || post.Author.UID != authorUID {
		return feed.Post{}, false
	}
	post.Content = content
	post.UpdatedAt = s.now().UTC()
	return *post, true
}

func (s *ContentStore) DeletePost(id, authorUID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok || post.Author.UID != authorUID {
		return false
	}
	delete(s.posts, id)
	for i, pid := range s.postOrder {
		if pid == id {
			s.postOrder = append(s.postOrder[:i], s.postOrder[i+1:]...)
			break
		}
	}
	for cid, comment := range s.comments {
		if comment.PostID == id {
			delete(s.comments, cid)
		}
	}
	return true
}

// Feed pages newest-first. The cursor is the id of the last post of the
// previous page.
func (s *ContentStore) Feed(cursor string, limit int) ([]feed.Post, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	ordered := make([]*feed.Post, 0, len(s.posts))
	for _, id := range s.postOrder {
		if post, ok := s.posts[id]; ok {
			ordered = append(ordered, post)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	start := 0
	if cursor != "" {
		for i, post := range ordered {
			if post.ID == cursor {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(ordered) {
		end = len(ordered)
	}

	page := make([]feed.Post, 0, end-start)
	for _, post := range ordered[start:end] {
		page = append(page, *post)
	}
	next := ""
	if end < len(ordered) && len(page) > 0 {
		next = page[len(page)-1].ID
	}
	return page, next
}

func (s *ContentStore) LikePost(id, uid string, like bool) (feed.LikeResult, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return feed.LikeResult{}, "", false
	}
	likes := s.postLikes[id]
	if likes == nil {
		likes = make(map[string]bool)
		s.postLikes[id] = likes
	}
	if like {
		likes[uid] = true
	} else {
		delete(likes, uid)
	}
	post.Stats.Likes = len(likes)
	return feed.LikeResult{Likes: len(likes), Liked: likes[uid]}, post.Author.UID, true
}

func (s *ContentStore) CreateComment(postID string, author feed.Author, content, parentID string) (feed.Comment, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return feed.Comment{}, "", false
	}
	comment := &feed.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Content:   content,
		Author:    author,
		ParentID:  parentID,
		CreatedAt: s.now().UTC(),
	}
	s.comments[comment.ID] = comment
	post.Stats.Comments++
	if parentID != "" {
		if parent, ok := s.comments[parentID]; ok {
			parent.Stats.Replies++
		}
	}
	return *comment, post.Author.UID, true
}

func (s *ContentStore) CommentsForPost(postID string) []feed.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]feed.Comment, 0)
	for _, comment := range s.comments {
		if comment.PostID == postID {
			out = append(out, *comment)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *ContentStore) DeleteComment(id, authorUID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok || comment.Author.UID != authorUID {
		return false
	}
	delete(s.comments, id)
	if post, ok := s.posts[comment.PostID]; ok && post.Stats.Comments > 0 {
		post.Stats.Comments--
	}
	return true
}

func (s *ContentStore) LikeComment(id, uid string) (feed.LikeResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return feed.LikeResult{}, false
	}
	likes := s.commentLikes[id]
	if likes == nil {
		likes = make(map[string]bool)
		s.commentLikes[id] = likes
	}
	likes[uid] = true
	comment.Stats.Likes = len(likes)
	return feed.LikeResult{Likes: len(likes), Liked: true}, true
}

// Follow records the relation and reports the new state plus the follower
// count of the target.
func (s *ContentStore) Follow(followerUID, targetUID string, follow bool) social.FollowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.follows[followerUID]
	if set == nil {
		set = make(map[string]bool)
		s.follows[followerUID] = set
	}
	if follow {
		set[targetUID] = true
	} else {
		delete(set, targetUID)
	}
	return social.FollowState{Following: set[targetUID], Followers: s.followerCountLocked(targetUID)}
}

func (s *ContentStore) followerCountLocked(uid string) int {
	count := 0
	for _, set := range s.follows {
		if set[uid] {
			count++
		}
	}
	return count
}

func (s *ContentStore) Relations(uid, relation string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	if relation == "following" {
		for target := range s.follows[uid] {
			out = append(out, target)
		}
	} else {
		for follower, set := range s.follows {
			if set[uid] {
				out = append(out, follower)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (s *ContentStore) Notify(recipientUID string, n social.Notification) {
	if recipientUID == "" || recipientUID == actorUID(n) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = s.now().UTC()
	s.notifications[recipientUID] = append(s.notifications[recipientUID], n)
}

func actorUID(n social.Notification) string {
	if n.Actor == nil {
		return ""
	}
	return n.Actor.UID
}

func (s *ContentStore) Notifications(uid string, unreadOnly bool) []social.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	inbox := s.notifications[uid]
	out := make([]social.Notification, 0, len(inbox))
	for i := len(inbox) - 1; i >= 0; i-- { // newest first
		if unreadOnly && inbox[i].Read {
			continue
		}
		out = append(out, inbox[i])
	}
	return out
}

func (s *ContentStore) MarkRead(uid, notificationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	inbox := s.notifications[uid]
	for i := range inbox {
		if notificationID == "" || inbox[i].ID == notificationID {
			inbox[i].Read = true
			if notificationID != "" {
				return true
			}
		}
	}
	return notificationID == ""
}

func (s *ContentStore) UnreadCount(uid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications[uid] {
		if !n.Read {
			count++
		}
	}
	return count
}

// SearchPosts matches post content case-insensitively.
func (s *ContentStore) SearchPosts(query string, limit int) []social.SearchPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(query)
	var out []social.SearchPost
	for _, id := range s.postOrder {
		post, ok := s.posts[id]
		if !ok || !strings.Contains(strings.ToLower(post.Content), needle) {
			continue
		}
		out = append(out, social.SearchPost{
			ID:        post.ID,
			Content:   post.Content,
			Author:    social.Profile{UID: post.Author.UID, Username: post.Author.Username},
			CreatedAt: post.CreatedAt,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// SearchTags counts posts per hashtag matching the query.
func (s *ContentStore) SearchTags(query string) []social.TagResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(strings.TrimPrefix(query, "#"))
	counts := make(map[string]int)
	for _, post := range s.posts {
		for _, word := range strings.Fields(post.Content) {
			if !strings.HasPrefix(word, "#") {
				continue
			}
			tag := strings.ToLower(strings.Trim(word, "#.,!?"))
			if tag == "" || !strings.Contains(tag, needle) {
				continue
			}
			counts[tag]++
		}
	}
	out := make([]social.TagResult, 0, len(counts))
	for tag, n := range counts {
		out = append(out, social.TagResult{Tag: tag, Posts: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Posts != out[j].Posts {
			return out[i].Posts > out[j].Posts
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

func (s *ContentStore) Business(uid string) (social.BusinessProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.business[uid]
	return profile, ok
}

func (s *ContentStore) UpsertBusiness(profile social.BusinessProfile) social.BusinessProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business[profile.UID] = profile
	return profile
}

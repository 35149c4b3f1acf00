// Package social holds the typed clients for notifications, search,
// subscriptions and business profiles.
package social

import "time"

// Profile is the public shape of another account.
type Profile struct {
	UID         string    `json:"uid"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Verified    bool      `json:"verified,omitempty"`
	Followers   int       `json:"followers,omitempty"`
	Following   int       `json:"following,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Notification is a single inbox entry. Kind is server-defined (like, reply,
// follow, mention, system).
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Actor     *Profile  `json:"actor,omitempty"`
	SubjectID string    `json:"subjectId,omitempty"`
	Message   string    `json:"message,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationPage is one page of the inbox.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	NextCursor    string         `json:"nextCursor,omitempty"`
}

// NotificationParams pages through the inbox. UnreadOnly narrows to unread
// entries.
type NotificationParams struct {
	Cursor     string
	Limit      int
	UnreadOnly bool
}

// SearchResults groups hits by resource.
type SearchResults struct {
	Users []Profile    `json:"users,omitempty"`
	Posts []SearchPost `json:"posts,omitempty"`
	Tags  []TagResult  `json:"tags,omitempty"`
}

// SearchPost is the trimmed post shape returned by search.
type SearchPost struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    Profile   `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// TagResult is a hashtag hit with its usage count.
type TagResult struct {
	Tag   string `json:"tag"`
	Posts int    `json:"posts"`
}

// SearchParams narrows a query. Types selects the resources to search; empty
// means all.
type SearchParams struct {
	Query string
	Types []string
	Limit int
}

// FollowState is the relation between the caller and another account after a
// follow or unfollow.
type FollowState struct {
	Following bool `json:"following"`
	Followers int  `json:"followers"`
}

// BusinessProfile is the commercial extension of an account.
type BusinessProfile struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
}

type notificationsEnvelope struct {
	Notifications []Notification `json:"notifications"`
	NextCursor    string         `json:"nextCursor"`
}

type unreadEnvelope struct {
	Unread int `json:"unread"`
}

type searchEnvelope struct {
	Results SearchResults `json:"results"`
}

type profilesEnvelope struct {
	Users      []Profile `json:"users"`
	NextCursor string    `json:"nextCursor"`
}

// ProfilePage is one page of a follower or following list.
type ProfilePage struct {
	Users      []Profile `json:"users"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

type businessEnvelope struct {
	Business *BusinessProfile `json:"business"`
}

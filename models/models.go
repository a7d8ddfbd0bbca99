// minber/models/models.go
package models

import "time"

// --- Enumerated values ---

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	BanTemporary = "temporary"
	BanPermanent = "permanent"
)

const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

// ValidReportStatus reports whether s is a known report status.
func ValidReportStatus(s string) bool {
	switch s {
	case ReportPending, ReportReviewed, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// ReactionKind distinguishes the two toggleable reaction types.
type ReactionKind string

const (
	ReactionLike     ReactionKind = "like"
	ReactionBookmark ReactionKind = "bookmark"
)

// --- Target references ---

// TargetKind identifies which content table a TargetRef points into.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetRequest TargetKind = "request"
)

// TargetRef is a tagged reference to exactly one content item, either a
// post or a prayer request. Constructing one through PostTarget or
// RequestTarget guarantees the exactly-one invariant structurally.
type TargetRef struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

func PostTarget(id string) TargetRef    { return TargetRef{Kind: TargetPost, ID: id} }
func RequestTarget(id string) TargetRef { return TargetRef{Kind: TargetRequest, ID: id} }

// Valid reports whether the ref carries a known kind and a non-empty ID.
func (t TargetRef) Valid() bool {
	return t.ID != "" && (t.Kind == TargetPost || t.Kind == TargetRequest)
}

// --- Core Data Models ---

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	IsVerified   bool      `json:"is_verified"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"` // "text", "image" or "video"
	MediaURL  string    `json:"media_url,omitempty"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

type PrayerRequest struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Target    TargetRef `json:"target"`
	Content   string    `json:"content"`
	IsPrayer  bool      `json:"is_prayer"`
	CreatedAt time.Time `json:"created_at"`
}

type Reaction struct {
	ID        string       `json:"id"`
	Kind      ReactionKind `json:"kind"`
	UserID    string       `json:"user_id"`
	Target    TargetRef    `json:"target"`
	CreatedAt time.Time    `json:"created_at"`
}

type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Membership struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Attendance struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Moderation & Trust Models ---

type Report struct {
	ID             string     `json:"id"`
	ReporterID     string     `json:"reporter_id"`
	ReportedUserID string     `json:"reported_user_id"`
	Target         *TargetRef `json:"target,omitempty"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	AdminNotes     string     `json:"admin_notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Ban struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Reason    string     `json:"reason"`
	Type      string     `json:"type"` // "temporary" or "permanent"
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}

// --- Joined read models ---

type PostWithAuthor struct {
	Post
	Author User `json:"author"`
}

type RequestWithAuthor struct {
	PrayerRequest
	Author User `json:"author"`
}

type CommentWithAuthor struct {
	Comment
	Author User `json:"author"`
}

type CommunityWithOwner struct {
	Community
	Owner User `json:"owner"`
}

type EventWithOwner struct {
	Event
	Owner User `json:"owner"`
}

// ReportDetail is a report joined with its participants and, when the
// report references a content item, that item.
type ReportDetail struct {
	Report
	Reporter     User           `json:"reporter"`
	ReportedUser User           `json:"reported_user"`
	Post         *Post          `json:"post,omitempty"`
	Request      *PrayerRequest `json:"request,omitempty"`
}

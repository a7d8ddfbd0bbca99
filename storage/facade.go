// minber/storage/facade.go
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"minber/config"
	"minber/database"
	"minber/models"
	"minber/utils"

	"github.com/google/uuid"
)

// failoverOps names the operations allowed to retry on the secondary
// backend when the primary is unreachable. Reports are the one write
// that must never be lost, so they are the one write that fails over.
var failoverOps = map[string]bool{
	"createReport": true,
}

// Service is the storage facade. All adapter routing lives here: reads
// and ordinary writes go to the primary, and the secondary is only
// consulted for operations listed in failoverOps. Lookups that find
// nothing return (nil, nil).
type Service struct {
	primary   database.Adapter
	secondary database.Adapter

	toggles *ToggleEngine
	bans    *BanRegistry
	gate    *ModerationGate
	reports *ReportLifecycle

	logger *slog.Logger
	now    func() time.Time
}

func NewService(primary, secondary database.Adapter, logger *slog.Logger) *Service {
	now := utils.GetSQLTime
	return &Service{
		primary:   primary,
		secondary: secondary,
		toggles:   NewToggleEngine(logger, now),
		bans:      NewBanRegistry(logger, now),
		gate:      NewModerationGate(),
		reports:   NewReportLifecycle(logger, now),
		logger:    logger,
		now:       now,
	}
}

// writeBackends lists the adapters an operation may use, in order.
func (s *Service) writeBackends(op string) []database.Adapter {
	if failoverOps[op] && s.secondary != nil {
		return []database.Adapter{s.primary, s.secondary}
	}
	return []database.Adapter{s.primary}
}

// checkWritable rejects writes from currently banned users.
func (s *Service) checkWritable(ctx context.Context, userID string) error {
	ban, err := s.bans.ActiveBan(ctx, s.primary, userID)
	if err != nil {
		return fmt.Errorf("ban lookup failed: %w", err)
	}
	if ban != nil {
		return &BanError{Reason: ban.Reason, ExpiresAt: ban.ExpiresAt}
	}
	return nil
}

// gateContent runs the moderation rules. The ban check always runs
// before this, so a banned author is told about the ban rather than a
// content violation.
func (s *Service) gateContent(content string) (Decision, error) {
	d := s.gate.Evaluate(content)
	if !d.Allowed {
		return d, &ModerationError{Reason: d.Reason}
	}
	return d, nil
}

func (s *Service) flagIfNeeded(ctx context.Context, d Decision, authorID string, target models.TargetRef) {
	// A failed auto-flag must not undo the stored content.
	if err := s.gate.FlagAfterInsert(ctx, s.primary, s.reports, d, authorID, target); err != nil {
		s.logger.Error("Auto-flag report failed", "user_id", authorID, "error", err)
	}
}

// userCache memoizes user lookups within a single request.
type userCache map[string]models.User

func (s *Service) cachedUser(ctx context.Context, cache userCache, id string) (models.User, error) {
	if u, ok := cache[id]; ok {
		return u, nil
	}
	row, err := s.primary.Get(ctx, "users", id)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	if row != nil {
		u = userFromRow(row)
	}
	cache[id] = u
	return u, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return config.DefaultListLimit
	}
	if limit > config.MaxListLimit {
		return config.MaxListLimit
	}
	return limit
}

// --- Users ---

func (s *Service) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	if user.Username == "" || user.Email == "" {
		return nil, fmt.Errorf("username and email are required")
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	now := s.now()
	row, err := s.primary.Insert(ctx, "users", database.Row{
		"id":            uuid.New().String(),
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"display_name":  user.DisplayName,
		"avatar_url":    user.AvatarURL,
		"bio":           user.Bio,
		"is_verified":   user.IsVerified,
		"role":          user.Role,
		"created_at":    now,
		"updated_at":    now,
	})
	if err != nil {
		return nil, err
	}
	created := userFromRow(row)
	s.logger.Info("User created", "user_id", created.ID, "username", created.Username)
	return &created, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	row, err := s.primary.Get(ctx, "users", id)
	if err != nil || row == nil {
		return nil, err
	}
	u := userFromRow(row)
	return &u, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, database.Row{"username": username})
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, database.Row{"email": email})
}

func (s *Service) findUser(ctx context.Context, filter database.Row) (*models.User, error) {
	rows, err := s.primary.Query(ctx, "users", filter, "", false, 1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	u := userFromRow(rows[0])
	return &u, nil
}

// UserUpdate carries the mutable profile fields. Nil means unchanged.
type UserUpdate struct {
	DisplayName *string
	AvatarURL   *string
	Bio         *string
}

func (s *Service) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	patch := database.Row{"updated_at": s.now()}
	if upd.DisplayName != nil {
		patch["display_name"] = *upd.DisplayName
	}
	if upd.AvatarURL != nil {
		patch["avatar_url"] = *upd.AvatarURL
	}
	if upd.Bio != nil {
		patch["bio"] = *upd.Bio
	}
	row, err := s.primary.Update(ctx, "users", id, patch)
	if err != nil || row == nil {
		return nil, err
	}
	u := userFromRow(row)
	return &u, nil
}

// --- Posts ---

func (s *Service) GetPosts(ctx context.Context, limit int) ([]models.PostWithAuthor, error) {
	rows, err := s.primary.Query(ctx, "posts", nil, "created_at", true, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	cache := userCache{}
	out := make([]models.PostWithAuthor, 0, len(rows))
	for _, r := range rows {
		p := postFromRow(r)
		author, err := s.cachedUser(ctx, cache, p.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.PostWithAuthor{Post: p, Author: author})
	}
	return out, nil
}

func (s *Service) GetPost(ctx context.Context, id string) (*models.PostWithAuthor, error) {
	row, err := s.primary.Get(ctx, "posts", id)
	if err != nil || row == nil {
		return nil, err
	}
	p := postFromRow(row)
	author, err := s.cachedUser(ctx, userCache{}, p.UserID)
	if err != nil {
		return nil, err
	}
	return &models.PostWithAuthor{Post: p, Author: author}, nil
}

func (s *Service) CreatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	if err := s.checkWritable(ctx, post.UserID); err != nil {
		return nil, err
	}
	decision, err := s.gateContent(post.Content)
	if err != nil {
		return nil, err
	}
	if post.Type == "" {
		post.Type = "text"
	}
	row, err := s.primary.Insert(ctx, "posts", database.Row{
		"id":         uuid.New().String(),
		"user_id":    post.UserID,
		"content":    post.Content,
		"type":       post.Type,
		"media_url":  post.MediaURL,
		"category":   post.Category,
		"tags":       encodeTags(post.Tags),
		"created_at": s.now(),
	})
	if err != nil {
		return nil, err
	}
	created := postFromRow(row)
	s.flagIfNeeded(ctx, decision, created.UserID, models.PostTarget(created.ID))
	return &created, nil
}

func (s *Service) DeletePost(ctx context.Context, id string) (bool, error) {
	return s.primary.Delete(ctx, "posts", id)
}

// --- Prayer requests ---

func (s *Service) GetRequests(ctx context.Context, limit int) ([]models.RequestWithAuthor, error) {
	rows, err := s.primary.Query(ctx, "prayer_requests", nil, "created_at", true, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	cache := userCache{}
	out := make([]models.RequestWithAuthor, 0, len(rows))
	for _, r := range rows {
		pr := requestFromRow(r)
		author, err := s.cachedUser(ctx, cache, pr.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.RequestWithAuthor{PrayerRequest: pr, Author: author})
	}
	return out, nil
}

func (s *Service) GetRequest(ctx context.Context, id string) (*models.RequestWithAuthor, error) {
	row, err := s.primary.Get(ctx, "prayer_requests", id)
	if err != nil || row == nil {
		return nil, err
	}
	pr := requestFromRow(row)
	author, err := s.cachedUser(ctx, userCache{}, pr.UserID)
	if err != nil {
		return nil, err
	}
	return &models.RequestWithAuthor{PrayerRequest: pr, Author: author}, nil
}

func (s *Service) CreateRequest(ctx context.Context, req models.PrayerRequest) (*models.PrayerRequest, error) {
	if err := s.checkWritable(ctx, req.UserID); err != nil {
		return nil, err
	}
	decision, err := s.gateContent(req.Content)
	if err != nil {
		return nil, err
	}
	row, err := s.primary.Insert(ctx, "prayer_requests", database.Row{
		"id":         uuid.New().String(),
		"user_id":    req.UserID,
		"content":    req.Content,
		"category":   req.Category,
		"created_at": s.now(),
	})
	if err != nil {
		return nil, err
	}
	created := requestFromRow(row)
	s.flagIfNeeded(ctx, decision, created.UserID, models.RequestTarget(created.ID))
	return &created, nil
}

func (s *Service) DeleteRequest(ctx context.Context, id string) (bool, error) {
	return s.primary.Delete(ctx, "prayer_requests", id)
}

// --- Comments ---

func (s *Service) GetComments(ctx context.Context, target models.TargetRef) ([]models.CommentWithAuthor, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("invalid comment target")
	}
	postID, requestID := targetValues(target)
	rows, err := s.primary.Query(ctx, "comments", database.Row{
		"post_id":    postID,
		"request_id": requestID,
	}, "created_at", false, 0)
	if err != nil {
		return nil, err
	}
	cache := userCache{}
	out := make([]models.CommentWithAuthor, 0, len(rows))
	for _, r := range rows {
		c := commentFromRow(r)
		author, err := s.cachedUser(ctx, cache, c.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.CommentWithAuthor{Comment: c, Author: author})
	}
	return out, nil
}

func (s *Service) CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error) {
	if !comment.Target.Valid() {
		return nil, fmt.Errorf("invalid comment target")
	}
	if err := s.checkWritable(ctx, comment.UserID); err != nil {
		return nil, err
	}
	if _, err := s.gateContent(comment.Content); err != nil {
		return nil, err
	}
	postID, requestID := targetValues(comment.Target)
	row, err := s.primary.Insert(ctx, "comments", database.Row{
		"id":         uuid.New().String(),
		"user_id":    comment.UserID,
		"post_id":    postID,
		"request_id": requestID,
		"content":    comment.Content,
		"is_prayer":  comment.IsPrayer,
		"created_at": s.now(),
	})
	if err != nil {
		return nil, err
	}
	created := commentFromRow(row)
	return &created, nil
}

// --- Reactions ---

func (s *Service) ToggleLike(ctx context.Context, userID string, target models.TargetRef) (bool, error) {
	return s.toggles.Toggle(ctx, s.primary, models.ReactionLike, userID, target)
}

func (s *Service) ToggleBookmark(ctx context.Context, userID string, target models.TargetRef) (bool, error) {
	return s.toggles.Toggle(ctx, s.primary, models.ReactionBookmark, userID, target)
}

func (s *Service) HasReaction(ctx context.Context, kind models.ReactionKind, userID string, target models.TargetRef) (bool, error) {
	return s.toggles.Has(ctx, s.primary, kind, userID, target)
}

func (s *Service) CountReactions(ctx context.Context, kind models.ReactionKind, target models.TargetRef) (int, error) {
	entity, err := reactionEntity(kind)
	if err != nil {
		return 0, err
	}
	postID, requestID := targetValues(target)
	rows, err := s.primary.Query(ctx, entity, database.Row{
		"post_id":    postID,
		"request_id": requestID,
	}, "", false, 0)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// GetBookmarkedPosts returns the posts a user bookmarked, newest
// bookmark first. Bookmarks pointing at since-deleted posts are
// skipped.
func (s *Service) GetBookmarkedPosts(ctx context.Context, userID string) ([]models.PostWithAuthor, error) {
	rows, err := s.primary.Query(ctx, "bookmarks", database.Row{"user_id": userID}, "created_at", true, 0)
	if err != nil {
		return nil, err
	}
	cache := userCache{}
	out := []models.PostWithAuthor{}
	for _, r := range rows {
		t := targetFromRow(r)
		if t == nil || t.Kind != models.TargetPost {
			continue
		}
		row, err := s.primary.Get(ctx, "posts", t.ID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			continue
		}
		p := postFromRow(row)
		author, err := s.cachedUser(ctx, cache, p.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.PostWithAuthor{Post: p, Author: author})
	}
	return out, nil
}

func (s *Service) GetBookmarkedRequests(ctx context.Context, userID string) ([]models.RequestWithAuthor, error) {
	rows, err := s.primary.Query(ctx, "bookmarks", database.Row{"user_id": userID}, "created_at", true, 0)
	if err != nil {
		return nil, err
	}
	cache := userCache{}
	out := []models.RequestWithAuthor{}
	for _, r := range rows {
		t := targetFromRow(r)
		if t == nil || t.Kind != models.TargetRequest {
			continue
		}
		row, err := s.primary.Get(ctx, "prayer_requests", t.ID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			continue
		}
		pr := requestFromRow(row)
		author, err := s.cachedUser(ctx, cache, pr.UserID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.RequestWithAuthor{PrayerRequest: pr, Author: author})
	}
	return out, nil
}

// --- Communities ---

func (s *Service) GetCommunities(ctx context.Context) ([]models.CommunityWithOwner, error) {
	rows, err := s.primary.Query(ctx, "communities", nil, "created_at", true, 0)
	if err != nil {
		return nil, err
	}
	cache := userCache{}
	out := make([]models.CommunityWithOwner, 0, len(rows))
	for _, r := range rows {
		c := communityFromRow(r)
		owner, err := s.cachedUser(ctx, cache, c.CreatedBy)
		if err != nil {
			return nil, err
		}
		out = append(out, models.CommunityWithOwner{Community: c, Owner: owner})
	}
	return out, nil
}

func (s *Service) CreateCommunity(ctx context.Context, c models.Community) (*models.Community, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("community name is required")
	}
	if err := s.checkWritable(ctx, c.CreatedBy); err != nil {
		return nil, err
	}
	row, err := s.primary.Insert(ctx, "communities", database.Row{
		"id":          uuid.New().String(),
		"name":        c.Name,
		"description": c.Description,
		"created_by":  c.CreatedBy,
		"created_at":  s.now(),
	})
	if err != nil {
		return nil, err
	}
	created := communityFromRow(row)
	// The creator joins their own community immediately.
	if _, err := s.JoinCommunity(ctx, created.ID, c.CreatedBy); err != nil {
		s.logger.Error("Creator auto-join failed", "community_id", created.ID, "error", err)
	}
	return &created, nil
}

// JoinCommunity is idempotent: joining twice returns the existing
// membership.
func (s *Service) JoinCommunity(ctx context.Context, communityID, userID string) (*models.Membership, error) {
	row, err := s.primary.Insert(ctx, "community_members", database.Row{
		"id":           uuid.New().String(),
		"community_id": communityID,
		"user_id":      userID,
		"role":         "member",
		"created_at":   s.now(),
	})
	if err != nil {
		if !database.IsConstraintError(err) {
			return nil, err
		}
		existing, qerr := s.primary.Query(ctx, "community_members", database.Row{
			"community_id": communityID,
			"user_id":      userID,
		}, "", false, 1)
		if qerr != nil {
			return nil, qerr
		}
		if len(existing) == 0 {
			return nil, err
		}
		m := membershipFromRow(existing[0])
		return &m, nil
	}
	m := membershipFromRow(row)
	return &m, nil
}

func (s *Service) GetCommunityMembers(ctx context.Context, communityID string) ([]models.Membership, error) {
	rows, err := s.primary.Query(ctx, "community_members", database.Row{"community_id": communityID}, "created_at", false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]models.Membership, 0, len(rows))
	for _, r := range rows {
		out = append(out, membershipFromRow(r))
	}
	return out, nil
}

// --- Events ---

func (s *Service) GetEvents(ctx context.Context) ([]models.EventWithOwner, error) {
	rows, err := s.primary.Query(ctx, "events", nil, "starts_at", false, 0)
	if err != nil {
		return nil, err
	}
	cache := userCache{}
	out := make([]models.EventWithOwner, 0, len(rows))
	for _, r := range rows {
		e := eventFromRow(r)
		owner, err := s.cachedUser(ctx, cache, e.CreatedBy)
		if err != nil {
			return nil, err
		}
		out = append(out, models.EventWithOwner{Event: e, Owner: owner})
	}
	return out, nil
}

func (s *Service) CreateEvent(ctx context.Context, e models.Event) (*models.Event, error) {
	if e.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if err := s.checkWritable(ctx, e.CreatedBy); err != nil {
		return nil, err
	}
	row, err := s.primary.Insert(ctx, "events", database.Row{
		"id":          uuid.New().String(),
		"title":       e.Title,
		"description": e.Description,
		"location":    e.Location,
		"starts_at":   e.StartsAt.UTC(),
		"created_by":  e.CreatedBy,
		"created_at":  s.now(),
	})
	if err != nil {
		return nil, err
	}
	created := eventFromRow(row)
	return &created, nil
}

// AttendEvent is idempotent like JoinCommunity.
func (s *Service) AttendEvent(ctx context.Context, eventID, userID string) (*models.Attendance, error) {
	row, err := s.primary.Insert(ctx, "event_attendees", database.Row{
		"id":         uuid.New().String(),
		"event_id":   eventID,
		"user_id":    userID,
		"created_at": s.now(),
	})
	if err != nil {
		if !database.IsConstraintError(err) {
			return nil, err
		}
		existing, qerr := s.primary.Query(ctx, "event_attendees", database.Row{
			"event_id": eventID,
			"user_id":  userID,
		}, "", false, 1)
		if qerr != nil {
			return nil, qerr
		}
		if len(existing) == 0 {
			return nil, err
		}
		a := attendanceFromRow(existing[0])
		return &a, nil
	}
	a := attendanceFromRow(row)
	return &a, nil
}

func (s *Service) GetEventAttendees(ctx context.Context, eventID string) ([]models.Attendance, error) {
	rows, err := s.primary.Query(ctx, "event_attendees", database.Row{"event_id": eventID}, "created_at", false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]models.Attendance, 0, len(rows))
	for _, r := range rows {
		out = append(out, attendanceFromRow(r))
	}
	return out, nil
}

// --- Reports ---

// CreateReport is the one failover write. On a connection failure it
// retries once on the secondary so abuse signals survive a primary
// outage; any other error is returned as-is.
func (s *Service) CreateReport(ctx context.Context, report models.Report) (*models.Report, error) {
	var lastErr error
	for _, backend := range s.writeBackends("createReport") {
		created, err := s.reports.Create(ctx, backend, report)
		if err == nil {
			return created, nil
		}
		if !database.IsConnectionError(err) {
			return nil, err
		}
		s.logger.Warn("Report write failed, trying next backend", "backend", backend.Name(), "error", err)
		lastErr = err
	}
	return nil, fmt.Errorf("all backends failed: %w", lastErr)
}

func (s *Service) GetReports(ctx context.Context, limit int) ([]models.ReportDetail, error) {
	return s.reports.List(ctx, s.primary, clampLimit(limit))
}

func (s *Service) UpdateReportStatus(ctx context.Context, id, status, adminNotes string) (*models.Report, error) {
	return s.reports.UpdateStatus(ctx, s.primary, id, status, adminNotes)
}

// --- Bans ---

func (s *Service) RecordBan(ctx context.Context, ban models.Ban) (*models.Ban, error) {
	return s.bans.Record(ctx, s.primary, ban)
}

func (s *Service) ListBans(ctx context.Context, userID string) ([]models.Ban, error) {
	return s.bans.List(ctx, s.primary, userID)
}

func (s *Service) IsBanned(ctx context.Context, userID string) (bool, error) {
	return s.bans.IsBanned(ctx, s.primary, userID)
}

// --- Health ---

// AdapterStatus reports one backend's reachability.
type AdapterStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Healthy    bool   `json:"healthy"`
}

// HealthCheck reports whether the service can serve requests, which
// means the primary is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.primary.Ping(ctx); err != nil {
		return fmt.Errorf("primary backend unreachable: %w", err)
	}
	return nil
}

// BackendStatus probes every configured backend.
func (s *Service) BackendStatus(ctx context.Context) []AdapterStatus {
	out := []AdapterStatus{}
	for _, backend := range []database.Adapter{s.primary, s.secondary} {
		if backend == nil {
			continue
		}
		st := AdapterStatus{Name: backend.Name(), Configured: true}
		st.Healthy = backend.Ping(ctx) == nil
		out = append(out, st)
	}
	return out
}

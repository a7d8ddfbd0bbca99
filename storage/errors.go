// minber/storage/errors.go
package storage

import (
	"errors"
	"fmt"
	"time"
)

// ModerationError is returned when the moderation gate rejects content
// before it is persisted. Reason is safe to show to the author.
type ModerationError struct {
	Reason string
}

func (e *ModerationError) Error() string {
	return "content rejected: " + e.Reason
}

// BanError is returned when a currently banned user attempts a write.
// ExpiresAt is nil for permanent bans.
type BanError struct {
	Reason    string
	ExpiresAt *time.Time
}

func (e *BanError) Error() string {
	if e.ExpiresAt == nil {
		return fmt.Sprintf("account restricted (permanent): %s", e.Reason)
	}
	return fmt.Sprintf("account restricted until %s: %s", e.ExpiresAt.Format(time.RFC3339), e.Reason)
}

// IsModerationRejected reports whether err is a moderation denial.
func IsModerationRejected(err error) bool {
	var me *ModerationError
	return errors.As(err, &me)
}

// IsBanActive reports whether err is an active-ban rejection.
func IsBanActive(err error) bool {
	var be *BanError
	return errors.As(err, &be)
}

// minber/storage/moderation.go
package storage

import (
	"context"
	"regexp"
	"strings"

	"minber/database"
	"minber/models"
)

// Decision is the outcome of evaluating a piece of content before it
// is stored. Rejected content never reaches the database; flagged
// content is stored and then surfaced to admins as a report.
type Decision struct {
	Allowed    bool
	Reason     string
	Flagged    bool
	FlagReason string
}

// ModerationGate applies deterministic content rules. Evaluation is a
// pure function of the content so retries always get the same answer.
type ModerationGate struct {
	blocklist []string
	watchlist []string
	linkRe    *regexp.Regexp
	maxLinks  int
}

func NewModerationGate() *ModerationGate {
	return &ModerationGate{
		blocklist: []string{
			"buy followers",
			"crypto giveaway",
			"free money",
			"work from home $$$",
		},
		watchlist: []string{
			"urgent donation",
			"send gift card",
			"wire transfer",
		},
		linkRe:   regexp.MustCompile(`https?://`),
		maxLinks: 3,
	}
}

// Evaluate checks content against the rules. The rejection reason is
// deliberately generic so the message does not leak the rule set.
func (mg *ModerationGate) Evaluate(content string) Decision {
	lower := strings.ToLower(content)

	for _, term := range mg.blocklist {
		if strings.Contains(lower, term) {
			return Decision{Allowed: false, Reason: "content violates community guidelines"}
		}
	}

	d := Decision{Allowed: true}
	for _, term := range mg.watchlist {
		if strings.Contains(lower, term) {
			d.Flagged = true
			d.FlagReason = "contains phrasing commonly seen in scams"
			return d
		}
	}
	if len(mg.linkRe.FindAllStringIndex(content, -1)) > mg.maxLinks {
		d.Flagged = true
		d.FlagReason = "contains an unusual number of links"
	}
	return d
}

// FlagAfterInsert files an auto-generated report for content that was
// stored but flagged. The report attributes the author as both
// reporter and reported user so admins see whose content tripped the
// rule.
func (mg *ModerationGate) FlagAfterInsert(ctx context.Context, db database.Adapter, reports *ReportLifecycle, d Decision, authorID string, target models.TargetRef) error {
	if !d.Flagged {
		return nil
	}
	t := target
	_, err := reports.Create(ctx, db, models.Report{
		ReporterID:     authorID,
		ReportedUserID: authorID,
		Target:         &t,
		Reason:         "auto-flagged: " + d.FlagReason,
	})
	return err
}

package tagging

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/raintag/raintag/pkg/clients/raindrop"
)

const (
	maxTagsPerBookmark = 5
	maxTagLen          = 50
)

var validTag = regexp.MustCompile(`^[\w\s-]+$`)

// WriteStatus is the terminal state of one bookmark within a run.
type WriteStatus string

const (
	StatusApplied WriteStatus = "applied"
	StatusSkipped WriteStatus = "skipped"
	StatusFailed  WriteStatus = "failed"
)

// WriteResult records the outcome of applying one tag assignment.
type WriteResult struct {
	BookmarkID  int64
	Status      WriteStatus
	Tags        []string
	Reason      string
	RateLimited bool
}

// Reconciler validates assigned tags and writes them back to Raindrop.
type Reconciler struct {
	client raindrop.ClientInterface
	dryRun bool
}

type ReconcilerDependencies struct {
	Client raindrop.ClientInterface
	DryRun bool
}

func NewReconciler(deps ReconcilerDependencies) *Reconciler {
	return &Reconciler{
		client: deps.Client,
		dryRun: deps.DryRun,
	}
}

// Apply filters the assignment down to valid tags and writes them to the
// bookmark. Bookmarks whose live tag set is no longer empty are left alone.
// The returned error is non-nil only for conditions that must end the run,
// such as an invalid token or a canceled context; ordinary write failures
// are reported through the result.
func (r *Reconciler) Apply(ctx context.Context, bookmarkID int64, tags []string) (WriteResult, error) {
	valid := ValidateTags(tags)
	if len(valid) == 0 {
		return WriteResult{BookmarkID: bookmarkID, Status: StatusSkipped, Reason: "no valid tags in assignment"}, nil
	}
	if len(valid) > maxTagsPerBookmark {
		valid = valid[:maxTagsPerBookmark]
	}

	if r.dryRun {
		log.Info().
			Int64("raindrop_id", bookmarkID).
			Strs("tags", valid).
			Msg("Dry run, tags not written")
		return WriteResult{BookmarkID: bookmarkID, Status: StatusApplied, Tags: valid, Reason: "dry run"}, nil
	}

	live, err := r.client.GetRaindrop(ctx, bookmarkID)
	if err != nil {
		if raindrop.IsNotFoundError(err) {
			return WriteResult{BookmarkID: bookmarkID, Status: StatusSkipped, Reason: "bookmark no longer exists"}, nil
		}
		if fatal := runFatal(ctx, err); fatal != nil {
			return WriteResult{}, fatal
		}
		return failedResult(bookmarkID, fmt.Errorf("failed to re-check bookmark: %w", err)), nil
	}

	if len(live.Tags) > 0 {
		log.Debug().
			Int64("raindrop_id", bookmarkID).
			Strs("existing_tags", live.Tags).
			Msg("Bookmark was tagged since fetch, leaving it alone")
		return WriteResult{BookmarkID: bookmarkID, Status: StatusSkipped, Reason: "already tagged"}, nil
	}

	if err := r.client.UpdateTags(ctx, bookmarkID, valid); err != nil {
		if fatal := runFatal(ctx, err); fatal != nil {
			return WriteResult{}, fatal
		}
		return failedResult(bookmarkID, fmt.Errorf("failed to update tags: %w", err)), nil
	}

	log.Info().
		Int64("raindrop_id", bookmarkID).
		Strs("tags", valid).
		Msg("Tags applied")

	return WriteResult{BookmarkID: bookmarkID, Status: StatusApplied, Tags: valid}, nil
}

func failedResult(bookmarkID int64, err error) WriteResult {
	log.Warn().Err(err).Int64("raindrop_id", bookmarkID).Msg("Tag write failed")
	return WriteResult{
		BookmarkID:  bookmarkID,
		Status:      StatusFailed,
		Reason:      err.Error(),
		RateLimited: raindrop.IsRateLimitedError(err),
	}
}

func runFatal(ctx context.Context, err error) error {
	if raindrop.IsAuthError(err) {
		return fmt.Errorf("raindrop rejected the token: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// ValidateTags normalizes an assignment's tags and drops any that are
// empty, too long, or contain characters outside letters, digits,
// whitespace, hyphens, and underscores.
func ValidateTags(tags []string) []string {
	valid := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || len(tag) >= maxTagLen {
			continue
		}
		if !validTag.MatchString(tag) {
			continue
		}
		valid = append(valid, tag)
	}

	return valid
}

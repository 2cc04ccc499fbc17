package service

import (
	"context"
	"errors"

	"github.com/spec-kit/civic-intake/internal/domain"
	"github.com/spec-kit/civic-intake/internal/repository"
	"github.com/spec-kit/civic-intake/internal/textproc"
)

// Duplicate detection thresholds.
const (
	SimilarityThreshold     = 0.7
	KeywordOverlapThreshold = 0.5
	MaxDuplicateDistanceKm  = 0.5
)

// MatchReason says why a report was folded into an existing issue.
type MatchReason string

const (
	ReasonNone           MatchReason = "new_issue"
	ReasonExactHash      MatchReason = "exact_hash"
	ReasonTextSimilarity MatchReason = "text_similarity"
	ReasonKeywordOverlap MatchReason = "keyword_overlap"
)

// SubmitReport is the input to duplicate resolution.
type SubmitReport struct {
	Text       string
	ReporterID string
	Location   *domain.Location
	Category   string
}

// Resolution is the outcome of duplicate resolution. A nil Issue means no
// existing record matched and the caller should create one.
type Resolution struct {
	Issue       *domain.Issue
	Reason      MatchReason
	Score       float64
	ContentHash string
}

// Matched reports whether an existing issue was found.
func (r Resolution) Matched() bool {
	return r.Issue != nil
}

// Resolver decides whether a report duplicates a stored issue.
type Resolver struct {
	issues   repository.IssueRepository
	distance func(lat1, lon1, lat2, lon2 float64) float64
}

// NewResolver constructs a resolver over the issue store.
func NewResolver(issues repository.IssueRepository) *Resolver {
	return &Resolver{issues: issues, distance: textproc.DistanceKm}
}

// Resolve looks for an exact fingerprint hit first, then scans issues of the
// same category and returns the first one that passes isSimilar. Store errors
// are returned as-is.
func (r *Resolver) Resolve(ctx context.Context, report SubmitReport) (Resolution, error) {
	hash := textproc.Fingerprint(report.Text, report.Location)

	existing, err := r.issues.FindByHash(ctx, hash)
	switch {
	case err == nil:
		return Resolution{Issue: existing, Reason: ReasonExactHash, Score: 1, ContentHash: hash}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return Resolution{}, err
	}

	if report.Text == "" || report.Category == "" {
		return Resolution{Reason: ReasonNone, ContentHash: hash}, nil
	}

	candidates, err := r.issues.ScanByCategory(ctx, report.Category)
	if err != nil {
		return Resolution{}, err
	}
	for _, candidate := range candidates {
		if ok, reason, score := r.isSimilar(report, candidate); ok {
			return Resolution{Issue: candidate, Reason: reason, Score: score, ContentHash: hash}, nil
		}
	}
	return Resolution{Reason: ReasonNone, ContentHash: hash}, nil
}

func (r *Resolver) isSimilar(report SubmitReport, candidate *domain.Issue) (bool, MatchReason, float64) {
	if candidate.HasReporter(report.ReporterID) {
		return false, ReasonNone, 0
	}
	if candidate.Category != report.Category {
		return false, ReasonNone, 0
	}
	if geoComparable(report.Location, candidate.Location) {
		d := r.distance(report.Location.Latitude, report.Location.Longitude,
			candidate.Location.Latitude, candidate.Location.Longitude)
		if d > MaxDuplicateDistanceKm {
			return false, ReasonNone, 0
		}
	}

	other := candidate.ComparisonText()
	if score := textproc.Similarity(report.Text, other); score >= SimilarityThreshold {
		return true, ReasonTextSimilarity, score
	}

	incoming := textproc.ExtractKeywords(report.Text)
	existing := textproc.ExtractKeywords(other)
	if len(incoming) > 0 && len(existing) > 0 {
		if overlap := textproc.KeywordOverlap(incoming, existing); overlap >= KeywordOverlapThreshold {
			return true, ReasonKeywordOverlap, overlap
		}
	}
	return false, ReasonNone, 0
}

// geoComparable is true only when both locations exist and every coordinate
// is non-zero; anything else skips the distance check.
func geoComparable(a, b *domain.Location) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Latitude != 0 && a.Longitude != 0 && b.Latitude != 0 && b.Longitude != 0
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/civic-intake/internal/domain"
	"github.com/spec-kit/civic-intake/internal/repository"
)

func TestResolveExactHashIgnoresSameReporter(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryIssueRepository()
	seeded := seedIssue(t, repo, "Garbage near gate", domain.CategorySanitation, "a@x.com", nil)

	res, err := NewResolver(repo).Resolve(context.Background(), SubmitReport{
		Text: "Garbage near gate", ReporterID: "a@x.com", Category: domain.CategorySanitation,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Matched() || res.Issue.TicketID != seeded.TicketID || res.Reason != ReasonExactHash {
		t.Fatalf("expected exact hash match, got %+v", res)
	}
}

func TestResolveSameReporterExemption(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryIssueRepository()
	seedIssue(t, repo, "pothole on main street sector 5", domain.CategoryRoads, "a@x.com", nil)

	res, err := NewResolver(repo).Resolve(context.Background(), SubmitReport{
		Text: "big pothole main street sector 5", ReporterID: "a@x.com", Category: domain.CategoryRoads,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Matched() {
		t.Fatalf("same reporter must not merge into own issue, got %+v", res)
	}
}

func TestResolveCategoryGate(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryIssueRepository()
	seedIssue(t, repo, "garbage not collected near park", domain.CategorySanitation, "a@x.com", nil)

	res, err := NewResolver(repo).Resolve(context.Background(), SubmitReport{
		Text: "garbage collected near park", ReporterID: "b@x.com", Category: domain.CategoryEnvironment,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Matched() {
		t.Fatalf("different categories must never merge")
	}
}

func TestResolveGeoGateBoundary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		distance float64
		match    bool
	}{
		{0.5, true},
		{0.51, false},
	}
	for _, tc := range cases {
		repo := repository.NewMemoryIssueRepository()
		seedIssue(t, repo, "pothole on main street sector 5", domain.CategoryRoads, "a@x.com",
			&domain.Location{Latitude: 28.61, Longitude: 77.20})

		resolver := NewResolver(repo)
		d := tc.distance
		resolver.distance = func(float64, float64, float64, float64) float64 { return d }

		res, err := resolver.Resolve(context.Background(), SubmitReport{
			Text:       "big pothole main street sector 5",
			ReporterID: "b@x.com",
			Category:   domain.CategoryRoads,
			Location:   &domain.Location{Latitude: 28.62, Longitude: 77.21},
		})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.Matched() != tc.match {
			t.Fatalf("distance %.2f: expected match=%v, got %+v", tc.distance, tc.match, res)
		}
	}
}

func TestResolveSkipsGeoGateForZeroCoordinates(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryIssueRepository()
	seedIssue(t, repo, "pothole on main street sector 5", domain.CategoryRoads, "a@x.com",
		&domain.Location{Latitude: 0, Longitude: 77.20})

	resolver := NewResolver(repo)
	resolver.distance = func(float64, float64, float64, float64) float64 {
		t.Fatalf("distance must not be computed for zero coordinates")
		return 0
	}
	res, err := resolver.Resolve(context.Background(), SubmitReport{
		Text:       "big pothole main street sector 5",
		ReporterID: "b@x.com",
		Category:   domain.CategoryRoads,
		Location:   &domain.Location{Latitude: 40, Longitude: -74},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Matched() {
		t.Fatalf("expected match with geo gate skipped")
	}
}

func TestResolveInvalidCoordinatesFailOpen(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryIssueRepository()
	seedIssue(t, repo, "pothole on main street sector 5", domain.CategoryRoads, "a@x.com",
		&domain.Location{Latitude: 200, Longitude: 77.20})

	res, err := NewResolver(repo).Resolve(context.Background(), SubmitReport{
		Text:       "big pothole main street sector 5",
		ReporterID: "b@x.com",
		Category:   domain.CategoryRoads,
		Location:   &domain.Location{Latitude: -33.86, Longitude: 151.21},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Matched() {
		t.Fatalf("invalid coordinates must be treated as same location")
	}
}

func TestResolveKeywordFallback(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryIssueRepository()
	seedIssue(t, repo, "garbage dump overflowing behind school", domain.CategorySanitation, "a@x.com", nil)

	res, err := NewResolver(repo).Resolve(context.Background(), SubmitReport{
		Text: "school garbage dump", ReporterID: "b@x.com", Category: domain.CategorySanitation,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Matched() || res.Reason != ReasonKeywordOverlap {
		t.Fatalf("expected keyword overlap match, got %+v", res)
	}
	if res.Score < KeywordOverlapThreshold {
		t.Fatalf("unexpected score %.2f", res.Score)
	}
}

func TestResolveNoMatch(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryIssueRepository()
	seedIssue(t, repo, "streetlight broken", domain.CategoryRoads, "a@x.com", nil)

	res, err := NewResolver(repo).Resolve(context.Background(), SubmitReport{
		Text: "road pothole dangerous", ReporterID: "b@x.com", Category: domain.CategoryRoads,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Matched() || res.ContentHash == "" {
		t.Fatalf("expected no match with hash, got %+v", res)
	}
}

type failingRepo struct {
	repository.IssueRepository
	hashErr error
	scanErr error
}

func (f failingRepo) FindByHash(context.Context, string) (*domain.Issue, error) {
	return nil, f.hashErr
}

func (f failingRepo) ScanByCategory(context.Context, string) ([]*domain.Issue, error) {
	return nil, f.scanErr
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("store unavailable")
	report := SubmitReport{Text: "x", ReporterID: "a", Category: domain.CategoryOther}

	if _, err := NewResolver(failingRepo{hashErr: boom}).Resolve(context.Background(), report); !errors.Is(err, boom) {
		t.Fatalf("expected hash lookup error, got %v", err)
	}
	repo := failingRepo{hashErr: repository.ErrNotFound, scanErr: boom}
	if _, err := NewResolver(repo).Resolve(context.Background(), report); !errors.Is(err, boom) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

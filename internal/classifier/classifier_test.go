package classifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spec-kit/civic-intake/internal/domain"
)

func TestFallbackCategories(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want string
	}{
		{"Garbage not collected for a week", domain.CategorySanitation},
		{"पानी नहीं आ रहा", domain.CategoryWater},
		{"streetlight broken near temple", domain.CategoryElectricity},
		{"pothole on main street sector 5", domain.CategoryRoads},
		{"hospital has no doctors", domain.CategoryHealth},
		{"trees cut in the park", domain.CategoryEnvironment},
		{"bridge cracked", domain.CategoryBuilding},
		{"need a birth certificate", domain.CategoryTaxes},
		{"fire near the school", domain.CategoryEmergency},
		{"stray dogs chasing kids", domain.CategoryAnimals},
		{"nothing matches here", domain.CategoryOther},
		// water wins over road because buckets are ordered.
		{"water logging on the road", domain.CategoryWater},
	}
	for _, tc := range cases {
		if got := CategoryFor(tc.text); got != tc.want {
			t.Fatalf("CategoryFor(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestFallbackRecord(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want  Classification
	}{
		{
			text: "Pothole on main street Sector 5",
			want: Classification{
				Category:    domain.CategoryRoads,
				Title:       "Pothole in Sector 5",
				Address:     "Sector 5",
				Description: "Issue reported in Sector 5. This roads & transport problem requires attention from authorities.",
			},
		},
		{
			text: "सेक्टर 12 में कचरा",
			want: Classification{
				Category:    domain.CategorySanitation,
				Title:       "Garbage Issue in Sector 12",
				Address:     "Sector 12",
				Description: "Issue reported in Sector 12. This sanitation & waste problem requires attention from authorities.",
			},
		},
		{
			text: "broken bench in sector park",
			want: Classification{
				Category:    domain.CategoryEnvironment,
				Title:       "Environment & Parks Issue in Sector Area",
				Address:     "Sector Area",
				Description: "Issue reported in Sector Area. This environment & parks problem requires attention from authorities.",
			},
		},
		{
			text: "dog bite near the market",
			want: Classification{
				Category:    domain.CategoryAnimals,
				Title:       "Animal Care & Control Issue in Market Area",
				Address:     "Market Area",
				Description: "Issue reported in Market Area. This animal care & control problem requires attention from authorities.",
			},
		},
		{
			text: "hello",
			want: Classification{
				Category:    domain.CategoryOther,
				Title:       "Other Issue in Specified Location",
				Address:     "Specified Location",
				Description: "Issue reported in Specified Location. This other problem requires attention from authorities.",
			},
		},
	}
	for _, tc := range cases {
		if got := Fallback(tc.text); got != tc.want {
			t.Fatalf("Fallback(%q) = %+v, want %+v", tc.text, got, tc.want)
		}
	}
}

type stubClassifier struct {
	result Classification
	err    error
}

func (s stubClassifier) Classify(context.Context, string) (Classification, error) {
	return s.result, s.err
}

func TestWithFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	text := "garbage near sector 9"
	want := Fallback(text)

	for name, primary := range map[string]Classifier{
		"nil primary": nil,
		"error":       stubClassifier{err: errors.New("boom")},
		"incomplete":  stubClassifier{result: Classification{Category: domain.CategoryOther}},
	} {
		got, err := WithFallback(primary, nil).Classify(ctx, text)
		if err != nil {
			t.Fatalf("%s: fallback chain must not fail: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: got %+v, want %+v", name, got, want)
		}
	}

	custom := Classification{Category: domain.CategoryWater, Title: "t", Address: "a", Description: "d"}
	got, _ := WithFallback(stubClassifier{result: custom}, nil).Classify(ctx, text)
	if got != custom {
		t.Fatalf("expected primary result, got %+v", got)
	}
}

func TestRemoteClassifier(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"category":"Potholes","title":" Deep pothole ","address":"MG Road","description":"A deep pothole."}`))
	}))
	defer srv.Close()

	got, err := NewRemoteClassifier(srv.URL, time.Second).Classify(context.Background(), "pothole on mg road")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Category != domain.CategoryRoads {
		t.Fatalf("unknown remote category should fall back to rules, got %q", got.Category)
	}
	if got.Title != "Deep pothole" || got.Address != "MG Road" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestRemoteClassifierErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewRemoteClassifier(srv.URL, time.Second).Classify(context.Background(), "x"); err == nil {
		t.Fatalf("expected error on 503")
	}
}

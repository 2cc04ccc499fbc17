package textproc

import (
	"math"
	"reflect"
	"testing"

	"github.com/spec-kit/civic-intake/internal/domain"
)

const epsilon = 1e-4

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestDistanceKm(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"same point", 28.6139, 77.2090, 28.6139, 77.2090, 0},
		{"one degree on equator", 0, 0, 0, 1, 111.1949},
		{"delhi to mumbai", 28.6139, 77.2090, 19.0760, 72.8777, 1148.0949},
		{"invalid latitude", 200, 0, 0, 0, 0},
		{"invalid second latitude", 10, 10, -91, 10, 0},
		{"invalid longitude", 10, 181, 10, 10, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := DistanceKm(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if !almostEqual(got, tc.want) {
				t.Fatalf("DistanceKm = %.4f, want %.4f", got, tc.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got := Normalize("  Pothole!! on Main-Street, Sector 5.  "); got != "pothole on mainstreet sector 5" {
		t.Fatalf("unexpected normalization %q", got)
	}
	// Vowel signs are combining marks and are dropped.
	if got := Normalize("पानी की समस्या"); got != "पन क समसय" {
		t.Fatalf("unexpected devanagari normalization %q", got)
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want float64
	}{
		{"pothole on main street sector 5", "big pothole main street sector 5", 0.8889},
		{"water leak main pipe", "pipe main leak water", 0.45},
		{"streetlight broken near temple market", "market temple near broken streetlight", 0.2973},
		{"wire hanging from pole", "electric pole with a wire hanging low over the busy crossing", 0.3659},
		{"Garbage not collected", "garbage not collected!!", 1.0},
		{"garbage not collected near park", "garbage collected near park", 0.9310},
		{"light की समस्या है, vijay nagar में", "vijay nagar light समस्या", 0.52},
		{"", "", 1.0},
	}
	for _, tc := range cases {
		if got := Similarity(tc.a, tc.b); !almostEqual(got, tc.want) {
			t.Fatalf("Similarity(%q, %q) = %.4f, want %.4f", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestExtractKeywords(t *testing.T) {
	t.Parallel()

	got := ExtractKeywords("light की समस्या है, vijay nagar में")
	want := []string{"light", "समस", "vijay", "nagar"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}

	got = ExtractKeywords("Road road is BAD at MG road")
	want = []string{"road", "road", "bad", "road"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractKeywords = %v, want %v", got, want)
	}

	if kws := ExtractKeywords("a an to"); len(kws) != 0 {
		t.Fatalf("expected no keywords, got %v", kws)
	}
}

func TestKeywordOverlap(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want float64
	}{
		{"water leak main pipe", "pipe main leak water", 1.0},
		{"tap water dirty colony", "colony tap dirty water", 1.0},
		{"wire hanging from pole", "electric pole with a wire hanging low over the busy crossing", 0.3},
		{"light की समस्या है, vijay nagar में", "vijay nagar light समस्या", 1.0},
	}
	for _, tc := range cases {
		got := KeywordOverlap(ExtractKeywords(tc.a), ExtractKeywords(tc.b))
		if !almostEqual(got, tc.want) {
			t.Fatalf("KeywordOverlap(%q, %q) = %.4f, want %.4f", tc.a, tc.b, got, tc.want)
		}
	}

	// Repeats count toward the list length but only once toward the overlap.
	if got := KeywordOverlap([]string{"road", "road"}, []string{"road"}); !almostEqual(got, 0.5) {
		t.Fatalf("expected 0.5 with duplicated keyword, got %.4f", got)
	}
	if got := KeywordOverlap(nil, []string{"road"}); got != 0 {
		t.Fatalf("expected 0 for empty side, got %.4f", got)
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		loc  *domain.Location
		want string
	}{
		{"text only", "  Pothole on Main Street  ", nil, "be8073e1c74994e418dede814b952676"},
		{"with location", "Pothole on Main Street", &domain.Location{Latitude: 28.6139, Longitude: 77.2}, "15a18504763252cf7bd3d643bfb09998"},
		{"integral coordinates", "Pothole on Main Street", &domain.Location{Latitude: 28, Longitude: 77}, "039181524cb36b8b2b1ea364fbaa70bc"},
		{"devanagari", "पानी नहीं आ रहा", nil, "f5f72bfa32d248e06a8159eaaa407784"},
	}
	for _, tc := range cases {
		if got := Fingerprint(tc.text, tc.loc); got != tc.want {
			t.Fatalf("%s: Fingerprint = %s, want %s", tc.name, got, tc.want)
		}
	}

	if Fingerprint("Garbage not collected", nil) == Fingerprint("garbage not collected!!", nil) {
		t.Fatalf("punctuation must change the exact-match key")
	}
}

func TestFormatCoordinate(t *testing.T) {
	t.Parallel()

	cases := map[float64]string{
		77.2:    "77.2",
		28.0:    "28.0",
		-0.5:    "-0.5",
		0:       "0.0",
		0.00001: "1e-05",
		1e16:    "1e+16",
	}
	for in, want := range cases {
		if got := formatCoordinate(in); got != want {
			t.Fatalf("formatCoordinate(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	if got := DetectLanguage("पानी नहीं आ रहा"); got != LanguageHindi {
		t.Fatalf("expected hindi, got %q", got)
	}
	if got := DetectLanguage("the streetlight near the school has been broken for a week"); got != LanguageEnglish {
		t.Fatalf("expected english, got %q", got)
	}
	if got := DetectLanguage("  123 !! "); got != "" {
		t.Fatalf("expected no language, got %q", got)
	}
}

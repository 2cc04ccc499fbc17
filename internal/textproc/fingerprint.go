package textproc

import (
	"crypto/md5"
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"github.com/spec-kit/civic-intake/internal/domain"
)

// Fingerprint is the exact-duplicate key of a report: the md5 of the lowercased,
// trimmed text, suffixed with "_{longitude}_{latitude}" when a location exists.
func Fingerprint(text string, loc *domain.Location) string {
	content := strings.ToLower(strings.TrimSpace(text))
	if loc != nil {
		content += "_" + formatCoordinate(loc.Longitude) + "_" + formatCoordinate(loc.Latitude)
	}
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// formatCoordinate renders f as the shortest round-trip decimal, keeping a
// trailing ".0" on integral values and switching to exponent form outside
// [1e-4, 1e16).
func formatCoordinate(f float64) string {
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	abs := math.Abs(f)
	if abs < 1e-4 || abs >= 1e16 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

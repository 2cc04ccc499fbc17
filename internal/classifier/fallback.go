package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/spec-kit/civic-intake/internal/domain"
)

type bucket struct {
	category string
	keywords []string
}

// Evaluated in order; the first bucket with a keyword present wins.
var categoryBuckets = []bucket{
	{domain.CategorySanitation, []string{"garbage", "कचरा", "waste", "trash", "sanitation", "सफाई", "clean", "dustbin", "डस्टबिन"}},
	{domain.CategoryWater, []string{"water", "पानी", "supply", "tap", "drainage", "नाली", "sewer", "सीवर", "flood", "बाढ़"}},
	{domain.CategoryElectricity, []string{"electricity", "बिजली", "power", "light", "streetlight", "स्ट्रीटलाइट", "bulb", "बल्ब", "wire", "तार"}},
	{domain.CategoryRoads, []string{"गड्ढा", "pothole", "road", "street", "गली", "सड़क", "transport", "यातायात", "traffic", "signal", "bus", "बस"}},
	{domain.CategoryHealth, []string{"health", "स्वास्थ्य", "safety", "सुरक्षा", "hospital", "अस्पताल", "clinic", "क्लिनिक", "medical", "चिकित्सा"}},
	{domain.CategoryEnvironment, []string{"park", "पार्क", "garden", "बगीचा", "tree", "पेड़", "environment", "पर्यावरण", "pollution", "प्रदूषण"}},
	{domain.CategoryBuilding, []string{"building", "भवन", "infrastructure", "बुनियादी ढांचा", "construction", "निर्माण", "bridge", "पुल", "wall", "दीवार"}},
	{domain.CategoryTaxes, []string{"tax", "कर", "document", "दस्तावेज", "certificate", "प्रमाणपत्र", "license", "लाइसेंस", "permit", "अनुमति"}},
	{domain.CategoryEmergency, []string{"emergency", "आपातकाल", "fire", "आग", "police", "पुलिस", "ambulance", "एम्बुलेंस", "rescue", "बचाव"}},
	{domain.CategoryAnimals, []string{"animal", "जानवर", "dog", "कुत्ता", "stray", "आवारा", "pet", "पालतू", "veterinary", "पशु चिकित्सा"}},
}

type addressRule struct {
	label    string
	keywords []string
}

var addressRules = []addressRule{
	{"Street/Road", []string{"street", "गली", "road", "सड़क", "lane"}},
	{"Park/Garden", []string{"park", "पार्क", "garden", "बगीचा"}},
	{"Market Area", []string{"market", "बाजार", "shopping", "शॉपिंग"}},
	{"Healthcare Facility", []string{"hospital", "अस्पताल", "clinic", "क्लिनिक"}},
}

type titleRule struct {
	prefix   string
	keywords []string
}

var titleRules = []titleRule{
	{"Pothole", []string{"गड्ढा", "pothole"}},
	{"Garbage Issue", []string{"garbage", "कचरा"}},
	{"Water Problem", []string{"water", "पानी"}},
	{"Electrical Issue", []string{"electricity", "बिजली"}},
	{"Streetlight Problem", []string{"streetlight", "स्ट्रीटलाइट"}},
	{"Drainage Issue", []string{"drainage", "नाली"}},
}

var sectorPattern = regexp.MustCompile(`(?i)(?:सेक्टर|sector)[\s\p{Z}]*(\p{Nd}+)`)

const defaultAddress = "Specified Location"

// RuleBased is the keyword classifier used on its own and as the safety net
// behind richer classifiers.
type RuleBased struct{}

// NewRuleBased constructs the rule-based classifier.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Classify never fails.
func (RuleBased) Classify(_ context.Context, text string) (Classification, error) {
	return Fallback(text), nil
}

// Fallback derives a classification from keyword rules alone.
func Fallback(text string) Classification {
	lowered := strings.ToLower(text)
	category := CategoryFor(text)
	address := extractAddress(lowered)
	return Classification{
		Category:    category,
		Title:       generateTitle(category, lowered, address),
		Address:     address,
		Description: describe(category, address),
	}
}

// CategoryFor returns the first matching keyword bucket, or "Other".
func CategoryFor(text string) string {
	lowered := strings.ToLower(text)
	for _, b := range categoryBuckets {
		if containsAny(lowered, b.keywords) {
			return b.category
		}
	}
	return domain.CategoryOther
}

func extractAddress(lowered string) string {
	if strings.Contains(lowered, "सेक्टर") || strings.Contains(lowered, "sector") {
		if m := sectorPattern.FindStringSubmatch(lowered); m != nil {
			return "Sector " + m[1]
		}
		return "Sector Area"
	}
	for _, rule := range addressRules {
		if containsAny(lowered, rule.keywords) {
			return rule.label
		}
	}
	return defaultAddress
}

func generateTitle(category, lowered, address string) string {
	for _, rule := range titleRules {
		if containsAny(lowered, rule.keywords) {
			return fmt.Sprintf("%s in %s", rule.prefix, address)
		}
	}
	return fmt.Sprintf("%s Issue in %s", category, address)
}

func describe(category, address string) string {
	return fmt.Sprintf("Issue reported in %s. This %s problem requires attention from authorities.", address, strings.ToLower(category))
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

package constants

import (
	"strings"
)

// StandardCategory classifies a registered standard by issuing body.
type StandardCategory string

const (
	NationalStandard StandardCategory = "国家标准"
	IndustryStandard StandardCategory = "行业标准"
	LocalStandard    StandardCategory = "地方标准"
	OtherStandard    StandardCategory = "其他"
)

// AllCategoriesLabel is the list filter that disables category filtering.
const AllCategoriesLabel = "全部"

var allCategories = []StandardCategory{
	NationalStandard,
	IndustryStandard,
	LocalStandard,
	OtherStandard,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// CategorizeCode derives the category from a standard code prefix.
func CategorizeCode(code string) StandardCategory {
	upper := strings.ToUpper(strings.TrimSpace(code))
	switch {
	case upper == "":
		return OtherStandard
	case strings.HasPrefix(upper, "GB"):
		return NationalStandard
	case strings.HasPrefix(upper, "JGJ"), strings.HasPrefix(upper, "JTG"), strings.HasPrefix(upper, "CJJ"):
		return IndustryStandard
	case strings.HasPrefix(upper, "DB"):
		return LocalStandard
	default:
		return OtherStandard
	}
}

// Canonicalize maps a user supplied category label (Chinese or English
// synonym) onto a known category.
func Canonicalize(input string) (StandardCategory, bool) {
	if input == "" {
		return OtherStandard, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]StandardCategory{
		"national": NationalStandard,
		"gb":       NationalStandard,
		"国标":       NationalStandard,
		"industry": IndustryStandard,
		"行标":       IndustryStandard,
		"local":    LocalStandard,
		"地标":       LocalStandard,
		"other":    OtherStandard,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return OtherStandard, false
}

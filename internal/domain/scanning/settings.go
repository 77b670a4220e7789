package scanning

import (
	"fmt"
	"slices"

	"github.com/ahrav/secaudit/internal/domain/checks"
)

// ScanType selects which categories a scan enables.
type ScanType string

const (
	ScanTypeQuick  ScanType = "quick"
	ScanTypeFull   ScanType = "full"
	ScanTypeCustom ScanType = "custom"
)

// ScanDepth is recorded in the report summary.
type ScanDepth string

const (
	ScanDepthStandard ScanDepth = "standard"
	ScanDepthDeep     ScanDepth = "deep"
)

// quickCategories are enabled by a quick scan.
var quickCategories = []checks.Category{
	checks.CategoryVulnerability,
	checks.CategoryConfiguration,
	checks.CategoryAuthentication,
}

// Settings is the enabled-check selection captured at job creation.
type Settings struct {
	ScanType   ScanType          `json:"scanType"`
	ScanDepth  ScanDepth         `json:"scanDepth"`
	Categories []checks.Category `json:"categories"`
}

// NewSettings resolves the enabled categories for a scan type. Custom scans
// use the supplied categories, which must be non-empty and known.
func NewSettings(scanType ScanType, depth ScanDepth, categories []string) (Settings, error) {
	if depth == "" {
		depth = ScanDepthStandard
	}
	if depth != ScanDepthStandard && depth != ScanDepthDeep {
		return Settings{}, fmt.Errorf("unknown scan depth %q", depth)
	}

	var enabled []checks.Category
	switch scanType {
	case ScanTypeQuick:
		enabled = slices.Clone(quickCategories)
	case ScanTypeFull:
		for _, c := range checks.Categories {
			if !c.AlwaysEnabled() {
				enabled = append(enabled, c)
			}
		}
	case ScanTypeCustom:
		if len(categories) == 0 {
			return Settings{}, fmt.Errorf("custom scans require at least one category")
		}
		for _, raw := range categories {
			c, err := checks.ParseCategory(raw)
			if err != nil {
				return Settings{}, err
			}
			if !slices.Contains(enabled, c) {
				enabled = append(enabled, c)
			}
		}
	default:
		return Settings{}, fmt.Errorf("unknown scan type %q", scanType)
	}

	return Settings{ScanType: scanType, ScanDepth: depth, Categories: enabled}, nil
}

// Enabled reports whether checks in category c should run.
func (s Settings) Enabled(c checks.Category) bool {
	return c.AlwaysEnabled() || slices.Contains(s.Categories, c)
}

func (s Settings) clone() Settings {
	s.Categories = slices.Clone(s.Categories)
	return s
}

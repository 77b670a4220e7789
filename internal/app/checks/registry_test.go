package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/internal/domain/scanning"
)

func TestNewRegistry_Catalogue(t *testing.T) {
	r := NewRegistry()
	all := r.All()

	assert.Len(t, all, 63)

	names := make(map[string]struct{}, len(all))
	for _, d := range all {
		_, dup := names[d.Name]
		assert.False(t, dup, "duplicate check %s", d.Name)
		names[d.Name] = struct{}{}

		assert.NotEmpty(t, d.Description, d.Name)
		assert.NotEmpty(t, d.CWE, d.Name)
		assert.NotZero(t, d.Severity.Rank(), d.Name)
		assert.NotNil(t, d.Run, d.Name)
	}

	for _, c := range checks.Categories {
		assert.NotEmpty(t, r.ByCategory(c), "category %s has no checks", c)
	}
}

func TestRegistry_OrderFollowsCategories(t *testing.T) {
	r := NewRegistry()

	last := -1
	rank := make(map[checks.Category]int, len(checks.Categories))
	for i, c := range checks.Categories {
		rank[c] = i
	}
	for _, d := range r.All() {
		assert.GreaterOrEqual(t, rank[d.Category], last, "%s out of order", d.Name)
		last = rank[d.Category]
	}
}

func TestRegistry_Select(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name       string
		scanType   scanning.ScanType
		categories []string
		want       []checks.Category
	}{
		{
			name:       "custom vulnerability only adds external tools",
			scanType:   scanning.ScanTypeCustom,
			categories: []string{"vulnerability"},
			want:       []checks.Category{checks.CategoryVulnerability, checks.CategoryExternalTools},
		},
		{
			name:     "quick",
			scanType: scanning.ScanTypeQuick,
			want: []checks.Category{
				checks.CategoryVulnerability,
				checks.CategoryConfiguration,
				checks.CategoryAuthentication,
				checks.CategoryExternalTools,
			},
		},
		{
			name:     "full",
			scanType: scanning.ScanTypeFull,
			want:     checks.Categories,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := scanning.NewSettings(tt.scanType, scanning.ScanDepthStandard, tt.categories)
			require.NoError(t, err)

			var wantCount int
			for _, c := range tt.want {
				wantCount += len(r.ByCategory(c))
			}

			selected := r.Select(settings)
			assert.Len(t, selected, wantCount)
			for _, d := range selected {
				assert.Contains(t, tt.want, d.Category)
			}
		})
	}
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	run := func(context.Context, checks.Environment) (checks.Result, error) { return checks.Pass(), nil }
	e := entry{def: checks.Definition{Name: "x", Category: checks.CategoryLogging, Run: run}}

	_, err := newRegistry([]entry{e, e})
	assert.Error(t, err)

	_, err = newRegistry([]entry{{def: checks.Definition{Name: "y"}}})
	assert.Error(t, err)
}

func TestFinalize_FillsDefaults(t *testing.T) {
	d := checks.Definition{
		Name:        "Weak Ciphers",
		Description: "Broken ciphers are used.",
		Category:    checks.CategoryCryptography,
		Severity:    checks.SeverityHigh,
		CWE:         "CWE-327",
		CVSS:        "7.5",
		Run: func(context.Context, checks.Environment) (checks.Result, error) {
			return checks.Result{Details: "1 match(es) in 1 file(s): a.js:3"}, nil
		},
	}
	a := checks.Advice{Title: "Use AEAD", Implementation: "Switch to AES-GCM."}

	res, err := finalize(d, a)(context.Background(), checks.Environment{})
	require.NoError(t, err)

	assert.False(t, res.Passed)
	assert.Equal(t, checks.SeverityHigh, res.Severity)
	assert.Equal(t, "Broken ciphers are used.", res.Description)
	assert.Equal(t, "CWE-327", res.CWE)
	assert.Equal(t, "7.5", res.CVSS)
	assert.Equal(t, "Switch to AES-GCM.", res.Remediation)
	require.NotNil(t, res.Recommendation)
	assert.Equal(t, "medium", res.Recommendation.Effort)
	assert.Equal(t, "medium", res.Recommendation.Cost)
}

func TestFinalize_ScanFailureKeepsMediumSeverity(t *testing.T) {
	d := checks.Definition{
		Name:     "Encryption at Rest",
		Severity: checks.SeverityHigh,
		CWE:      "CWE-311",
		Run: func(context.Context, checks.Environment) (checks.Result, error) {
			return checks.ScanFailureResult("No security configuration has been stored.", checks.ErrSecurityConfigNotFound), nil
		},
	}

	res, err := finalize(d, checks.Advice{})(context.Background(), checks.Environment{})
	require.NoError(t, err)

	assert.True(t, res.ScanFailure)
	assert.Equal(t, checks.SeverityMedium, res.Severity)
	assert.Empty(t, res.CWE)
	require.NotNil(t, res.Recommendation)
	assert.Contains(t, res.Recommendation.Title, "Encryption at Rest")
}

func TestFinalize_PassesErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	d := checks.Definition{
		Name: "x",
		Run: func(context.Context, checks.Environment) (checks.Result, error) {
			return checks.Result{}, boom
		},
	}

	_, err := finalize(d, checks.Advice{})(context.Background(), checks.Environment{})
	assert.ErrorIs(t, err, boom)
}

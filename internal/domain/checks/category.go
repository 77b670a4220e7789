// Package checks defines the vocabulary shared by security checks: their
// categories, severities, results and the read-only environment they run in.
package checks

import "fmt"

// Category groups related checks. Scans enable checks by category.
type Category string

const (
	CategoryVulnerability     Category = "vulnerability"
	CategoryConfiguration     Category = "configuration"
	CategoryAccessControl     Category = "access-control"
	CategoryDataProtection    Category = "data-protection"
	CategoryCompliance        Category = "compliance"
	CategoryWebSecurity       Category = "web-security"
	CategoryAPISecurity       Category = "api-security"
	CategoryNetworkSecurity   Category = "network-security"
	CategoryDatabaseSecurity  Category = "database-security"
	CategoryAuthentication    Category = "authentication"
	CategoryAuthorization     Category = "authorization"
	CategorySessionManagement Category = "session-management"
	CategoryInputValidation   Category = "input-validation"
	CategoryOutputEncoding    Category = "output-encoding"
	CategoryCryptography      Category = "cryptography"
	CategoryLogging           Category = "logging"
	CategoryMonitoring        Category = "monitoring"
	CategoryBackupSecurity    Category = "backup-security"
	CategoryDisasterRecovery  Category = "disaster-recovery"
	CategoryAdvancedThreats   Category = "advanced-threats"
	CategoryExternalTools     Category = "external-tool-based"
)

// Categories lists every category in catalogue order.
var Categories = []Category{
	CategoryVulnerability,
	CategoryConfiguration,
	CategoryAccessControl,
	CategoryDataProtection,
	CategoryCompliance,
	CategoryWebSecurity,
	CategoryAPISecurity,
	CategoryNetworkSecurity,
	CategoryDatabaseSecurity,
	CategoryAuthentication,
	CategoryAuthorization,
	CategorySessionManagement,
	CategoryInputValidation,
	CategoryOutputEncoding,
	CategoryCryptography,
	CategoryLogging,
	CategoryMonitoring,
	CategoryBackupSecurity,
	CategoryDisasterRecovery,
	CategoryAdvancedThreats,
	CategoryExternalTools,
}

func (c Category) String() string { return string(c) }

// AlwaysEnabled reports whether checks in the category run regardless of the
// scan selection.
func (c Category) AlwaysEnabled() bool { return c == CategoryExternalTools }

// ParseCategory converts a string to a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown check category %q", s)
}

// Severity ranks how serious a failed check is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) String() string { return string(s) }

// Rank orders severities from low (1) to critical (4). Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// AtLeastHigh reports whether the severity is high or critical.
func (s Severity) AtLeastHigh() bool { return s.Rank() >= SeverityHigh.Rank() }

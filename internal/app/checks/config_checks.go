package checks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ahrav/secaudit/internal/domain/checks"
	"github.com/ahrav/secaudit/pkg/config"
)

// verdict is the outcome of evaluating one configuration rule. An empty
// problem means the rule passed.
type verdict struct {
	problem string
}

func ok() verdict { return verdict{} }

func fail(format string, args ...any) verdict {
	return verdict{problem: fmt.Sprintf(format, args...)}
}

// rule evaluates the security configuration at a point in time.
type rule func(cfg *config.SecurityConfig, now time.Time) verdict

// loadConfig reads the configuration document, mapping read errors to a
// scan failure result.
func loadConfig(ctx context.Context, env checks.Environment) (*config.SecurityConfig, *checks.Result, error) {
	if env.Config == nil {
		res := checks.ScanFailureResult("Security configuration store is not available.", nil)
		return nil, &res, nil
	}

	cfg, err := env.Config.GetSecurityConfig(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, err
		}
		desc := "Security configuration could not be read."
		if errors.Is(err, checks.ErrSecurityConfigNotFound) {
			desc = "No security configuration has been stored."
		}
		res := checks.ScanFailureResult(desc, err)
		return nil, &res, nil
	}
	return cfg, nil, nil
}

// configCheck evaluates r against the stored configuration.
func configCheck(r rule) checks.Func {
	return func(ctx context.Context, env checks.Environment) (checks.Result, error) {
		cfg, failure, err := loadConfig(ctx, env)
		if err != nil {
			return checks.Result{}, err
		}
		if failure != nil {
			return *failure, nil
		}

		if v := r(cfg, env.Clock()); v.problem != "" {
			return checks.Result{Details: v.problem}, nil
		}
		return checks.Pass(), nil
	}
}

// configAndPatternCheck fails when the rule fails or any pattern matches.
// Both sources are consulted so the details name every problem found.
func configAndPatternCheck(r rule, patterns ...checks.Pattern) checks.Func {
	return func(ctx context.Context, env checks.Environment) (checks.Result, error) {
		cfg, failure, err := loadConfig(ctx, env)
		if err != nil {
			return checks.Result{}, err
		}
		if failure != nil {
			return *failure, nil
		}

		h, err := scanSource(ctx, env, patterns)
		if err != nil {
			if ctx.Err() != nil {
				return checks.Result{}, err
			}
			return checks.ScanFailureResult("The source tree could not be scanned.", err), nil
		}

		var problems []string
		if v := r(cfg, env.Clock()); v.problem != "" {
			problems = append(problems, v.problem)
		}
		if !h.empty() {
			problems = append(problems, h.String())
		}
		if len(problems) == 0 {
			return checks.Pass(), nil
		}
		return checks.Result{Details: strings.Join(problems, "; ")}, nil
	}
}

const day = 24 * time.Hour

// Thresholds applied by the configuration rules.
const (
	maxAdminAccounts      = 5
	minPasswordLength     = 12
	maxLockoutThreshold   = 10
	maxSessionMinutes     = 30
	maxKeyRotationDays    = 90
	maxUploadSizeMB       = 100
	minLogRetentionDays   = 90
	maxDataRetentionDays  = 3 * 365
	maxBackupIntervalHrs  = 24
	maxRestoreTestAgeDays = 180
)

func debugModeOff(cfg *config.SecurityConfig, _ time.Time) verdict {
	if cfg.Web.DebugMode {
		return fail("debug mode is enabled in the security configuration")
	}
	return ok()
}

func hstsEnabled(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.Web.HSTSEnabled {
		return fail("Strict-Transport-Security header is disabled")
	}
	return ok()
}

func corsRestricted(cfg *config.SecurityConfig, _ time.Time) verdict {
	origins := cfg.Web.CORSAllowedOrigins
	if len(origins) == 0 {
		return fail("no CORS allow-list is configured")
	}
	if slices.Contains(origins, "*") {
		return fail("CORS allows any origin (*)")
	}
	for _, o := range origins {
		if strings.HasPrefix(o, "http://") && !isLocalOrigin(o) {
			return fail("CORS allows plaintext origin %s", o)
		}
	}
	return ok()
}

func isLocalOrigin(o string) bool {
	return strings.HasPrefix(o, "http://localhost") || strings.HasPrefix(o, "http://127.0.0.1")
}

func defaultCredentialsChanged(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.Authentication.DefaultCredentialsChanged {
		return fail("default administrator credentials have not been changed")
	}
	return ok()
}

func rbacEnabled(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.Access.RBACEnabled {
		return fail("role-based access control is disabled")
	}
	return ok()
}

func adminCount(cfg *config.SecurityConfig, _ time.Time) verdict {
	if n := cfg.Access.AdminCount; n > maxAdminAccounts {
		return fail("%d administrator accounts exceed the limit of %d", n, maxAdminAccounts)
	}
	return ok()
}

func encryptionAtRest(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.DataProtection.EncryptionAtRest {
		return fail("stored data is not encrypted at rest")
	}
	return ok()
}

func dataRetention(cfg *config.SecurityConfig, _ time.Time) verdict {
	days := cfg.DataProtection.RetentionDays
	switch {
	case days <= 0:
		return fail("no data retention period is defined")
	case days > maxDataRetentionDays:
		return fail("data retention of %d days exceeds %d", days, maxDataRetentionDays)
	}
	return ok()
}

func privacyPolicy(cfg *config.SecurityConfig, _ time.Time) verdict {
	if strings.TrimSpace(cfg.DataProtection.PrivacyPolicyURL) == "" {
		return fail("no privacy policy URL is published")
	}
	return ok()
}

func cookieConsent(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.DataProtection.CookieConsent {
		return fail("cookie consent is not collected")
	}
	return ok()
}

func dpoContact(cfg *config.SecurityConfig, _ time.Time) verdict {
	if strings.TrimSpace(cfg.DataProtection.DPOContact) == "" {
		return fail("no data protection officer contact is configured")
	}
	return ok()
}

func contentSecurityPolicy(cfg *config.SecurityConfig, _ time.Time) verdict {
	csp := strings.TrimSpace(cfg.Web.ContentSecurityPolicy)
	switch {
	case csp == "":
		return fail("no Content-Security-Policy is configured")
	case strings.Contains(csp, "'unsafe-inline'") || strings.Contains(csp, "'unsafe-eval'"):
		return fail("Content-Security-Policy allows unsafe-inline or unsafe-eval")
	}
	return ok()
}

func clickjacking(cfg *config.SecurityConfig, _ time.Time) verdict {
	switch strings.ToUpper(strings.TrimSpace(cfg.Web.FrameOptions)) {
	case "DENY", "SAMEORIGIN":
		return ok()
	}
	if strings.Contains(cfg.Web.ContentSecurityPolicy, "frame-ancestors") {
		return ok()
	}
	return fail("neither X-Frame-Options nor a frame-ancestors directive is set")
}

func apiRateLimit(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.API.RateLimitEnabled {
		return fail("API rate limiting is disabled")
	}
	return ok()
}

func apiKeyRotation(cfg *config.SecurityConfig, _ time.Time) verdict {
	days := cfg.API.KeyRotationDays
	if days <= 0 || days > maxKeyRotationDays {
		return fail("API keys rotate every %d days, expected 1-%d", days, maxKeyRotationDays)
	}
	return ok()
}

// tlsMinVersion accepts "1.2", "TLS1.2", "TLSv1.3" and similar spellings.
func tlsMinVersion(cfg *config.SecurityConfig, _ time.Time) verdict {
	v := strings.ToLower(strings.TrimSpace(cfg.Web.TLSMinVersion))
	v = strings.TrimPrefix(v, "tls")
	v = strings.TrimPrefix(v, "v")
	switch v {
	case "1.2", "1.3":
		return ok()
	case "":
		return fail("no minimum TLS version is configured")
	}
	return fail("minimum TLS version %s is below 1.2", cfg.Web.TLSMinVersion)
}

func databaseTLS(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.Database.TLSEnabled {
		return fail("database connections are not encrypted")
	}
	return ok()
}

func databaseNotPublic(cfg *config.SecurityConfig, _ time.Time) verdict {
	if cfg.Database.PubliclyExposed {
		return fail("the database accepts connections from the public internet")
	}
	return ok()
}

func mfaEnabled(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.Authentication.MFAEnabled {
		return fail("multi-factor authentication is disabled")
	}
	return ok()
}

func passwordPolicy(cfg *config.SecurityConfig, _ time.Time) verdict {
	a := cfg.Authentication
	if a.PasswordMinLength < minPasswordLength && !a.PasswordRequireComplexity {
		return fail("passwords need only %d characters with no complexity rule", a.PasswordMinLength)
	}
	if a.PasswordMinLength < 8 {
		return fail("minimum password length %d is below 8", a.PasswordMinLength)
	}
	return ok()
}

func accountLockout(cfg *config.SecurityConfig, _ time.Time) verdict {
	n := cfg.Authentication.LockoutThreshold
	if n <= 0 || n > maxLockoutThreshold {
		return fail("account lockout threshold is %d, expected 1-%d", n, maxLockoutThreshold)
	}
	return ok()
}

func sessionTimeout(cfg *config.SecurityConfig, _ time.Time) verdict {
	m := cfg.Session.TimeoutMinutes
	if m <= 0 || m > maxSessionMinutes {
		return fail("session timeout is %d minutes, expected 1-%d", m, maxSessionMinutes)
	}
	return ok()
}

func secureCookies(cfg *config.SecurityConfig, _ time.Time) verdict {
	var missing []string
	if !cfg.Session.SecureCookies {
		missing = append(missing, "Secure")
	}
	if !cfg.Session.HTTPOnly {
		missing = append(missing, "HttpOnly")
	}
	if len(missing) > 0 {
		return fail("session cookies lack %s", strings.Join(missing, " and "))
	}
	return ok()
}

func sameSite(cfg *config.SecurityConfig, _ time.Time) verdict {
	switch strings.ToLower(strings.TrimSpace(cfg.Session.SameSite)) {
	case "lax", "strict":
		return ok()
	case "":
		return fail("SameSite attribute is not set")
	}
	return fail("SameSite=%s does not restrict cross-site requests", cfg.Session.SameSite)
}

func requestValidation(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.API.RequestValidation {
		return fail("request payloads are not validated")
	}
	return ok()
}

func uploadRestrictions(cfg *config.SecurityConfig, _ time.Time) verdict {
	api := cfg.API
	switch {
	case api.MaxUploadSizeMB <= 0 || api.MaxUploadSizeMB > maxUploadSizeMB:
		return fail("upload size limit is %d MB, expected 1-%d", api.MaxUploadSizeMB, maxUploadSizeMB)
	case len(api.AllowedUploadTypes) == 0:
		return fail("no upload type allow-list is configured")
	case slices.Contains(api.AllowedUploadTypes, "*") || slices.Contains(api.AllowedUploadTypes, "*/*"):
		return fail("uploads of any type are accepted")
	}
	return ok()
}

func auditLogging(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.Logging.AuditLogging {
		return fail("audit logging is disabled")
	}
	return ok()
}

func logRetention(cfg *config.SecurityConfig, _ time.Time) verdict {
	if d := cfg.Logging.RetentionDays; d < minLogRetentionDays {
		return fail("logs are kept for %d days, expected at least %d", d, minLogRetentionDays)
	}
	return ok()
}

func securityAlerting(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.Monitoring.AlertingEnabled {
		return fail("security alerting is disabled")
	}
	return ok()
}

func intrusionDetection(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.Monitoring.IntrusionDetection {
		return fail("no intrusion detection is configured")
	}
	return ok()
}

func automatedBackups(cfg *config.SecurityConfig, _ time.Time) verdict {
	b := cfg.Backup
	if !b.Enabled {
		return fail("automated backups are disabled")
	}
	if b.FrequencyHours <= 0 || b.FrequencyHours > maxBackupIntervalHrs {
		return fail("backups run every %d hours, expected 1-%d", b.FrequencyHours, maxBackupIntervalHrs)
	}
	return ok()
}

func backupEncryption(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.Backup.Encrypted {
		return fail("backups are not encrypted")
	}
	return ok()
}

// backupRecency requires the last backup within two backup intervals.
func backupRecency(cfg *config.SecurityConfig, now time.Time) verdict {
	b := cfg.Backup
	if b.LastBackup.IsZero() {
		return fail("no backup has been recorded")
	}
	interval := time.Duration(b.FrequencyHours) * time.Hour
	if interval <= 0 {
		interval = maxBackupIntervalHrs * time.Hour
	}
	if age := now.Sub(b.LastBackup); age > 2*interval {
		return fail("last backup is %s old", age.Round(time.Hour))
	}
	return ok()
}

func recoveryPlan(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.DisasterRecovery.PlanDocumented {
		return fail("no disaster recovery plan is documented")
	}
	return ok()
}

func restoreTesting(cfg *config.SecurityConfig, now time.Time) verdict {
	last := cfg.DisasterRecovery.LastRestoreTest
	if last.IsZero() {
		return fail("backups have never been restored in a test")
	}
	if age := now.Sub(last); age > maxRestoreTestAgeDays*day {
		return fail("last restore test was %d days ago", int(age/day))
	}
	return ok()
}

func offSiteBackups(cfg *config.SecurityConfig, _ time.Time) verdict {
	if !cfg.Backup.OffSite {
		return fail("backups are not stored off-site")
	}
	return ok()
}

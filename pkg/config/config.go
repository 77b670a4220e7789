// Package config models the application's security posture document and
// loads baseline versions of it from YAML.
package config

import "time"

// SecurityConfig is the persisted document configuration checks read. Field
// names follow the YAML baseline; JSON tags are used for storage.
type SecurityConfig struct {
	Authentication   AuthenticationPolicy   `yaml:"authentication" json:"authentication"`
	Session          SessionPolicy          `yaml:"session" json:"session"`
	Web              WebPolicy              `yaml:"web" json:"web"`
	Access           AccessPolicy           `yaml:"access" json:"access"`
	API              APIPolicy              `yaml:"api" json:"api"`
	DataProtection   DataProtectionPolicy   `yaml:"data_protection" json:"dataProtection"`
	Database         DatabasePolicy         `yaml:"database" json:"database"`
	Logging          LoggingPolicy          `yaml:"logging" json:"logging"`
	Monitoring       MonitoringPolicy       `yaml:"monitoring" json:"monitoring"`
	Backup           BackupPolicy           `yaml:"backup" json:"backup"`
	DisasterRecovery DisasterRecoveryPolicy `yaml:"disaster_recovery" json:"disasterRecovery"`
}

// AuthenticationPolicy describes login hardening.
type AuthenticationPolicy struct {
	MFAEnabled                bool `yaml:"mfa_enabled" json:"mfaEnabled"`
	PasswordMinLength         int  `yaml:"password_min_length" json:"passwordMinLength"`
	PasswordRequireComplexity bool `yaml:"password_require_complexity" json:"passwordRequireComplexity"`
	LockoutThreshold          int  `yaml:"lockout_threshold" json:"lockoutThreshold"`
	DefaultCredentialsChanged bool `yaml:"default_credentials_changed" json:"defaultCredentialsChanged"`
}

// SessionPolicy describes session and cookie handling.
type SessionPolicy struct {
	TimeoutMinutes int    `yaml:"timeout_minutes" json:"timeoutMinutes"`
	SecureCookies  bool   `yaml:"secure_cookies" json:"secureCookies"`
	HTTPOnly       bool   `yaml:"http_only" json:"httpOnly"`
	SameSite       string `yaml:"same_site" json:"sameSite"`
}

// WebPolicy describes response headers and transport settings.
type WebPolicy struct {
	CORSAllowedOrigins    []string `yaml:"cors_allowed_origins" json:"corsAllowedOrigins"`
	ContentSecurityPolicy string   `yaml:"content_security_policy" json:"contentSecurityPolicy"`
	HSTSEnabled           bool     `yaml:"hsts_enabled" json:"hstsEnabled"`
	FrameOptions          string   `yaml:"frame_options" json:"frameOptions"`
	TLSMinVersion         string   `yaml:"tls_min_version" json:"tlsMinVersion"`
	DebugMode             bool     `yaml:"debug_mode" json:"debugMode"`
}

// AccessPolicy describes authorization settings.
type AccessPolicy struct {
	RBACEnabled bool `yaml:"rbac_enabled" json:"rbacEnabled"`
	AdminCount  int  `yaml:"admin_count" json:"adminCount"`
}

// APIPolicy describes the public API guard rails.
type APIPolicy struct {
	RateLimitEnabled   bool     `yaml:"rate_limit_enabled" json:"rateLimitEnabled"`
	KeyRotationDays    int      `yaml:"key_rotation_days" json:"keyRotationDays"`
	RequestValidation  bool     `yaml:"request_validation" json:"requestValidation"`
	MaxUploadSizeMB    int      `yaml:"max_upload_size_mb" json:"maxUploadSizeMb"`
	AllowedUploadTypes []string `yaml:"allowed_upload_types" json:"allowedUploadTypes"`
}

// DataProtectionPolicy describes storage of personal data.
type DataProtectionPolicy struct {
	EncryptionAtRest bool   `yaml:"encryption_at_rest" json:"encryptionAtRest"`
	RetentionDays    int    `yaml:"retention_days" json:"retentionDays"`
	PrivacyPolicyURL string `yaml:"privacy_policy_url" json:"privacyPolicyUrl"`
	CookieConsent    bool   `yaml:"cookie_consent" json:"cookieConsent"`
	DPOContact       string `yaml:"dpo_contact" json:"dpoContact"`
}

// DatabasePolicy describes how the application database is reached.
type DatabasePolicy struct {
	TLSEnabled      bool `yaml:"tls_enabled" json:"tlsEnabled"`
	PubliclyExposed bool `yaml:"publicly_exposed" json:"publiclyExposed"`
}

// LoggingPolicy describes audit logging.
type LoggingPolicy struct {
	AuditLogging  bool `yaml:"audit_logging" json:"auditLogging"`
	RetentionDays int  `yaml:"retention_days" json:"retentionDays"`
}

// MonitoringPolicy describes alerting and detection.
type MonitoringPolicy struct {
	AlertingEnabled    bool `yaml:"alerting_enabled" json:"alertingEnabled"`
	IntrusionDetection bool `yaml:"intrusion_detection" json:"intrusionDetection"`
}

// BackupPolicy describes data backups.
type BackupPolicy struct {
	Enabled        bool      `yaml:"enabled" json:"enabled"`
	Encrypted      bool      `yaml:"encrypted" json:"encrypted"`
	OffSite        bool      `yaml:"off_site" json:"offSite"`
	FrequencyHours int       `yaml:"frequency_hours" json:"frequencyHours"`
	LastBackup     time.Time `yaml:"last_backup" json:"lastBackup"`
}

// DisasterRecoveryPolicy describes recovery readiness.
type DisasterRecoveryPolicy struct {
	PlanDocumented  bool      `yaml:"plan_documented" json:"planDocumented"`
	LastRestoreTest time.Time `yaml:"last_restore_test" json:"lastRestoreTest"`
}

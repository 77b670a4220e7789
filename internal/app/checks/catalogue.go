package checks

import "github.com/ahrav/secaudit/internal/domain/checks"

func def(name string, c checks.Category, sev checks.Severity, cwe, cvss, desc string, run checks.Func) checks.Definition {
	return checks.Definition{
		Name:        name,
		Description: desc,
		Category:    c,
		Severity:    sev,
		CWE:         cwe,
		CVSS:        cvss,
		Run:         run,
	}
}

func advice(title, desc, impl string) checks.Advice {
	return checks.Advice{Title: title, Description: desc, Implementation: impl}
}

// catalogue returns every check in registry order.
func catalogue() []entry {
	const (
		low      = checks.SeverityLow
		medium   = checks.SeverityMedium
		high     = checks.SeverityHigh
		vuln     = checks.CategoryVulnerability
		conf     = checks.CategoryConfiguration
		access   = checks.CategoryAccessControl
		data     = checks.CategoryDataProtection
		comp     = checks.CategoryCompliance
		web      = checks.CategoryWebSecurity
		api      = checks.CategoryAPISecurity
		network  = checks.CategoryNetworkSecurity
		database = checks.CategoryDatabaseSecurity
		authn    = checks.CategoryAuthentication
		authz    = checks.CategoryAuthorization
		session  = checks.CategorySessionManagement
		input    = checks.CategoryInputValidation
		output   = checks.CategoryOutputEncoding
		crypto   = checks.CategoryCryptography
		logging  = checks.CategoryLogging
		monitor  = checks.CategoryMonitoring
		backup   = checks.CategoryBackupSecurity
		dr       = checks.CategoryDisasterRecovery
		advanced = checks.CategoryAdvancedThreats
		external = checks.CategoryExternalTools
	)

	return []entry{
		// vulnerability
		{
			def(
				"SQL Injection Patterns", vuln, high, "CWE-89", "9.8",
				"SQL statements are built by concatenating or interpolating values.",
				patternCheck(sqlInjectionPatterns...),
			),
			advice(
				"Use parameterized queries",
				"Pass user-controlled values as bind parameters instead of building SQL strings.",
				"Replace string concatenation with placeholders ($1, ?) or a query builder that parameterizes values.",
			),
		},
		{
			def(
				"Cross-Site Scripting Sinks", vuln, medium, "CWE-79", "6.1",
				"HTML is written through DOM sinks that do not escape their input.",
				patternCheck(xssSinkPatterns...),
			),
			advice(
				"Avoid raw HTML sinks",
				"Render untrusted data with textContent or framework bindings that escape output.",
				"Replace innerHTML/document.write with textContent, or sanitize with a vetted library such as DOMPurify.",
			),
		},
		{
			def(
				"Code Injection via eval", vuln, medium, "CWE-94", "6.5",
				"Strings are evaluated as code with eval or an equivalent.",
				patternCheck(codeInjectionPatterns...),
			),
			advice(
				"Remove dynamic code evaluation",
				"eval, new Function and string timers execute attacker-influenced strings.",
				"Replace eval with JSON.parse or explicit dispatch tables; pass functions to setTimeout instead of strings.",
			),
		},
		{
			def(
				"Command Injection", vuln, high, "CWE-78", "9.8",
				"Shell commands are composed from variable input.",
				patternCheck(commandInjectionPatterns...),
			),
			advice(
				"Invoke processes without a shell",
				"Building shell command lines from input lets attackers run arbitrary commands.",
				"Use execFile/spawn with an argument array, never a shell string, and validate arguments against an allow-list.",
			),
		},
		{
			def(
				"Path Traversal", vuln, high, "CWE-22", "7.5",
				"File system paths are derived from request data.",
				patternCheck(pathTraversalPatterns...),
			),
			advice(
				"Constrain file paths",
				"Request data used in file paths can escape the intended directory.",
				"Resolve the path, verify it stays under an allowed base directory and reject names containing '..'.",
			),
		},

		// configuration
		{
			def(
				"Debug Mode Disabled", conf, medium, "CWE-489", "5.3",
				"Debug mode is enabled in configuration or source.",
				configAndPatternCheck(debugModeOff, debugModePatterns...),
			),
			advice(
				"Disable debug mode in production",
				"Debug output exposes stack traces, configuration and internal state.",
				"Turn off debug flags for production builds and set NODE_ENV=production.",
			),
		},
		{
			def(
				"Strict Transport Security", conf, medium, "CWE-319", "5.9",
				"HTTP Strict Transport Security is not enabled.",
				configCheck(hstsEnabled),
			),
			advice(
				"Enable HSTS",
				"Without HSTS browsers may be downgraded to plaintext HTTP.",
				"Send Strict-Transport-Security: max-age=31536000; includeSubDomains on every HTTPS response.",
			),
		},
		{
			def(
				"CORS Policy", conf, medium, "CWE-942", "5.3",
				"Cross-origin resource sharing is not restricted to known origins.",
				configCheck(corsRestricted),
			),
			advice(
				"Restrict CORS origins",
				"A permissive CORS policy lets any site call authenticated endpoints.",
				"Replace wildcard origins with an explicit list of trusted HTTPS origins.",
			),
		},
		{
			def(
				"Default Credentials", conf, high, "CWE-1392", "9.8",
				"Default or well-known credentials are in use.",
				configAndPatternCheck(defaultCredentialsChanged, defaultCredentialPatterns...),
			),
			advice(
				"Replace default credentials",
				"Default passwords are published and tried first by attackers.",
				"Rotate every default account password, remove credentials from source and load secrets from a vault.",
			),
		},

		// access-control
		{
			def(
				"Role-Based Access Control", access, high, "CWE-285", "8.1",
				"Role-based access control is not enforced.",
				configCheck(rbacEnabled),
			),
			advice(
				"Enable role-based access control",
				"Without roles every authenticated user can reach privileged operations.",
				"Define roles with least privilege and check them in middleware before handlers run.",
			),
		},
		{
			def(
				"Administrator Account Count", access, medium, "CWE-250", "4.9",
				"Too many accounts hold administrator privileges.",
				configCheck(adminCount),
			),
			advice(
				"Reduce administrator accounts",
				"Each administrator account widens the impact of a credential compromise.",
				"Review administrator accounts, demote those not needed and require MFA for the rest.",
			),
		},
		{
			def(
				"Unprotected Admin Routes", access, medium, "CWE-306", "6.5",
				"Administrative routes are registered without authentication middleware.",
				patternCheck(unprotectedAdminRoutePatterns...),
			),
			advice(
				"Protect administrative routes",
				"Admin endpoints reachable without authentication expose privileged functions.",
				"Mount admin routes behind authentication and authorization middleware.",
			),
		},

		// data-protection
		{
			def(
				"Hardcoded Secrets", data, high, "CWE-798", "7.5",
				"Credentials or keys are committed to the source tree.",
				hardcodedSecrets,
			),
			advice(
				"Remove secrets from source",
				"Secrets in source control are exposed to everyone with repository access.",
				"Revoke the exposed secrets, move them to environment variables or a secret manager and purge them from history.",
			),
		},
		{
			def(
				"Encryption at Rest", data, high, "CWE-311", "7.5",
				"Stored data is not encrypted.",
				configCheck(encryptionAtRest),
			),
			advice(
				"Encrypt data at rest",
				"Unencrypted storage exposes data if disks or backups are accessed.",
				"Enable storage-level encryption and encrypt sensitive columns with managed keys.",
			),
		},
		{
			def(
				"Data Retention Policy", data, medium, "CWE-359", "4.3",
				"No bounded retention period is defined for personal data.",
				configCheck(dataRetention),
			),
			advice(
				"Define data retention",
				"Keeping personal data indefinitely increases breach impact and regulatory exposure.",
				"Set a retention period per data class and schedule deletion of expired records.",
			),
		},
		{
			def(
				"Sensitive Data in Logs", data, medium, "CWE-532", "5.5",
				"Secrets or personal data are written to logs.",
				patternCheck(sensitiveLogPatterns...),
			),
			advice(
				"Scrub sensitive log fields",
				"Logs are widely readable and long lived.",
				"Remove secrets from log statements and add redaction for sensitive fields in the logger.",
			),
		},

		// compliance
		{
			def(
				"Privacy Policy Published", comp, medium, "CWE-359", "",
				"No privacy policy is published.",
				configCheck(privacyPolicy),
			),
			advice(
				"Publish a privacy policy",
				"Privacy regulations require a public notice describing data processing.",
				"Publish a privacy policy and record its URL in the security configuration.",
			),
		},
		{
			def(
				"Cookie Consent", comp, medium, "CWE-359", "",
				"Cookie consent is not collected.",
				configCheck(cookieConsent),
			),
			advice(
				"Collect cookie consent",
				"Non-essential cookies require prior consent in several jurisdictions.",
				"Add a consent banner and block non-essential cookies until consent is given.",
			),
		},
		{
			def(
				"Data Protection Officer Contact", comp, low, "CWE-359", "",
				"No data protection officer contact is published.",
				configCheck(dpoContact),
			),
			advice(
				"Publish a DPO contact",
				"Data subjects and regulators need a contact for privacy requests.",
				"Nominate a data protection officer and publish a contact address.",
			),
		},

		// web-security
		{
			def(
				"Content Security Policy", web, medium, "CWE-693", "5.4",
				"No restrictive Content-Security-Policy is configured.",
				configCheck(contentSecurityPolicy),
			),
			advice(
				"Deploy a Content Security Policy",
				"A CSP limits the damage of injected scripts.",
				"Send a Content-Security-Policy without unsafe-inline or unsafe-eval; use nonces for inline scripts.",
			),
		},
		{
			def(
				"Clickjacking Protection", web, medium, "CWE-1021", "4.3",
				"Pages may be framed by other origins.",
				configCheck(clickjacking),
			),
			advice(
				"Prevent framing",
				"Framing lets attackers overlay the UI and trick users into actions.",
				"Send X-Frame-Options: DENY or a CSP frame-ancestors 'none' directive.",
			),
		},
		{
			def(
				"Open Redirect", web, medium, "CWE-601", "6.1",
				"Redirect targets are taken from request data.",
				patternCheck(openRedirectPatterns...),
			),
			advice(
				"Validate redirect targets",
				"Open redirects are used to lend credibility to phishing links.",
				"Only redirect to relative paths or an allow-list of hosts.",
			),
		},

		// api-security
		{
			def(
				"API Rate Limiting", api, medium, "CWE-770", "5.3",
				"API requests are not rate limited.",
				configCheck(apiRateLimit),
			),
			advice(
				"Rate limit the API",
				"Unlimited requests enable brute force and resource exhaustion.",
				"Apply per-client token bucket limits at the gateway or middleware.",
			),
		},
		{
			def(
				"API Key Rotation", api, medium, "CWE-324", "4.8",
				"API keys are not rotated on a short schedule.",
				configCheck(apiKeyRotation),
			),
			advice(
				"Rotate API keys",
				"Long-lived keys stay useful to attackers after a leak.",
				"Rotate keys at least every 90 days and support overlapping validity during rotation.",
			),
		},
		{
			def(
				"Mass Assignment", api, medium, "CWE-915", "6.5",
				"Request bodies are written to models without an allow-list.",
				patternCheck(massAssignmentPatterns...),
			),
			advice(
				"Allow-list writable fields",
				"Binding whole request bodies lets clients set fields such as roles or ownership.",
				"Copy only permitted fields from the request, or use DTOs with explicit field mapping.",
			),
		},

		// network-security
		{
			def(
				"TLS Minimum Version", network, high, "CWE-326", "7.4",
				"TLS versions below 1.2 are accepted.",
				configCheck(tlsMinVersion),
			),
			advice(
				"Require TLS 1.2 or newer",
				"Old TLS versions have known cryptographic weaknesses.",
				"Set the minimum TLS version to 1.2 (preferably 1.3) on every listener.",
			),
		},
		{
			def(
				"Plaintext HTTP Endpoints", network, low, "CWE-319", "3.7",
				"Source references remote endpoints over plaintext HTTP.",
				patternCheck(plaintextHTTPPatterns...),
			),
			advice(
				"Use HTTPS endpoints",
				"Plaintext HTTP can be read and modified in transit.",
				"Switch external URLs to https:// and reject plaintext connections.",
			),
		},

		// database-security
		{
			def(
				"Database Transport Encryption", database, high, "CWE-319", "7.4",
				"Database connections are not encrypted.",
				configCheck(databaseTLS),
			),
			advice(
				"Encrypt database connections",
				"Unencrypted database traffic exposes queries and credentials.",
				"Require TLS on the database server and set sslmode=verify-full in clients.",
			),
		},
		{
			def(
				"Database Public Exposure", database, high, "CWE-668", "8.6",
				"The database is reachable from the public internet.",
				configCheck(databaseNotPublic),
			),
			advice(
				"Isolate the database",
				"Publicly reachable databases are scanned and attacked continuously.",
				"Move the database to a private network and restrict access with security groups.",
			),
		},
		{
			def(
				"NoSQL Injection", database, high, "CWE-943", "8.1",
				"Document queries are built directly from request data.",
				patternCheck(noSQLInjectionPatterns...),
			),
			advice(
				"Sanitize document queries",
				"Request objects can carry query operators such as $ne or $where.",
				"Validate request fields as scalars and strip keys beginning with '$' before building queries.",
			),
		},

		// authentication
		{
			def(
				"Multi-Factor Authentication", authn, high, "CWE-308", "8.1",
				"Multi-factor authentication is not enforced.",
				configCheck(mfaEnabled),
			),
			advice(
				"Enforce multi-factor authentication",
				"Passwords alone are defeated by phishing and credential stuffing.",
				"Require TOTP or WebAuthn for all administrative accounts.",
			),
		},
		{
			def(
				"Password Policy", authn, medium, "CWE-521", "5.3",
				"The password policy permits weak passwords.",
				configCheck(passwordPolicy),
			),
			advice(
				"Strengthen the password policy",
				"Short passwords are cracked quickly.",
				"Require at least 12 characters and check new passwords against breached-password lists.",
			),
		},
		{
			def(
				"Account Lockout", authn, medium, "CWE-307", "5.3",
				"Repeated failed logins are not throttled.",
				configCheck(accountLockout),
			),
			advice(
				"Throttle failed logins",
				"Unlimited attempts allow online password guessing.",
				"Lock or delay accounts after a small number of failures and alert on repeated lockouts.",
			),
		},

		// authorization
		{
			def(
				"Privilege Escalation via Request Data", authz, high, "CWE-269", "8.8",
				"Roles or privileges are read from client-supplied data.",
				patternCheck(privilegeEscalationPatterns...),
			),
			advice(
				"Derive privileges server-side",
				"Clients can set any role they like in the request.",
				"Read roles from the authenticated session or token claims, never from request bodies.",
			),
		},
		{
			def(
				"Insecure Direct Object References", authz, medium, "CWE-639", "6.5",
				"Records are fetched by client-supplied id without an ownership check.",
				patternCheck(idorPatterns...),
			),
			advice(
				"Check object ownership",
				"Guessable ids let users read other users' records.",
				"Scope lookups to the authenticated user or verify ownership after loading.",
			),
		},

		// session-management
		{
			def(
				"Session Timeout", session, medium, "CWE-613", "5.4",
				"Sessions stay valid for too long.",
				configCheck(sessionTimeout),
			),
			advice(
				"Shorten session lifetime",
				"Long sessions widen the window for hijacking.",
				"Expire idle sessions after 30 minutes or less and re-authenticate sensitive actions.",
			),
		},
		{
			def(
				"Secure Cookie Flags", session, medium, "CWE-614", "5.3",
				"Session cookies lack Secure or HttpOnly.",
				configCheck(secureCookies),
			),
			advice(
				"Set Secure and HttpOnly",
				"Cookies without these flags leak over HTTP or to scripts.",
				"Set Secure and HttpOnly on all session cookies.",
			),
		},
		{
			def(
				"SameSite Cookie Attribute", session, low, "CWE-1275", "4.3",
				"Session cookies are sent on cross-site requests.",
				configCheck(sameSite),
			),
			advice(
				"Set SameSite on cookies",
				"SameSite limits cross-site request forgery.",
				"Set SameSite=Lax or Strict on session cookies.",
			),
		},

		// input-validation
		{
			def(
				"Request Validation", input, medium, "CWE-20", "5.3",
				"Request payloads are not validated against a schema.",
				configCheck(requestValidation),
			),
			advice(
				"Validate requests",
				"Unvalidated input reaches business logic and storage.",
				"Validate every request body against a schema and reject unknown fields.",
			),
		},
		{
			def(
				"Regular Expression Injection", input, medium, "CWE-1333", "5.3",
				"Regular expressions are compiled from request data.",
				patternCheck(regexInjectionPatterns...),
			),
			advice(
				"Escape user input in patterns",
				"User-supplied patterns can trigger catastrophic backtracking.",
				"Escape input before building patterns or match with a linear-time engine.",
			),
		},
		{
			def(
				"File Upload Restrictions", input, medium, "CWE-434", "6.5",
				"File uploads are not limited by size and type.",
				configCheck(uploadRestrictions),
			),
			advice(
				"Restrict uploads",
				"Unrestricted uploads allow executable content and storage exhaustion.",
				"Enforce a size limit, allow-list content types and store uploads outside the web root.",
			),
		},

		// output-encoding
		{
			def(
				"Unescaped Template Output", output, medium, "CWE-116", "6.1",
				"Templates render values without escaping.",
				patternCheck(unescapedTemplatePatterns...),
			),
			advice(
				"Escape template output",
				"Raw template output turns stored data into script injection.",
				"Use the escaping form of template tags and sanitize the few values that must be HTML.",
			),
		},
		{
			def(
				"Reflected Request Data", output, medium, "CWE-79", "6.1",
				"Request data is echoed directly into responses.",
				patternCheck(reflectedRequestPatterns...),
			),
			advice(
				"Encode reflected data",
				"Echoing request data enables reflected cross-site scripting.",
				"Encode values for the response context or return them as JSON with the correct content type.",
			),
		},

		// cryptography
		{
			def(
				"Weak Hash Algorithms", crypto, medium, "CWE-328", "5.9",
				"MD5 or SHA-1 is used.",
				patternCheck(weakHashPatterns...),
			),
			advice(
				"Replace weak hashes",
				"MD5 and SHA-1 are broken for collision resistance.",
				"Use SHA-256 or better; hash passwords with bcrypt, scrypt or Argon2.",
			),
		},
		{
			def(
				"Weak Ciphers", crypto, high, "CWE-327", "7.5",
				"Broken ciphers or ECB mode are used.",
				patternCheck(weakCipherPatterns...),
			),
			advice(
				"Use authenticated encryption",
				"DES, RC4 and ECB mode do not protect confidentiality.",
				"Switch to AES-GCM or ChaCha20-Poly1305 with random nonces.",
			),
		},
		{
			def(
				"Insecure Randomness", crypto, low, "CWE-338", "3.7",
				"Non-cryptographic random number generators are used.",
				patternCheck(insecureRandomPatterns...),
			),
			advice(
				"Use a cryptographic RNG",
				"Predictable random values break tokens and identifiers.",
				"Use crypto.randomBytes, crypto/rand or secrets for anything security sensitive.",
			),
		},

		// logging
		{
			def(
				"Audit Logging", logging, medium, "CWE-778", "4.3",
				"Security-relevant actions are not audit logged.",
				configCheck(auditLogging),
			),
			advice(
				"Enable audit logging",
				"Without an audit trail incidents cannot be investigated.",
				"Record authentication, authorization and administrative events with actor and timestamp.",
			),
		},
		{
			def(
				"Log Retention", logging, low, "CWE-779", "",
				"Logs are not kept long enough for investigations.",
				configCheck(logRetention),
			),
			advice(
				"Extend log retention",
				"Breaches are often discovered weeks after they start.",
				"Retain security logs for at least 90 days in tamper-resistant storage.",
			),
		},

		// monitoring
		{
			def(
				"Security Alerting", monitor, medium, "CWE-778", "",
				"Security events do not raise alerts.",
				configCheck(securityAlerting),
			),
			advice(
				"Enable security alerting",
				"Unalerted events go unnoticed until damage is done.",
				"Route authentication failures and privilege changes to an on-call alerting channel.",
			),
		},
		{
			def(
				"Intrusion Detection", monitor, medium, "CWE-693", "",
				"No intrusion detection is in place.",
				configCheck(intrusionDetection),
			),
			advice(
				"Deploy intrusion detection",
				"Intrusion detection surfaces attacks in progress.",
				"Enable a host or network IDS and forward its events to the alerting pipeline.",
			),
		},
		{
			def(
				"Regular Security Scanning", monitor, low, "CWE-1104", "",
				"Security scans do not run regularly.",
				regularScanning,
			),
			advice(
				"Schedule security scans",
				"Regular scans catch regressions and new vulnerabilities.",
				"Run a full security scan at least every 30 days.",
			),
		},

		// backup-security
		{
			def(
				"Automated Backups", backup, high, "CWE-693", "",
				"Backups are not automated at least daily.",
				configCheck(automatedBackups),
			),
			advice(
				"Automate backups",
				"Without regular backups data loss is permanent.",
				"Schedule automated backups at least every 24 hours.",
			),
		},
		{
			def(
				"Backup Encryption", backup, medium, "CWE-311", "",
				"Backups are stored unencrypted.",
				configCheck(backupEncryption),
			),
			advice(
				"Encrypt backups",
				"Backups contain the same sensitive data as production.",
				"Encrypt backups with managed keys separate from production credentials.",
			),
		},
		{
			def(
				"Backup Recency", backup, medium, "CWE-693", "",
				"The most recent backup is stale.",
				configCheck(backupRecency),
			),
			advice(
				"Investigate failed backups",
				"A stale backup means recent data cannot be restored.",
				"Check the backup job, alert on failures and confirm a fresh backup completes.",
			),
		},

		// disaster-recovery
		{
			def(
				"Recovery Plan Documented", dr, medium, "CWE-693", "",
				"No disaster recovery plan is documented.",
				configCheck(recoveryPlan),
			),
			advice(
				"Document a recovery plan",
				"An undocumented recovery depends on whoever is on call remembering the steps.",
				"Write a recovery runbook with RTO/RPO targets, owners and contact lists.",
			),
		},
		{
			def(
				"Restore Testing", dr, medium, "CWE-693", "",
				"Backups have not been restored in a recent test.",
				configCheck(restoreTesting),
			),
			advice(
				"Test restores",
				"Untested backups often fail when needed.",
				"Restore a backup into a scratch environment at least twice a year and record the result.",
			),
		},
		{
			def(
				"Off-site Backups", dr, low, "CWE-693", "",
				"Backups are kept only on site.",
				configCheck(offSiteBackups),
			),
			advice(
				"Keep off-site copies",
				"Site-wide incidents destroy co-located backups.",
				"Replicate backups to a separate region or provider.",
			),
		},

		// advanced-threats
		{
			def(
				"Prototype Pollution", advanced, high, "CWE-1321", "8.1",
				"Object prototypes can be modified through merged input.",
				patternCheck(prototypePollutionPatterns...),
			),
			advice(
				"Block prototype pollution",
				"Polluted prototypes change behaviour across the whole process.",
				"Reject __proto__ and constructor keys, use Object.create(null) for maps and update merge libraries.",
			),
		},
		{
			def(
				"Server-Side Request Forgery", advanced, high, "CWE-918", "8.6",
				"Outbound requests target URLs taken from request data.",
				patternCheck(ssrfPatterns...),
			),
			advice(
				"Validate outbound URLs",
				"SSRF reaches internal services and cloud metadata endpoints.",
				"Allow-list outbound hosts and block private, loopback and link-local addresses.",
			),
		},
		{
			def(
				"Insecure Deserialization", advanced, high, "CWE-502", "8.1",
				"Untrusted data is deserialized with unsafe loaders.",
				patternCheck(deserializationPatterns...),
			),
			advice(
				"Use safe deserialization",
				"Unsafe deserializers can execute code embedded in the payload.",
				"Parse data formats such as JSON with strict schemas and use safe YAML loaders.",
			),
		},

		// external-tool-based
		{
			def(
				"Dependency Audit (npm audit)", external, medium, "CWE-1104", "",
				"npm audit reports vulnerable dependencies.",
				toolCheck(checks.ToolNpmAudit),
			),
			advice(
				"Update vulnerable dependencies",
				"Known vulnerable packages are an easy entry point.",
				"Run npm audit fix, upgrade the affected packages and pin versions in the lockfile.",
			),
		},
		{
			def(
				"Snyk Vulnerability Test", external, medium, "CWE-1104", "",
				"Snyk reports vulnerable dependencies.",
				toolCheck(checks.ToolSnyk),
			),
			advice(
				"Apply Snyk fixes",
				"Snyk matches dependencies against its vulnerability database.",
				"Follow the upgrade paths reported by snyk test or apply snyk patches.",
			),
		},
		{
			def(
				"Retire.js Library Scan", external, medium, "CWE-1104", "",
				"Retire.js reports outdated JavaScript libraries.",
				toolCheck(checks.ToolRetire),
			),
			advice(
				"Upgrade outdated libraries",
				"Bundled client libraries with known issues ship to every user.",
				"Upgrade or remove the libraries flagged by retire.",
			),
		},
	}
}

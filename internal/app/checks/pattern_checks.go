package checks

import "github.com/ahrav/secaudit/internal/domain/checks"

// Expressions are RE2 syntax. This file is excluded from pattern scans by
// name so the catalogue never reports itself.

var sqlInjectionPatterns = []checks.Pattern{
	{Name: "sql-concat", Expr: `(?i)["'\x60]\s*(select|insert|update|delete)\b[^"'\x60\n]*(from|into|set|where)\b[^"'\x60\n]*["'\x60]\s*\+\s*\w`},
	{Name: "sql-template", Expr: `(?i)\x60\s*(select|insert|update|delete)\b[^\x60]*\$\{[^}]+\}`},
	{Name: "sql-query-concat", Expr: `\.(query|execute|exec|raw)\(\s*["'\x60][^"'\x60]*["'\x60]\s*\+`},
	{Name: "sql-sprintf", Expr: `fmt\.Sprintf\(\s*"(?i:select|insert|update|delete)\s[^"]*%[sv]`},
}

var xssSinkPatterns = []checks.Pattern{
	{Name: "inner-html", Expr: `\.(innerHTML|outerHTML)\s*\+?=`},
	{Name: "document-write", Expr: `document\.write(ln)?\s*\(`},
	{Name: "dangerously-set", Expr: `dangerouslySetInnerHTML`},
	{Name: "insert-adjacent", Expr: `insertAdjacentHTML\s*\(`},
}

var codeInjectionPatterns = []checks.Pattern{
	{Name: "eval", Expr: `\beval\s*\(`},
	{Name: "function-constructor", Expr: `\bnew\s+Function\s*\(`},
	{Name: "string-timer", Expr: `\bset(Timeout|Interval)\s*\(\s*["'\x60]`},
	{Name: "vm-run", Expr: `\bvm\.run(InNewContext|InThisContext|InContext)\s*\(`},
}

var commandInjectionPatterns = []checks.Pattern{
	{Name: "exec-concat", Expr: `\b(exec|execSync|spawn|spawnSync)\s*\(\s*[^"'\x60),]*\+`},
	{Name: "exec-template", Expr: `\b(exec|execSync)\s*\(\s*\x60[^\x60]*\$\{`},
	{Name: "exec-request", Expr: `\b(exec|execSync|spawn|spawnSync|execFile)\s*\([^)]*\breq\.(body|query|params)`},
	{Name: "os-system", Expr: `\bos\.(system|popen)\s*\(`},
	{Name: "subprocess-shell", Expr: `subprocess\.\w+\([^)]*shell\s*=\s*True`},
	{Name: "go-shell", Expr: `exec\.Command(Context)?\([^)]*"(sh|bash)"\s*,\s*"-c"`},
}

var pathTraversalPatterns = []checks.Pattern{
	{Name: "fs-request", Expr: `\b(readFile|readFileSync|createReadStream|writeFile|writeFileSync|sendFile|unlink)\s*\([^)]*\breq\.(params|query|body)`},
	{Name: "join-request", Expr: `\bpath\.(join|resolve)\s*\([^)]*\breq\.(params|query|body)`},
	{Name: "go-join-query", Expr: `filepath\.Join\([^)]*r\.(URL\.Query\(\)|FormValue\()`},
}

var debugModePatterns = []checks.Pattern{
	{Name: "debug-flag", Expr: `(?i)\bdebug\s*[:=]\s*true\b`},
	{Name: "flask-debug", Expr: `\.run\([^)]*debug\s*=\s*True`},
	{Name: "node-env-dev", Expr: `NODE_ENV\s*[:=]\s*["']?development\b`},
}

var defaultCredentialPatterns = []checks.Pattern{
	{Name: "default-password", Expr: `(?i)\bpass(word|wd)?\s*[:=]\s*["'](admin|password|changeme|123456|letmein|default|root)["']`},
	{Name: "default-admin-pair", Expr: `(?i)\b(user(name)?|login)\s*[:=]\s*["'](admin|root)["'][^\n]*\bpass(word)?\s*[:=]\s*["'][^"']{0,8}["']`},
}

var unprotectedAdminRoutePatterns = []checks.Pattern{
	{Name: "express-admin", Expr: `(?i)\b(app|router)\.(get|post|put|patch|delete|all)\(\s*["']/admin[^"']*["']\s*,\s*(async\s+)?(\(\s*req|function\s*\()`},
	{Name: "go-admin", Expr: `\bHandleFunc\(\s*"(GET |POST |PUT |DELETE )?/admin[^"]*"\s*,\s*func\(`},
}

var sensitiveLogPatterns = []checks.Pattern{
	{
		Name: "log-secret",
		Expr: `(?i)\b(console\.(log|info|debug|warn|error)|logger?\.(info|debug|warn|error)|log\.(print\w*|fatal\w*))\s*\([^)]*\b(password|passwd|secret|token|api_?key|ssn|credit_?card)\b`,
	},
}

var openRedirectPatterns = []checks.Pattern{
	{Name: "redirect-request", Expr: `\bres\.redirect\(\s*(\d{3}\s*,\s*)?req\.(query|params|body)`},
	{Name: "location-assign", Expr: `window\.location(\.href)?\s*=\s*[^;\n]*(location\.search|searchParams\.get\(|req\.query)`},
	{Name: "go-redirect", Expr: `http\.Redirect\([^)]*r\.(URL\.Query\(\)\.Get|FormValue)\(`},
}

var massAssignmentPatterns = []checks.Pattern{
	{Name: "orm-body", Expr: `\.(create|update|insertOne|updateOne|findOneAndUpdate|findByIdAndUpdate|build)\(\s*(\w+\s*,\s*)?req\.body\s*\)`},
	{Name: "assign-body", Expr: `Object\.assign\(\s*\w+\s*,\s*req\.body\s*\)`},
	{Name: "spread-body", Expr: `\{\s*\.\.\.req\.body\s*\}`},
}

var plaintextHTTPPatterns = []checks.Pattern{
	{
		Name:   "http-url",
		Expr:   `["'\x60]http://[^"'\x60\s]+`,
		Reject: `http://(localhost|127\.0\.0\.1|0\.0\.0\.0|\[::1\])|http://(www\.w3\.org|schemas\.|json-schema\.org|example\.(com|org)|xmlns\.)`,
	},
}

var noSQLInjectionPatterns = []checks.Pattern{
	{Name: "query-request", Expr: `\.(find|findOne|findOneAndUpdate|updateOne|updateMany|deleteOne|deleteMany|aggregate|countDocuments)\(\s*req\.(body|query|params)\b`},
	{Name: "where-operator", Expr: `["']?\$where["']?\s*:`},
	{Name: "field-request", Expr: `\.(find|findOne)\(\s*\{[^}]*:\s*req\.(body|query)\.\w+\s*[,}]`},
}

var privilegeEscalationPatterns = []checks.Pattern{
	{Name: "role-from-request", Expr: `\breq\.(body|query|params)\.(role|roles|isAdmin|is_admin|admin|permissions|privileges)\b`},
	{Name: "role-assignment", Expr: `\b(role|isAdmin|is_admin|permissions)\s*[:=]\s*req\.(body|query)\b`},
}

var idorPatterns = []checks.Pattern{
	{Name: "lookup-by-param", Expr: `\.(findById|findByPk|findOne|getById|findUnique)\(\s*req\.(params|query)\.\w*[iI]d\b`},
}

var regexInjectionPatterns = []checks.Pattern{
	{Name: "regexp-request", Expr: `\bnew\s+RegExp\(\s*[^)"'\x60]*\breq\.(query|body|params)`},
	{Name: "go-regexp-request", Expr: `regexp\.(MustCompile|Compile)\(\s*r\.(URL\.Query\(\)\.Get|FormValue)\(`},
}

var unescapedTemplatePatterns = []checks.Pattern{
	{Name: "triple-stash", Expr: `\{\{\{[^}]+\}\}\}`},
	{Name: "ejs-raw", Expr: `<%-`},
	{Name: "safe-filter", Expr: `\|\s*safe\b`},
	{Name: "go-template-html", Expr: `\btemplate\.HTML\(`},
	{Name: "v-html", Expr: `\bv-html\s*=`},
}

var reflectedRequestPatterns = []checks.Pattern{
	{Name: "send-request", Expr: `\bres\.(send|write|end)\(\s*[^)]*\breq\.(query|params|body)`},
	{Name: "go-fprintf-query", Expr: `fmt\.Fprint(f|ln)?\(\s*w\s*,[^)]*r\.(URL\.Query\(\)|FormValue\()`},
}

var weakHashPatterns = []checks.Pattern{
	{Name: "node-hash", Expr: `(?i)createHash\(\s*["'](md5|sha1)["']`},
	{Name: "go-hash", Expr: `\b(md5|sha1)\.(New|Sum)\(`},
	{Name: "py-hash", Expr: `\bhashlib\.(md5|sha1)\(`},
	{Name: "java-hash", Expr: `MessageDigest\.getInstance\(\s*"(?i:md5|sha-?1)"`},
}

var weakCipherPatterns = []checks.Pattern{
	{Name: "node-cipher", Expr: `(?i)createCipher(iv)?\(\s*["'](des|des3|des-ede3?|rc4|rc2|bf|blowfish)[^"']*["']`},
	{Name: "ecb-mode", Expr: `(?i)aes-\d+-ecb|AES/ECB`},
	{Name: "go-cipher", Expr: `\b(des\.New(Triple)?Cipher|rc4\.NewCipher)\(`},
	{Name: "deprecated-create-cipher", Expr: `crypto\.createCipher\(`},
}

var insecureRandomPatterns = []checks.Pattern{
	{Name: "math-random", Expr: `\bMath\.random\(\)`},
	{Name: "go-math-rand", Expr: `"math/rand(/v2)?"`},
	{Name: "py-random", Expr: `\brandom\.(random|randint|choice)\(`},
}

var prototypePollutionPatterns = []checks.Pattern{
	{Name: "proto-access", Expr: `\[\s*["']__proto__["']\s*\]|\.__proto__\s*=`},
	{Name: "constructor-prototype", Expr: `constructor\s*\[\s*["']prototype["']\s*\]`},
	{Name: "merge-request", Expr: `\b(merge|extend|defaultsDeep|deepMerge|set)\(\s*\w+\s*,\s*req\.(body|query)`},
}

var ssrfPatterns = []checks.Pattern{
	{Name: "fetch-request", Expr: `\b(fetch|got|request|axios(\.(get|post|put|delete|request))?|https?\.get)\(\s*req\.(body|query|params)\.`},
	{Name: "go-get-request", Expr: `http\.(Get|Post|Head)\(\s*r\.(URL\.Query\(\)\.Get|FormValue)\(`},
}

var deserializationPatterns = []checks.Pattern{
	{Name: "unserialize", Expr: `\b(unserialize|serialize\.unserialize)\s*\(`},
	{Name: "pickle", Expr: `\bpickle\.loads?\(`},
	{Name: "yaml-load", Expr: `\byaml\.load\(`, Reject: `SafeLoader|safe_load`},
	{Name: "node-serialize", Expr: `require\(\s*["']node-serialize["']\s*\)`},
	{Name: "java-object-stream", Expr: `\bnew\s+ObjectInputStream\(`},
}

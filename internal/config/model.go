// internal/config/model.go
//
// Typed configuration model for hostcat.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                           – dotenv values,
//   • `conf/hostcat.yaml`                       – primary static file,
//   • `HOSTCAT_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Defaults() pre-fills every optional field; YAML and env only override
// what they mention.  Validation happens immediately after unmarshal; the
// app fails fast if required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/yanizio/hostcat/internal/ingest"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	// TrustProxy honours X-Forwarded-For and X-Real-IP when keying rate
	// limits.  Enable only behind a reverse proxy that sets them.
	TrustProxy bool `koanf:"trust_proxy"`
}

//
// Log section
//

// Log selects the level and whether events are teed to stdout.
type Log struct {
	Level   string `koanf:"level"   validate:"oneof=debug info warn error"`
	Console bool   `koanf:"console"`
}

//
// Database section
//

// Database holds the DSN template and its secret.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  When it contains one `%s` verb, the
// *secret* (`Password`, usually a `vault:` reference) is substituted at
// runtime, keeping credentials out of flat files and git history.
type Database struct {
	Driver          string        `koanf:"driver"            validate:"required,oneof=postgres mysql"`
	DSN             string        `koanf:"dsn"               validate:"required,dsn_template"`
	Password        string        `koanf:"password"`
	MaxOpenConns    int           `koanf:"max_open_conns"    validate:"gte=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	Migrate         bool          `koanf:"migrate"`
}

// ResolvedDSN returns DSN with Password substituted.
func (d Database) ResolvedDSN() string {
	if strings.Contains(d.DSN, "%s") {
		return fmt.Sprintf(d.DSN, d.Password)
	}
	return d.DSN
}

//
// Auth section
//

// Auth holds the shared admin password hash and cookie keys.
type Auth struct {
	PasswordHash string `koanf:"password_hash"` // bcrypt; empty disables login
	SessionKey   string `koanf:"session_key"   validate:"required,min=32"`
	CSRFKey      string `koanf:"csrf_key"      validate:"omitempty,min=32"`
	SecureCookie bool   `koanf:"secure_cookie"`
}

//
// Rate-limit section
//

// RateLimit rules use the "N/unit" form, e.g. "5/minute".  Clients caps the
// number of tracked client addresses.
type RateLimit struct {
	Default []string `koanf:"default" validate:"dive,ratelimit"`
	Login   []string `koanf:"login"   validate:"dive,ratelimit"`
	Clients int      `koanf:"clients" validate:"gte=1"`
}

//
// GeoIP section
//

// GeoIP points at an optional GeoLite2 City database.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Import section
//

// Import configures cmd/import.
type Import struct {
	Columns           ingest.Columns `koanf:"columns"`
	Categories        []int64        `koanf:"categories"`
	Favorite          bool           `koanf:"favorite"`
	ResolveRedirects  bool           `koanf:"resolve_redirects"`
	RedirectorDomains []string       `koanf:"redirector_domains"`
	RedirectTimeout   time.Duration  `koanf:"redirect_timeout"`
	MessagingBaseURL  string         `koanf:"messaging_base_url" validate:"omitempty,url"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or HOSTCAT_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP      HTTP      `koanf:"http"`
	Log       Log       `koanf:"log"`
	Database  Database  `koanf:"database"`
	Auth      Auth      `koanf:"auth"`
	RateLimit RateLimit `koanf:"rate_limit"`
	GeoIP     GeoIP     `koanf:"geoip"`
	Import    Import    `koanf:"import"`
	Paths     Paths     `koanf:"-"` // not loaded from config files
}

// Defaults returns the configuration used for anything the files omit.
func Defaults() Config {
	return Config{
		HTTP: HTTP{ListenAddr: "127.0.0.1:8080"},
		Log:  Log{Level: "info"},
		Database: Database{
			Driver:          "postgres",
			MaxOpenConns:    15,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			Migrate:         true,
		},
		RateLimit: RateLimit{
			Default: []string{"100/day"},
			Login:   []string{"5/minute", "20/hour"},
			Clients: 10000,
		},
		Import: Import{
			Columns:           ingest.DefaultColumns,
			RedirectorDomains: []string{"bitcoin-vps.com"},
			RedirectTimeout:   10 * time.Second,
			MessagingBaseURL:  ingest.DefaultMessagingBaseURL,
		},
	}
}

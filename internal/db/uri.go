package db

import (
	"net/url"
	"strings"

	"github.com/vvka-141/conncache/pkg/conncache"
)

// Query parameters whose values are secrets.
var secretParams = []string{
	"password",
	"sslpassword",
	"tlscertificatekeyfilepassword",
	"authmechanismproperties",
}

const redacted = "xxxxx"

// Scheme returns the lower-cased scheme of uri, or "" if it has none.
func Scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(uri[:i]))
}

// DriverName maps a connection string to the driver that serves it:
// conncache.DriverMongoDB, conncache.DriverPostgres, or "unknown".
func DriverName(uri string) string {
	switch Scheme(uri) {
	case "mongodb", "mongodb+srv":
		return conncache.DriverMongoDB
	case "postgres", "postgresql":
		return conncache.DriverPostgres
	default:
		return "unknown"
	}
}

// ValidateURI checks that uri is non-empty and has a supported scheme.
func ValidateURI(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return &conncache.ConfigError{Reason: "connection string is empty"}
	}
	if DriverName(uri) == "unknown" {
		return &conncache.ConfigError{
			Reason: "expected mongodb://, mongodb+srv://, postgres:// or postgresql:// but got " + quoteScheme(uri),
			Err:    conncache.ErrUnsupportedScheme,
		}
	}
	return nil
}

func quoteScheme(uri string) string {
	if s := Scheme(uri); s != "" {
		return `"` + s + `://"`
	}
	return "no scheme"
}

// RedactURI returns uri with the password and secret query parameters masked.
// Multi-host MongoDB seed lists are supported.
func RedactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return redactManually(uri)
	}

	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
		}
	}

	if u.RawQuery != "" {
		q := u.Query()
		changed := false
		for key := range q {
			if isSecretParam(key) {
				q.Set(key, redacted)
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}

	return u.String()
}

// redactManually masks the userinfo of strings net/url rejects.
func redactManually(uri string) string {
	start := strings.Index(uri, "://")
	if start < 0 {
		return redacted
	}
	rest := uri[start+3:]
	end := strings.IndexAny(rest, "/?")
	authority := rest
	if end >= 0 {
		authority = rest[:end]
	}
	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return uri
	}
	userinfo := authority[:at]
	if colon := strings.Index(userinfo, ":"); colon >= 0 {
		userinfo = userinfo[:colon] + ":" + redacted
	}
	return uri[:start+3] + userinfo + rest[at:]
}

func isSecretParam(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range secretParams {
		if lower == s {
			return true
		}
	}
	return false
}

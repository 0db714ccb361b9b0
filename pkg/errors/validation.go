package errors

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/miekg/dns"
)

const (
	maxDomainLength = 253
	maxUserIDLength = 128
	monthLayout     = "2006-01"
)

var hostnameRe = regexp.MustCompile(`^[a-z0-9_]([a-z0-9_-]*[a-z0-9_])?(\.[a-z0-9_]([a-z0-9_-]*[a-z0-9_])?)*$`)

// NormalizeDomain validates a domain name and returns it lowercased without
// surrounding whitespace or a trailing dot.
//
// Names must be syntactically valid DNS names and are limited to hostname
// characters (letters, digits, hyphen, underscore), which rejects escapes
// and anything that could break out of a URL path.
func NormalizeDomain(name string) (string, error) {
	d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
	if d == "" {
		return "", New(ErrCodeInvalidDomain, "domain cannot be empty")
	}
	if len(d) > maxDomainLength {
		return "", New(ErrCodeInvalidDomain, "domain too long (max %d characters)", maxDomainLength)
	}
	for _, r := range d {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", New(ErrCodeInvalidDomain, "domain contains whitespace or control characters")
		}
	}
	if _, ok := dns.IsDomainName(d); !ok {
		return "", New(ErrCodeInvalidDomain, "invalid domain name: %q", name)
	}
	if !hostnameRe.MatchString(d) {
		return "", New(ErrCodeInvalidDomain, "invalid domain name: %q", name)
	}
	return d, nil
}

// ValidateMonth validates a YYYY-MM month selector. Empty means "current"
// and is accepted.
func ValidateMonth(month string) error {
	if month == "" {
		return nil
	}
	if _, err := time.Parse(monthLayout, month); err != nil {
		return New(ErrCodeInvalidDate, "date must be a month in YYYY-MM form, got %q", month)
	}
	return nil
}

// ShiftMonth moves a YYYY-MM month by delta months. An empty month is
// taken as the month containing now.
func ShiftMonth(month string, delta int, now time.Time) (string, error) {
	t := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if month != "" {
		p, err := time.Parse(monthLayout, month)
		if err != nil {
			return "", New(ErrCodeInvalidDate, "date must be a month in YYYY-MM form, got %q", month)
		}
		t = p
	}
	return t.AddDate(0, delta, 0).Format(monthLayout), nil
}

// ValidateUserID validates the optional user identifier forwarded upstream.
func ValidateUserID(id string) error {
	if len(id) > maxUserIDLength {
		return New(ErrCodeInvalidInput, "user id too long (max %d characters)", maxUserIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "user id contains invalid control characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

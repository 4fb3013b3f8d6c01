package analytics

import (
	"strings"
)

// Unknown is the fallback label for any attribute that cannot be derived
const Unknown = "Unknown"

// MaxFieldLength bounds user-agent and referrer values before storage
const MaxFieldLength = 500

// Classification holds the coarse attributes derived from a raw user agent
type Classification struct {
	Device  string
	Browser string
	OS      string
}

// token→label pairs, checked in order; first match wins. The order is
// deliberate and load-bearing: Chrome user agents also contain "Safari",
// so Chrome must be checked first.
var browserRules = []struct{ token, name string }{
	{"Chrome", "Chrome"},
	{"Firefox", "Firefox"},
	{"Safari", "Safari"},
	{"Edge", "Edge"},
	{"Opera", "Opera"},
}

var osRules = []struct{ token, name string }{
	{"Windows", "Windows"},
	{"Mac", "macOS"},
	{"Linux", "Linux"},
	{"Android", "Android"},
	{"iPhone", "iOS"},
	{"iPad", "iOS"},
}

// Classify derives device, browser, and operating system from a raw user
// agent using case-sensitive substring checks in fixed priority order.
// An agent containing both "Mobile" and "Tablet" classifies as mobile.
func Classify(userAgent string) Classification {
	c := Classification{
		Device:  "desktop",
		Browser: Unknown,
		OS:      Unknown,
	}

	if strings.Contains(userAgent, "Mobile") {
		c.Device = "mobile"
	} else if strings.Contains(userAgent, "Tablet") {
		c.Device = "tablet"
	}

	for _, rule := range browserRules {
		if strings.Contains(userAgent, rule.token) {
			c.Browser = rule.name
			break
		}
	}

	for _, rule := range osRules {
		if strings.Contains(userAgent, rule.token) {
			c.OS = rule.name
			break
		}
	}

	return c
}

// Truncate bounds a field to n bytes before storage
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

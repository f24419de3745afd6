// Package device summarises the client behind a session.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns a short "<browser> on <os>" label for display in
// session listings.
func ParseUserAgent(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return unknownDevice
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}

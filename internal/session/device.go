package session

import (
	"net"
	"net/http"
	"strings"

	"github.com/BinayVerse/pro-portal-v14/internal/constants"
)

// Device labels returned by ExtractDeviceInfo.
const (
	DeviceUnknown        = "Unknown Device"
	DeviceIPhone         = "iPhone"
	DeviceAndroidMobile  = "Android Mobile"
	DeviceMobile         = "Mobile Device"
	DeviceIPad           = "iPad"
	DeviceMac            = "Mac"
	DeviceWindowsPC      = "Windows PC"
	DeviceLinuxPC        = "Linux PC"
	DeviceDesktopBrowser = "Desktop Browser"
)

// deviceRule pairs a user-agent predicate with the label to assign.
// Rules are evaluated top to bottom; the first match wins.
type deviceRule struct {
	matches func(ua string) bool
	label   string
}

func uaContains(substr string) func(string) bool {
	return func(ua string) bool { return strings.Contains(ua, substr) }
}

func uaContainsAll(a, b string) func(string) bool {
	return func(ua string) bool {
		return strings.Contains(ua, a) && strings.Contains(ua, b)
	}
}

// Mobile markers are checked before desktop platforms so that mobile
// browsers advertising a desktop platform string classify as mobile.
var deviceRules = []deviceRule{
	{uaContainsAll("Mobile", "iPhone"), DeviceIPhone},
	{uaContainsAll("Mobile", "Android"), DeviceAndroidMobile},
	{uaContains("Mobile"), DeviceMobile},
	{uaContains("iPad"), DeviceIPad},
	{uaContains("Macintosh"), DeviceMac},
	{uaContains("Windows"), DeviceWindowsPC},
	{uaContains("Linux"), DeviceLinuxPC},
}

// ExtractDeviceInfo classifies a user-agent string into a small set of
// human-readable device labels. Pure function, no I/O.
func ExtractDeviceInfo(userAgent string) string {
	if userAgent == "" {
		return DeviceUnknown
	}

	for _, rule := range deviceRules {
		if rule.matches(userAgent) {
			return rule.label
		}
	}

	return DeviceDesktopBrowser
}

// ExtractClientAddress resolves the client's network address: the first
// entry of X-Forwarded-For, then the transport peer address, then
// X-Real-IP. First non-empty wins. Returns "" when nothing is available.
func ExtractClientAddress(r *http.Request) string {
	if forwarded := r.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return r.Header.Get(constants.HeaderXRealIP)
}

package tracking

import (
	"strings"
	"unicode/utf8"

	"github.com/mileusna/useragent"
)

// Device classes.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	Unknown       = "unknown"
)

// maxUserAgentLen bounds what is stored for a user agent.
const maxUserAgentLen = 500

// ClientInfo is the coarse classification of a user agent.
type ClientInfo struct {
	Device  string
	Browser string
	OS      string
}

var browsers = map[string]string{
	useragent.Chrome:         useragent.Chrome,
	useragent.HeadlessChrome: useragent.Chrome,
	useragent.Firefox:        useragent.Firefox,
	useragent.Safari:         useragent.Safari,
	useragent.Edge:           useragent.Edge,
	useragent.Opera:          useragent.Opera,
	useragent.OperaMini:      useragent.Opera,
	useragent.OperaTouch:     useragent.Opera,
}

var systems = map[string]string{
	useragent.Windows: useragent.Windows,
	useragent.MacOS:   useragent.MacOS,
	useragent.Linux:   useragent.Linux,
	useragent.Android: useragent.Android,
	useragent.IOS:     useragent.IOS,
}

// ClassifyUserAgent maps a raw user-agent string onto fixed device, browser
// and OS labels. Anything outside those sets is "unknown".
func ClassifyUserAgent(raw string) ClientInfo {
	info := ClientInfo{Device: Unknown, Browser: Unknown, OS: Unknown}
	if strings.TrimSpace(raw) == "" {
		return info
	}

	ua := useragent.Parse(raw)

	if name, ok := browsers[ua.Name]; ok {
		info.Browser = name
	}
	if osName, ok := systems[ua.OS]; ok {
		info.OS = osName
	}

	switch {
	case ua.Tablet:
		info.Device = DeviceTablet
	case ua.Mobile:
		info.Device = DeviceMobile
	case ua.Desktop:
		info.Device = DeviceDesktop
	case ua.Bot:
		info.Device = Unknown
	case info.OS == useragent.Windows || info.OS == useragent.MacOS || info.OS == useragent.Linux:
		info.Device = DeviceDesktop
	}

	return info
}

// TruncateUserAgent caps a user agent at 500 bytes.
func TruncateUserAgent(ua string) string {
	return truncate(ua, maxUserAgentLen)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	loginPattern   = regexp.MustCompile(`(?i)login|signin|signup|register`)
	fileExtPattern = regexp.MustCompile(`(?i)\.(pdf|doc|docx|xls|xlsx|zip|rar|exe|dmg)$`)
)

// URL validates a URL before extraction. Disallowed schemes and file
// documents are hard errors; login-looking pages only warn.
func URL(rawURL string) Result {
	var res Result

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid URL format: %s", rawURL))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid URL scheme: %s", parsed.Scheme))
	}

	if loginPattern.MatchString(rawURL) {
		res.Warnings = append(res.Warnings, "URL may be a login page, content might not be suitable")
	}
	if fileExtPattern.MatchString(strings.TrimSuffix(rawURL, "/")) {
		res.Errors = append(res.Errors, "URL points to a file, not a web page")
	}

	res.IsValid = len(res.Errors) == 0
	if res.IsValid {
		res.QualityScore = 1.0
	}
	return res
}

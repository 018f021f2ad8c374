package relay

import "regexp"

// Filename sanitization for the local filestore. Ported rules:
// https://gist.github.com/barbietunnie/7bc6d48a424446c44ff4
var (
	illegalRe    = regexp.MustCompile(`[/?<>\\:*|"]`)
	controlRe    = regexp.MustCompile(`[\x00-\x1f\x80-\x9f]`)
	reservedRe   = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
	underscoreRe = regexp.MustCompile(`_{2,}`)
)

// SanitizeFilename rewrites a filename so it is safe to store on any
// filesystem: illegal characters and control characters become "_",
// reserved Windows device names collapse to "_", and runs of
// underscores are folded into one. The function is idempotent.
func SanitizeFilename(name string) string {
	s := illegalRe.ReplaceAllString(name, "_")
	s = controlRe.ReplaceAllString(s, "_")
	s = reservedRe.ReplaceAllString(s, "_")
	return underscoreRe.ReplaceAllString(s, "_")
}

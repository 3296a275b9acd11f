package workspace

import "strings"

const (
	minNameLength = 2
	maxNameLength = 50
)

// blockedWords is the deterministic profanity blocklist applied to workspace
// names. Matching is word-exact on the lower-cased name, so "assessment"
// passes while "ass" does not.
var blockedWords = map[string]struct{}{
	"arse": {}, "ass": {}, "asshole": {}, "bastard": {}, "bitch": {},
	"bollocks": {}, "crap": {}, "cunt": {}, "damn": {}, "dick": {},
	"fuck": {}, "fucker": {}, "fucking": {}, "piss": {}, "prick": {},
	"shit": {}, "slut": {}, "twat": {}, "wank": {}, "whore": {},
}

// NormalizeName trims the workspace name and returns it together with every
// violated rule. An empty rule slice means the name is valid.
func NormalizeName(name string) (string, []string) {
	name = strings.TrimSpace(name)
	var rules []string
	if len(name) < minNameLength {
		rules = append(rules, "Workspace name must be at least 2 characters")
	}
	if len(name) > maxNameLength {
		rules = append(rules, "Workspace name must be at most 50 characters")
	}
	if containsBlockedWord(name) {
		rules = append(rules, "Workspace name contains blocked words")
	}
	return name, rules
}

func containsBlockedWord(name string) bool {
	for _, word := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if _, ok := blockedWords[word]; ok {
			return true
		}
	}
	return false
}

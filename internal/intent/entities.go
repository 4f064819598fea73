package intent

import (
	"regexp"
	"sort"
	"strings"

	"github.com/smarthome-ai/diagnostic-core/internal/domain"
)

// capabilityNouns is the ordered (longest-first, for regex alternation) set
// of device nouns the deviceName extractor recognises, optionally preceded
// by an adjective.
var capabilityNouns = []string{
	"motion sensor", "contact sensor", "temperature sensor", "window shade",
	"thermostat", "sensor", "switch", "light", "lock", "outlet", "plug", "camera",
}

var deviceNamePattern = regexp.MustCompile(
	`(?i)\b(?:[a-z]+\s+)?(` + strings.Join(quoteAll(capabilityNouns), "|") + `)\b`,
)

func quoteAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = regexp.QuoteMeta(w)
	}
	return out
}

// knownRooms is the dictionary of recognised room tokens.
var knownRooms = []string{
	"bedroom", "kitchen", "living room", "bathroom", "garage",
	"hallway", "office", "basement", "dining room", "laundry room",
}

var roomPattern = regexp.MustCompile(
	`(?i)\b(` + strings.Join(quoteAll(sortByLengthDesc(knownRooms)), "|") + `)\b`,
)

func sortByLengthDesc(words []string) []string {
	out := append([]string(nil), words...)
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// timeframePattern recognises the fixed timeframe vocabulary plus the
// relative "last <n> (hours|days)" and "<n>(h|d) ago" forms.
var timeframePattern = regexp.MustCompile(
	`(?i)\b(yesterday|today|tonight|last night|last \d+ (?:hours?|days?)|\d+\s*(?:h|d)\s*ago)\b`,
)

// issueTypePattern recognises the fixed issue-type vocabulary.
var issueTypePattern = regexp.MustCompile(
	`(?i)\b(turning on|turning off|flickering|offline|temperature|battery)\b`,
)

// extractEntities fills any gaps left by the LLM/keyword path: entities it
// already populated are preserved, never overwritten.
func extractEntities(message string, existing domain.Entities) domain.Entities {
	out := existing

	if out.DeviceName == "" {
		if m := lastMatch(deviceNamePattern, message); m != "" {
			out.DeviceName = strings.ToLower(strings.TrimSpace(m))
		}
	}

	if out.RoomName == "" {
		if loc := roomPattern.FindStringIndex(message); loc != nil {
			out.RoomName = strings.ToLower(message[loc[0]:loc[1]])
		}
	}

	if out.Timeframe == "" {
		if loc := timeframePattern.FindStringIndex(message); loc != nil {
			out.Timeframe = strings.ToLower(message[loc[0]:loc[1]])
		}
	}

	if out.IssueType == "" {
		if loc := issueTypePattern.FindStringIndex(message); loc != nil {
			out.IssueType = strings.ToLower(message[loc[0]:loc[1]])
		}
	}

	return out
}

// lastMatch returns the last regex match in text, or "" if none — used for
// the deviceName extractor's "last occurrence wins" rule.
func lastMatch(re *regexp.Regexp, text string) string {
	matches := re.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1]
}

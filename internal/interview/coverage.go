package interview

import "strings"

// topicCount is the number of interview topics the interviewer must touch
// before a marker-based close is honored.
const topicCount = 6

// coverageTopics maps each topic to the keywords that mark it as covered.
// Matching is whitespace-normalized, lowercase substring containment; the
// first hit flips the topic permanently. Order here is the order used in
// MissingTopics and in the corrective nudge.
var coverageTopics = [topicCount]struct {
	label    string
	keywords []string
}{
	{"work experience", []string{"experience", "previous job", "worked before", "last job"}},
	{"motivation", []string{"why do you want", "why are you applying", "motivat", "interested in this"}},
	{"language ability", []string{"language", "english", "speak", "communicate"}},
	{"shift availability", []string{"shift", "schedule", "weekend", "evening", "hours can you"}},
	{"physical stamina", []string{"stamina", "physical", "standing", "lifting", "on your feet"}},
	{"visa and start date", []string{"visa", "work permit", "start date", "when can you start", "legally"}},
}

// CoverageTracker remembers which interview topics the interviewer has
// already raised. Flags only ever go from false to true; reset happens by
// constructing a fresh tracker on session start.
type CoverageTracker struct {
	seen [topicCount]bool
}

// NewCoverageTracker returns a tracker with all topics unseen.
func NewCoverageTracker() *CoverageTracker { return &CoverageTracker{} }

// Observe scans one finalized interviewer utterance and flips any topic
// whose keyword it contains.
func (c *CoverageTracker) Observe(text string) {
	norm := normalizeText(text)
	if norm == "" {
		return
	}
	for i := range coverageTopics {
		if c.seen[i] {
			continue
		}
		for _, kw := range coverageTopics[i].keywords {
			if strings.Contains(norm, kw) {
				c.seen[i] = true
				break
			}
		}
	}
}

// Complete reports whether every topic has been covered.
func (c *CoverageTracker) Complete() bool {
	for _, s := range c.seen {
		if !s {
			return false
		}
	}
	return true
}

// MissingTopics returns human-readable labels for topics still uncovered,
// in fixed order. The labels are used verbatim in the corrective nudge.
func (c *CoverageTracker) MissingTopics() []string {
	var missing []string
	for i, s := range c.seen {
		if !s {
			missing = append(missing, coverageTopics[i].label)
		}
	}
	return missing
}

// normalizeText lowercases and collapses all whitespace runs to single
// spaces so keyword matching is stable across transcript formatting.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

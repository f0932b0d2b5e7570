package interview

import (
	"strings"
	"time"
)

// Target is the routing decision for a human utterance.
type Target string

const (
	TargetInterviewer Target = "interviewer"
	TargetCandidate   Target = "candidate"
	TargetBoth        Target = "both"
	TargetNone        Target = "none"
)

// Keyword sets are fixed and disjoint. Matching is against
// whitespace-normalized lowercase text.
var (
	candidateTerms = []string{
		"alex", "candidate", "applicant", "your answer", "you can answer",
		"what do you say",
	}
	interviewerTerms = []string{
		"sarah", "interviewer", "next question", "move on", "ask about",
		"ask him", "ask her",
	}
)

// Route classifies which AI a human utterance was addressed to.
// sinceFinalized is the age of the utterance relative to when it was
// finalized; anything older than the freshness window routes to none and
// the coordinator falls back to the interviewer.
func Route(text string, sinceFinalized, freshness time.Duration) Target {
	if sinceFinalized > freshness {
		return TargetNone
	}
	norm := normalizeText(text)
	toCandidate := containsAny(norm, candidateTerms)
	toInterviewer := containsAny(norm, interviewerTerms)
	switch {
	case toCandidate && toInterviewer:
		return TargetBoth
	case toCandidate:
		return TargetCandidate
	case toInterviewer:
		return TargetInterviewer
	default:
		return TargetNone
	}
}

func containsAny(norm string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(norm, t) {
			return true
		}
	}
	return false
}

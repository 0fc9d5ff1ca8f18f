// Package parser turns free-form model text into the structured result types.
// Every function is pure and total: any input string, including garbage,
// produces a deterministic result, with canned defaults where the model left
// a part out. Only ProblemInfo can fail, since a solve cannot proceed without
// a decoded problem.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

// ErrMalformed reports extraction output that could not be decoded into a
// problem description.
var ErrMalformed = errors.New("failed to parse problem information")

// Canned fallbacks. The complexity defaults already carry a notation and a
// separator, so reformatting them is a no-op.
const (
	defaultThought         = "Solution approach based on efficiency and readability"
	defaultTimeComplexity  = "O(n) - Linear time complexity because we only iterate through the array once. Each element is processed exactly one time, and the hash map lookups are O(1) operations."
	defaultSpaceComplexity = "O(n) - Linear space complexity because we store elements in the hash map. In the worst case, we might need to store all elements before finding the solution pair."
	defaultDebugThought    = "Debug analysis based on your screenshots"
	defaultDebugAnalysis   = "Debug analysis based on your screenshots"
)

var (
	codeBlockRe = regexp.MustCompile("(?s)```(?:\\w+)?\\s*(.*?)```")
	bulletRe    = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+(.+)$`)
	thoughtsRe  = regexp.MustCompile(`(?is)(?:thoughts:|key insights:|reasoning:|approach:)\s*(.*?)(?:time complexity|space complexity|$)`)
	bigORe      = regexp.MustCompile(`(?i)O\([^)]+\)`)
)

// headingRewrites maps loose section phrases in a debugging response to
// markdown headings.
var headingRewrites = []struct {
	re      *regexp.Regexp
	heading string
}{
	{regexp.MustCompile(`(?i)issues? identified|problems? found|bugs? found`), "## Issues Identified"},
	{regexp.MustCompile(`(?i)code improvements?|improvements? and corrections|suggested changes`), "## Improvements"},
	{regexp.MustCompile(`(?i)optimi[sz]ations?|performance improvements?`), "## Optimizations"},
	{regexp.MustCompile(`(?i)explanation of changes|detailed analysis`), "## Explanation"},
}

// StripCodeFences removes a surrounding triple-backtick fence, including an
// optional language tag, leaving the inner text untouched.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if i := strings.Index(trimmed, "\n"); i >= 0 {
		trimmed = trimmed[i+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "```")
	}
	if j := strings.LastIndex(trimmed, "```"); j >= 0 {
		trimmed = trimmed[:j]
	}
	return strings.TrimSpace(trimmed)
}

// ProblemInfo decodes the extraction response. The model is instructed to
// answer with bare JSON; a fenced JSON block is tolerated, anything else
// fails with ErrMalformed.
func ProblemInfo(raw string) (types.ProblemInfo, error) {
	cleaned := StripCodeFences(raw)
	var info types.ProblemInfo
	if err := json.Unmarshal([]byte(cleaned), &info); err != nil {
		return types.ProblemInfo{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return info, nil
}

// Code returns the body of the first fenced code block, or the whole trimmed
// response when no fence is present.
func Code(raw string) string {
	if m := codeBlockRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// Thoughts extracts the reasoning points from a solution response: the
// section under a recognized header first, bullet lines anywhere as a second
// choice. The result is never empty.
func Thoughts(raw string) []string {
	var lines []string
	if m := thoughtsRe.FindStringSubmatch(raw); m != nil {
		section := m[1]
		lines = bulletLines(section)
		if len(lines) == 0 {
			for _, line := range strings.Split(section, "\n") {
				if t := strings.TrimSpace(line); t != "" {
					lines = append(lines, t)
				}
			}
		}
	} else {
		lines = bulletLines(raw)
	}
	if len(lines) == 0 {
		return []string{defaultThought}
	}
	return lines
}

// TimeComplexity extracts and normalizes the time complexity statement.
func TimeComplexity(raw string) string {
	if s := formatComplexity(complexitySpan(raw, "time complexity")); s != "" {
		return s
	}
	return defaultTimeComplexity
}

// SpaceComplexity extracts and normalizes the space complexity statement.
func SpaceComplexity(raw string) string {
	if s := formatComplexity(complexitySpan(raw, "space complexity")); s != "" {
		return s
	}
	return defaultSpaceComplexity
}

// Solution assembles a full solution from free-form model text.
func Solution(raw string) types.SolutionResult {
	return types.SolutionResult{
		Code:            Code(raw),
		Thoughts:        Thoughts(raw),
		TimeComplexity:  TimeComplexity(raw),
		SpaceComplexity: SpaceComplexity(raw),
	}
}

// DebugAnalysis normalizes a debugging response into markdown. Responses that
// already carry heading markers pass through untouched; otherwise known
// section phrases are rewritten into headings.
func DebugAnalysis(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultDebugAnalysis
	}
	if strings.Contains(trimmed, "#") {
		return trimmed
	}
	out := trimmed
	for _, hr := range headingRewrites {
		out = hr.re.ReplaceAllString(out, hr.heading)
	}
	return out
}

// DebugThoughts lists at most five key findings from a debugging response.
func DebugThoughts(raw string) []string {
	lines := bulletLines(raw)
	if len(lines) == 0 {
		return []string{defaultDebugThought}
	}
	if len(lines) > 5 {
		lines = lines[:5]
	}
	return lines
}

// Debug assembles a debugging report. Complexity is not re-derived during a
// debugging pass, so both fields are fixed at "N/A".
func Debug(raw string) types.DebugResult {
	return types.DebugResult{
		Code:            Code(raw),
		DebugAnalysis:   DebugAnalysis(raw),
		Thoughts:        DebugThoughts(raw),
		TimeComplexity:  "N/A",
		SpaceComplexity: "N/A",
	}
}

func bulletLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if m := bulletRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if t := strings.TrimSpace(m[1]); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

// complexitySpan returns the text after a complexity label, folding in
// continuation lines until a capitalized line, a blank line or the end of the
// response.
func complexitySpan(raw, label string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		idx := strings.Index(strings.ToLower(t), label)
		if idx < 0 {
			continue
		}
		span := strings.TrimSpace(t[idx+len(label):])
		span = strings.TrimSpace(strings.TrimPrefix(span, ":"))
		for j := i + 1; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" || startsUpper(next) {
				break
			}
			span = strings.TrimSpace(span + " " + next)
		}
		return span
	}
	return ""
}

func startsUpper(s string) bool {
	return len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z'
}

// formatComplexity rewrites a labeled span into "O(...) - explanation" form:
// a missing notation gets a default O(n), a missing separator gets spliced in
// after the notation. Already well-formed spans come back unchanged.
func formatComplexity(span string) string {
	span = strings.TrimSpace(span)
	if span == "" {
		return ""
	}
	notation := bigORe.FindString(span)
	if notation == "" {
		return "O(n) - " + span
	}
	if strings.Contains(span, " - ") {
		return span
	}
	rest := strings.TrimSpace(strings.Replace(span, notation, "", 1))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "-"))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	if rest == "" {
		rest = "explanation not provided"
	}
	return notation + " - " + rest
}

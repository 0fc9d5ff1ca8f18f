package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain text", "plain text"},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\ncode\n```", "code"},
		{"  ```python\nprint(1)\n```  ", "print(1)"},
		{"```x```", "x"},
		{"", ""},
	}

	for _, test := range tests {
		result := StripCodeFences(test.input)
		if result != test.expected {
			t.Errorf("StripCodeFences(%q) = %q, expected %q",
				test.input, result, test.expected)
		}
	}
}

func TestProblemInfo(t *testing.T) {
	raw := `{"problem_statement":"Find two numbers that sum to target","constraints":"2 <= n <= 10^4","example_input":"[2,7,11,15], 9","example_output":"[0,1]"}`

	info, err := ProblemInfo(raw)
	if err != nil {
		t.Fatalf("ProblemInfo failed: %v", err)
	}

	if info.ProblemStatement != "Find two numbers that sum to target" {
		t.Errorf("Unexpected problem statement: %q", info.ProblemStatement)
	}
	if info.Constraints != "2 <= n <= 10^4" {
		t.Errorf("Unexpected constraints: %q", info.Constraints)
	}
}

func TestProblemInfoFencedJSON(t *testing.T) {
	raw := "```json\n{\"problem_statement\":\"Reverse a list\"}\n```"

	info, err := ProblemInfo(raw)
	if err != nil {
		t.Fatalf("ProblemInfo failed on fenced JSON: %v", err)
	}
	if info.ProblemStatement != "Reverse a list" {
		t.Errorf("Unexpected problem statement: %q", info.ProblemStatement)
	}
}

func TestProblemInfoMalformed(t *testing.T) {
	for _, raw := range []string{
		"the model apologizes instead of answering",
		"Here is the JSON: {\"problem_statement\":\"x\"}",
		"",
	} {
		if _, err := ProblemInfo(raw); !errors.Is(err, ErrMalformed) {
			t.Errorf("ProblemInfo(%q): expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestCode(t *testing.T) {
	raw := "Here is the solution:\n```python\ndef solve():\n    return 42\n```\nSome explanation after."

	code := Code(raw)
	if code != "def solve():\n    return 42" {
		t.Errorf("Unexpected code: %q", code)
	}
}

func TestCodeFirstFenceWins(t *testing.T) {
	raw := "```go\nfirst\n```\ntext\n```go\nsecond\n```"

	if code := Code(raw); code != "first" {
		t.Errorf("Expected first fenced block, got %q", code)
	}
}

func TestCodeWithoutFence(t *testing.T) {
	raw := "  def solve():\n    return 42  "

	if code := Code(raw); code != "def solve():\n    return 42" {
		t.Errorf("Expected whole trimmed response, got %q", code)
	}
}

func TestThoughtsFromHeaderSection(t *testing.T) {
	raw := "Thoughts:\n- use a hash map\n- single pass over the input\n\nTime complexity: O(n) - one scan"

	thoughts := Thoughts(raw)
	if len(thoughts) != 2 {
		t.Fatalf("Expected 2 thoughts, got %v", thoughts)
	}
	if thoughts[0] != "use a hash map" || thoughts[1] != "single pass over the input" {
		t.Errorf("Unexpected thoughts: %v", thoughts)
	}
}

func TestThoughtsHeaderSynonyms(t *testing.T) {
	for _, header := range []string{"Key Insights:", "Reasoning:", "Approach:"} {
		raw := header + "\n- point one\n\nTime complexity: O(1)"
		thoughts := Thoughts(raw)
		if len(thoughts) != 1 || thoughts[0] != "point one" {
			t.Errorf("header %q: unexpected thoughts %v", header, thoughts)
		}
	}
}

func TestThoughtsSectionWithoutBullets(t *testing.T) {
	raw := "Approach:\ngreedy scan\nkeep the running max\n\nTime complexity: O(n)"

	thoughts := Thoughts(raw)
	if len(thoughts) != 2 || thoughts[0] != "greedy scan" || thoughts[1] != "keep the running max" {
		t.Errorf("Unexpected thoughts: %v", thoughts)
	}
}

func TestThoughtsBulletsWithoutHeader(t *testing.T) {
	raw := "1. sort the input\n2) scan adjacent pairs\n* compare with best"

	thoughts := Thoughts(raw)
	if len(thoughts) != 3 {
		t.Fatalf("Expected 3 thoughts, got %v", thoughts)
	}
	if thoughts[1] != "scan adjacent pairs" {
		t.Errorf("Unexpected numbered bullet: %q", thoughts[1])
	}
}

func TestThoughtsFallback(t *testing.T) {
	thoughts := Thoughts("no structure here at all")
	if len(thoughts) != 1 || thoughts[0] != defaultThought {
		t.Errorf("Expected canned fallback, got %v", thoughts)
	}
}

func TestTimeComplexity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"well formed",
			"Time complexity: O(n) - we visit each node once",
			"O(n) - we visit each node once",
		},
		{
			"notation only",
			"Time complexity: O(n^2)",
			"O(n^2) - explanation not provided",
		},
		{
			"missing separator",
			"Time complexity: O(n log n) because sorting dominates",
			"O(n log n) - because sorting dominates",
		},
		{
			"no notation",
			"Time complexity: linear in the input size",
			"O(n) - linear in the input size",
		},
		{
			"continuation lines",
			"Time complexity: O(n)\nbecause we scan once\n\nSpace complexity: O(1)",
			"O(n) - because we scan once",
		},
	}

	for _, test := range tests {
		result := TimeComplexity(test.input)
		if result != test.expected {
			t.Errorf("%s: TimeComplexity = %q, expected %q",
				test.name, result, test.expected)
		}
	}
}

func TestSpaceComplexity(t *testing.T) {
	raw := "Time complexity: O(n) - single pass\nSpace complexity: O(1) - constant extra storage"

	result := SpaceComplexity(raw)
	if result != "O(1) - constant extra storage" {
		t.Errorf("Unexpected space complexity: %q", result)
	}
}

func TestComplexityFallbackIsStable(t *testing.T) {
	// The canned defaults already carry a notation and separator, so feeding
	// one back through the formatter must not change it
	if got := TimeComplexity("nothing relevant"); got != defaultTimeComplexity {
		t.Errorf("Expected canned time complexity, got %q", got)
	}
	if got := TimeComplexity("Time complexity: " + defaultTimeComplexity); got != defaultTimeComplexity {
		t.Errorf("Canned default did not survive reformatting: %q", got)
	}
	if got := SpaceComplexity("nothing relevant"); got != defaultSpaceComplexity {
		t.Errorf("Expected canned space complexity, got %q", got)
	}
	if got := SpaceComplexity("Space complexity: " + defaultSpaceComplexity); got != defaultSpaceComplexity {
		t.Errorf("Canned default did not survive reformatting: %q", got)
	}
}

func TestSolution(t *testing.T) {
	raw := `Thoughts:
- hash map keyed by needed complement
- return indices on first hit

` + "```python\ndef two_sum(nums, target):\n    seen = {}\n    for i, n in enumerate(nums):\n        if target - n in seen:\n            return [seen[target - n], i]\n        seen[n] = i\n```" + `

Time complexity: O(n) - one pass over the array
Space complexity: O(n) - the map holds up to n entries`

	solution := Solution(raw)

	if !strings.HasPrefix(solution.Code, "def two_sum") {
		t.Errorf("Unexpected code: %q", solution.Code)
	}
	if len(solution.Thoughts) != 2 {
		t.Errorf("Expected 2 thoughts, got %v", solution.Thoughts)
	}
	if solution.TimeComplexity != "O(n) - one pass over the array" {
		t.Errorf("Unexpected time complexity: %q", solution.TimeComplexity)
	}
	if solution.SpaceComplexity != "O(n) - the map holds up to n entries" {
		t.Errorf("Unexpected space complexity: %q", solution.SpaceComplexity)
	}
}

func TestSolutionFromGarbage(t *testing.T) {
	// Any input yields a fully populated result
	solution := Solution("")

	if solution.Code != "" {
		t.Errorf("Expected empty code from empty input, got %q", solution.Code)
	}
	if len(solution.Thoughts) == 0 {
		t.Error("Expected fallback thoughts")
	}
	if solution.TimeComplexity == "" || solution.SpaceComplexity == "" {
		t.Error("Expected fallback complexities")
	}
}

func TestDebugAnalysisPassThrough(t *testing.T) {
	raw := "## Issues Identified\n- off by one\n\n## Improvements\n- use range"

	if got := DebugAnalysis(raw); got != raw {
		t.Errorf("Markdown response should pass through, got %q", got)
	}
}

func TestDebugAnalysisRewritesSections(t *testing.T) {
	raw := "Issues Identified\nThe loop misses the last element.\n\nCode Improvements\nIterate with range instead."

	got := DebugAnalysis(raw)
	if !strings.Contains(got, "## Issues Identified") {
		t.Errorf("Expected issues heading, got %q", got)
	}
	if !strings.Contains(got, "## Improvements") {
		t.Errorf("Expected improvements heading, got %q", got)
	}
}

func TestDebugAnalysisFallback(t *testing.T) {
	if got := DebugAnalysis("   "); got != defaultDebugAnalysis {
		t.Errorf("Expected canned analysis, got %q", got)
	}
}

func TestDebugThoughtsCapped(t *testing.T) {
	raw := "- one\n- two\n- three\n- four\n- five\n- six\n- seven"

	thoughts := DebugThoughts(raw)
	if len(thoughts) != 5 {
		t.Errorf("Expected at most 5 findings, got %d", len(thoughts))
	}
	if thoughts[4] != "five" {
		t.Errorf("Unexpected final finding: %q", thoughts[4])
	}
}

func TestDebug(t *testing.T) {
	raw := "## Issues Identified\n- the comparison is inverted\n\n```go\nif a > b {\n\treturn a\n}\n```"

	result := Debug(raw)

	if !strings.HasPrefix(result.Code, "if a > b") {
		t.Errorf("Unexpected code: %q", result.Code)
	}
	if result.TimeComplexity != "N/A" || result.SpaceComplexity != "N/A" {
		t.Errorf("Debug complexities should be N/A, got %q/%q",
			result.TimeComplexity, result.SpaceComplexity)
	}
	if len(result.Thoughts) != 1 || result.Thoughts[0] != "the comparison is inverted" {
		t.Errorf("Unexpected thoughts: %v", result.Thoughts)
	}
}

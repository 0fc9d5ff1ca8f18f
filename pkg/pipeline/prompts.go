package pipeline

import (
	"fmt"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

const solvePromptTemplate = `Generate a detailed solution for the following coding problem:

PROBLEM STATEMENT:
%s

CONSTRAINTS:
%s

EXAMPLE INPUT:
%s

EXAMPLE OUTPUT:
%s

LANGUAGE: %s

I need the response in the following format:
1. Code: a clean, optimized implementation in %s inside a fenced code block
2. Thoughts: a bullet list of key insights and the reasoning behind your approach
3. Time complexity: O(X) followed by a detailed explanation of at least two sentences
4. Space complexity: O(X) followed by a detailed explanation of at least two sentences

Your solution should be efficient, well commented, and handle edge cases.`

const debugPromptTemplate = `I am debugging my solution to the following coding problem:

PROBLEM STATEMENT:
%s

The attached screenshots show my current code together with error messages,
failing test cases or incorrect outputs. Analyze them and tell me exactly what
is wrong and how to fix it.

Structure your response with these markdown sections:
## Issues Identified
## Improvements
## Optimizations
## Explanation

Use bullet points for each finding and provide the corrected code in a fenced
code block.`

// SolvePrompt renders the solution request for an extracted problem. An empty
// language lets the model pick one.
func SolvePrompt(info types.ProblemInfo, language string) string {
	lang := language
	if lang == "" {
		lang = "the language best suited to this problem"
	}
	return fmt.Sprintf(solvePromptTemplate,
		valueOr(info.ProblemStatement, "Not specified"),
		valueOr(info.Constraints, "None provided"),
		valueOr(info.ExampleInput, "Not provided"),
		valueOr(info.ExampleOutput, "Not provided"),
		lang, lang)
}

// DebugPrompt renders the debugging request for an extracted problem.
func DebugPrompt(info types.ProblemInfo) string {
	return fmt.Sprintf(debugPromptTemplate, valueOr(info.ProblemStatement, "Not specified"))
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

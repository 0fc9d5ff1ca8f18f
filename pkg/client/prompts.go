package client

import "fmt"

// Stage instructions shared by every provider backend. The orchestrator builds
// the problem-specific solve and debug prompts; these only frame each stage.
const (
	// ExtractionSystemPrompt asks for bare JSON so the parser can decode it
	// without heuristics.
	ExtractionSystemPrompt = "You are a coding challenge interpreter. Analyze the screenshots of the coding problem and extract all relevant information. Return the information in JSON format with these fields: problem_statement, constraints, example_input, example_output. Just return the structured JSON without any other text."

	// SolveSystemPrompt frames the solution stage.
	SolveSystemPrompt = "You are an expert coding interview assistant. Provide clear, optimal solutions with detailed explanations."

	// DebugSystemPrompt frames the debugging stage over error screenshots.
	DebugSystemPrompt = "You are a coding interview assistant helping debug and improve solutions. Analyze these screenshots which include either error messages, incorrect outputs, or test cases, and provide detailed debugging help with your response structured into clearly labeled sections."
)

// ExtractionUserPrompt is the text part sent ahead of the screenshots. An
// empty language leaves the choice to the model.
func ExtractionUserPrompt(language string) string {
	if language == "" {
		return "Extract the coding problem details from these screenshots. Infer the most suitable programming language from the problem content."
	}
	return fmt.Sprintf("Extract the coding problem details from these screenshots. Preferred coding language we gonna use for this problem is %s.", language)
}

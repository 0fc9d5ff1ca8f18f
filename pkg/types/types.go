package types

// Mode identifies which of the two pipelines a run belongs to
type Mode string

const (
	// ModeInitial is the extract-then-solve pipeline
	ModeInitial Mode = "initial"
	// ModeDebug is the debugging pipeline over additional screenshots
	ModeDebug Mode = "debug"
)

// View is the presentation state mirrored to subscribers
type View string

const (
	ViewQueue     View = "queue"
	ViewSolutions View = "solutions"
)

// Provider identifiers accepted by ProviderConfig
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ImagePayload is an immutable snapshot of one screenshot staged for a run.
// Data holds the raw file bytes and Base64 their standard encoding; MIME is
// sniffed from the bytes, not the file extension.
type ImagePayload struct {
	ID     string
	Path   string
	MIME   string
	Data   []byte
	Base64 string
}

// ProblemInfo is the structured problem description extracted from screenshots
type ProblemInfo struct {
	ProblemStatement string `json:"problem_statement"`
	Constraints      string `json:"constraints"`
	ExampleInput     string `json:"example_input"`
	ExampleOutput    string `json:"example_output"`
}

// SolutionResult contains the generated solution; every field is non-empty
// after parsing, falling back to canned defaults when the model omits a part
type SolutionResult struct {
	Code            string   `json:"code"`
	Thoughts        []string `json:"thoughts"`
	TimeComplexity  string   `json:"time_complexity"`
	SpaceComplexity string   `json:"space_complexity"`
}

// DebugResult contains the debugging report for an already-solved problem.
// Complexities are fixed at "N/A"; Diff is a unified diff against the code of
// the previous solution when one exists.
type DebugResult struct {
	Code            string   `json:"code"`
	DebugAnalysis   string   `json:"debug_analysis"`
	Thoughts        []string `json:"thoughts"`
	TimeComplexity  string   `json:"time_complexity"`
	SpaceComplexity string   `json:"space_complexity"`
	Diff            string   `json:"diff,omitempty"`
}

// ProviderConfig selects the active provider, its credential and the model
// used by each pipeline stage
type ProviderConfig struct {
	Provider        string `json:"apiProvider"`
	APIKey          string `json:"apiKey"`
	ExtractionModel string `json:"extractionModel"`
	SolutionModel   string `json:"solutionModel"`
	DebuggingModel  string `json:"debuggingModel"`
	Language        string `json:"language"`
}

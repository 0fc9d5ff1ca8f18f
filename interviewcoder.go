// Package interviewcoder turns captured screenshots of a coding problem into
// a structured, reviewable solution through a vision-capable LLM.
//
// Screenshots go into an on-disk queue; the initial run extracts a structured
// problem description from them and generates a solution; later captures of
// error output feed a debugging run that produces a corrective report. Both
// runs can be canceled at any time, and a second run of the same kind
// supersedes the first.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		interviewcoder "github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource"
//	)
//
//	func main() {
//		engine, err := interviewcoder.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Stage a captured screenshot of the problem
//		if _, err := engine.AddScreenshotFile("problem.png"); err != nil {
//			log.Fatal(err)
//		}
//
//		// Extract the problem and generate a solution
//		solution, err := engine.RunInitialSolve(context.Background())
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Println(solution.Code)
//		fmt.Println(solution.TimeComplexity)
//	}
//
// The package consists of five main components:
//
//  1. Provider clients (pkg/openai, pkg/gemini): two wire protocols behind
//     one contract (pkg/client)
//  2. Parser (pkg/parser): heuristic extraction of structure from free-form
//     model text, with canned fallbacks
//  3. Pipeline (pkg/pipeline): run orchestration, cancellation and the event
//     stream
//  4. Classifier (pkg/classify): the closed failure taxonomy shown to users
//  5. Storage (internal/queue, internal/config): the screenshot store and the
//     provider configuration file
package interviewcoder

import (
	"context"

	"go.uber.org/zap"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/internal/config"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/internal/queue"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/pipeline"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

// Version of the interview coder engine
const Version = "1.0.0"

// Options configures an Engine. The zero value selects the standard config
// and data locations with no logging.
type Options struct {
	// ConfigPath overrides the configuration file location.
	ConfigPath string
	// DataDir overrides the screenshot store location.
	DataDir string
	// Logger receives structured engine logs.
	Logger *zap.Logger
}

// Engine bundles the screenshot queue, the configuration store and the
// processing pipelines behind one handle.
type Engine struct {
	cfg    *config.Store
	queue  *queue.Manager
	proc   *pipeline.Processor
	logger *zap.Logger
}

// New creates an Engine with default options.
func New() (*Engine, error) {
	return NewWithOptions(Options{})
}

// NewWithOptions creates an Engine with explicit options.
func NewWithOptions(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := config.NewStore(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	q, err := queue.NewManager(opts.DataDir, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:    store,
		queue:  q,
		proc:   pipeline.New(q, store, pipeline.WithLogger(logger)),
		logger: logger,
	}, nil
}

// RunInitialSolve extracts the problem from the queued screenshots and
// generates a solution.
func (e *Engine) RunInitialSolve(ctx context.Context) (*types.SolutionResult, error) {
	return e.proc.RunInitialSolve(ctx)
}

// RunDebug analyzes the queued plus extra screenshots against the previously
// extracted problem and produces a debugging report.
func (e *Engine) RunDebug(ctx context.Context) (*types.DebugResult, error) {
	return e.proc.RunDebug(ctx)
}

// Cancel interrupts the live run of one mode, reporting whether there was one.
func (e *Engine) Cancel(mode types.Mode) bool {
	return e.proc.Cancel(mode)
}

// CancelAll interrupts every live run, reporting whether any was.
func (e *Engine) CancelAll() bool {
	return e.proc.CancelAll()
}

// Reset cancels live runs, clears both screenshot lists and returns to the
// idle queue view.
func (e *Engine) Reset() {
	e.proc.Reset()
	e.queue.ClearAll()
}

// Subscribe attaches a listener to the engine event stream. The returned
// func detaches it.
func (e *Engine) Subscribe() (<-chan pipeline.Event, func()) {
	return e.proc.Subscribe()
}

// AddScreenshot stores captured image bytes in the list matching the current
// view: the main queue before a solution exists, the extra list afterwards.
func (e *Engine) AddScreenshot(data []byte) (string, error) {
	return e.queue.Add(e.targetList(), data)
}

// AddScreenshotFile copies an image file into the list matching the current
// view.
func (e *Engine) AddScreenshotFile(path string) (string, error) {
	return e.queue.AddFromFile(e.targetList(), path)
}

// Screenshots lists the main queue in capture order.
func (e *Engine) Screenshots() []string {
	return e.queue.Queued()
}

// ExtraScreenshots lists the debug captures in capture order.
func (e *Engine) ExtraScreenshots() []string {
	return e.queue.Extra()
}

// Preview renders a webp thumbnail of a stored screenshot.
func (e *Engine) Preview(id string) ([]byte, error) {
	return e.queue.Preview(id)
}

// DeleteScreenshot removes one screenshot from whichever list holds it.
func (e *Engine) DeleteScreenshot(id string) error {
	return e.queue.Remove(id)
}

// ClearExtraScreenshots discards the debug captures, keeping the main queue.
func (e *Engine) ClearExtraScreenshots() {
	e.queue.ClearExtra()
}

// Config returns the current provider configuration.
func (e *Engine) Config() types.ProviderConfig {
	return e.cfg.Snapshot()
}

// SetConfig validates, persists and applies a new provider configuration.
// The next run uses a provider session built from it.
func (e *Engine) SetConfig(cfg types.ProviderConfig) error {
	return e.cfg.Update(cfg)
}

// ValidateAPIKey checks the configured credential against the provider.
func (e *Engine) ValidateAPIKey(ctx context.Context) error {
	return e.proc.ValidateKey(ctx)
}

// Problem returns the currently extracted problem, or nil before a
// successful extraction.
func (e *Engine) Problem() *types.ProblemInfo {
	return e.proc.Problem()
}

// View reports the current presentation state.
func (e *Engine) View() types.View {
	return e.proc.View()
}

// HasDebugged reports whether a debug run has succeeded since the last reset.
func (e *Engine) HasDebugged() bool {
	return e.proc.HasDebugged()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

func (e *Engine) targetList() queue.List {
	if e.proc.View() == types.ViewSolutions {
		return queue.ListExtra
	}
	return queue.ListMain
}

// Package pipeline runs the two screenshot-processing pipelines: the initial
// extract-then-solve pass over the queued screenshots, and the debugging pass
// over additional captures. It owns run cancellation, the provider session
// and the event stream; screenshots and configuration come in through small
// collaborator interfaces.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/classify"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/client"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/parser"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

// Progress milestones shared by both pipelines.
const (
	progressStaged    = 30
	progressExtracted = 60
	progressDone      = 100
)

var (
	// ErrNoScreenshots reports an empty queue at run start.
	ErrNoScreenshots = errors.New("no screenshots to process")
	// ErrNoProblemInfo reports a debug run before any successful extraction.
	ErrNoProblemInfo = errors.New("no problem info available")
)

// Queue supplies staged screenshots. Only identifiers and loaded payloads
// cross the boundary; storage details stay with the implementation.
type Queue interface {
	Queued() []string
	Extra() []string
	Load(id string) (types.ImagePayload, error)
}

// ConfigSource yields provider configuration snapshots and announces changes.
type ConfigSource interface {
	Snapshot() types.ProviderConfig
	Watch(func(types.ProviderConfig))
}

// Processor coordinates both pipelines over one queue and one provider
// session. Runs of different modes may overlap; a second run of the same mode
// supersedes the first.
type Processor struct {
	queue   Queue
	config  ConfigSource
	hub     *Hub
	logger  *zap.Logger
	factory func(types.ProviderConfig) client.Client

	runs *runRegistry

	mu          sync.Mutex
	cli         client.Client
	cliStale    bool
	problem     *types.ProblemInfo
	lastCode    string
	view        types.View
	hasDebugged bool
}

// Option overrides a Processor default.
type Option func(*Processor)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithClientFactory replaces the provider client constructor.
func WithClientFactory(f func(types.ProviderConfig) client.Client) Option {
	return func(p *Processor) { p.factory = f }
}

// New wires a Processor to its collaborators and subscribes it to config
// changes.
func New(queue Queue, config ConfigSource, opts ...Option) *Processor {
	p := &Processor{
		queue:   queue,
		config:  config,
		hub:     NewHub(),
		logger:  zap.NewNop(),
		factory: newClient,
		runs:    newRunRegistry(),
		view:    types.ViewQueue,
	}
	for _, opt := range opts {
		opt(p)
	}
	config.Watch(func(types.ProviderConfig) { p.invalidateClient() })
	return p
}

// Subscribe attaches a listener to the event stream.
func (p *Processor) Subscribe() (<-chan Event, func()) {
	return p.hub.Subscribe()
}

// RunInitialSolve executes the extract-then-solve pipeline over the queued
// screenshots.
func (p *Processor) RunInitialSolve(ctx context.Context) (*types.SolutionResult, error) {
	runID := uuid.NewString()
	cfg := p.config.Snapshot()

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, p.failFast(types.ModeInitial, runID, classify.KindAuthMissing,
			classify.Message(classify.KindAuthMissing), client.ErrMissingCredential)
	}

	images := p.stageImages(p.queue.Queued())
	if len(images) == 0 {
		return nil, p.failFast(types.ModeInitial, runID, classify.KindPrecondition,
			"No screenshots to process.", ErrNoScreenshots)
	}

	runCtx := p.runs.begin(ctx, types.ModeInitial, runID)
	defer p.runs.finish(types.ModeInitial, runID)

	p.logger.Info("initial run started",
		zap.String("run_id", runID), zap.Int("screenshots", len(images)))
	p.publish(Event{Name: EventRunStarted, RunID: runID, Mode: types.ModeInitial})
	prog := newProgress(p.hub, types.ModeInitial, runID)
	prog.update(progressStaged, "Screenshots staged")

	cli := p.ensureClient(cfg)

	raw, err := cli.Extract(runCtx, images, cfg.Language)
	if err != nil {
		return nil, p.fail(types.ModeInitial, runID, err, true)
	}

	info, err := parser.ProblemInfo(raw)
	if err != nil {
		return nil, p.fail(types.ModeInitial, runID, err, true)
	}

	p.setProblem(&info)
	p.publish(Event{Name: EventProblemExtracted, RunID: runID, Mode: types.ModeInitial, Payload: info})
	prog.update(progressExtracted, "Problem extracted")

	raw, err = cli.Solve(runCtx, SolvePrompt(info, cfg.Language))
	if err != nil {
		// the extracted problem survives a solve failure so a retry can
		// skip re-extraction
		return nil, p.fail(types.ModeInitial, runID, err, false)
	}

	solution := parser.Solution(raw)
	p.rememberCode(solution.Code)
	prog.update(progressDone, "Solution ready")
	p.publish(Event{Name: EventSolutionReady, RunID: runID, Mode: types.ModeInitial, Payload: solution})
	p.setView(types.ViewSolutions)
	p.logger.Info("initial run finished", zap.String("run_id", runID))
	return &solution, nil
}

// RunDebug executes the debugging pipeline over the queued screenshots plus
// the extra captures taken since the last solve. A previously extracted
// problem is required no matter how many screenshots are available.
func (p *Processor) RunDebug(ctx context.Context) (*types.DebugResult, error) {
	runID := uuid.NewString()
	cfg := p.config.Snapshot()

	info := p.Problem()
	if info == nil {
		return nil, p.failFast(types.ModeDebug, runID, classify.KindPrecondition,
			"No problem info available. Generate a solution first.", ErrNoProblemInfo)
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, p.failFast(types.ModeDebug, runID, classify.KindAuthMissing,
			classify.Message(classify.KindAuthMissing), client.ErrMissingCredential)
	}

	images := p.stageImages(append(p.queue.Queued(), p.queue.Extra()...))
	if len(images) == 0 {
		return nil, p.failFast(types.ModeDebug, runID, classify.KindPrecondition,
			"No screenshots to process.", ErrNoScreenshots)
	}

	runCtx := p.runs.begin(ctx, types.ModeDebug, runID)
	defer p.runs.finish(types.ModeDebug, runID)

	p.logger.Info("debug run started",
		zap.String("run_id", runID), zap.Int("screenshots", len(images)))
	p.publish(Event{Name: EventRunStarted, RunID: runID, Mode: types.ModeDebug})
	prog := newProgress(p.hub, types.ModeDebug, runID)
	prog.update(progressStaged, "Screenshots staged")

	cli := p.ensureClient(cfg)

	raw, err := cli.Debug(runCtx, DebugPrompt(*info), images)
	if err != nil {
		return nil, p.fail(types.ModeDebug, runID, err, false)
	}
	prog.update(progressExtracted, "Analyzing feedback")

	result := parser.Debug(raw)
	result.Diff = codeDiff(p.previousCode(), result.Code)
	p.markDebugged()
	prog.update(progressDone, "Debug analysis ready")
	p.publish(Event{Name: EventDebugReady, RunID: runID, Mode: types.ModeDebug, Payload: result})
	p.setView(types.ViewSolutions)
	p.logger.Info("debug run finished", zap.String("run_id", runID))
	return &result, nil
}

// Cancel interrupts the live run for one mode, reporting whether there was
// one.
func (p *Processor) Cancel(mode types.Mode) bool {
	return p.runs.cancel(mode)
}

// CancelAll interrupts every live run, reporting whether any was.
func (p *Processor) CancelAll() bool {
	return p.runs.cancelAll()
}

// Reset cancels any live runs and returns the engine to the idle queue view
// with no stored problem.
func (p *Processor) Reset() {
	p.runs.cancelAll()
	p.setProblem(nil)
	p.mu.Lock()
	p.hasDebugged = false
	p.lastCode = ""
	p.mu.Unlock()
	p.setView(types.ViewQueue)
	p.publish(Event{Name: EventReset})
}

// Problem returns a copy of the currently extracted problem, or nil.
func (p *Processor) Problem() *types.ProblemInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.problem == nil {
		return nil
	}
	cp := *p.problem
	return &cp
}

// View reports the current presentation state.
func (p *Processor) View() types.View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// HasDebugged reports whether a debug run has succeeded since the last reset.
func (p *Processor) HasDebugged() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasDebugged
}

func (p *Processor) publish(ev Event) {
	p.hub.Publish(ev)
}

// stageImages loads queue entries, skipping any that fail to load.
func (p *Processor) stageImages(ids []string) []types.ImagePayload {
	images := make([]types.ImagePayload, 0, len(ids))
	for _, id := range ids {
		img, err := p.queue.Load(id)
		if err != nil {
			p.logger.Warn("skipping unreadable screenshot", zap.String("id", id), zap.Error(err))
			continue
		}
		images = append(images, img)
	}
	return images
}

// failFast emits the terminal failure event for a run that never reached the
// network and returns cause.
func (p *Processor) failFast(mode types.Mode, runID string, kind classify.Kind, message string, cause error) error {
	p.publish(Event{Name: EventRunFailed, RunID: runID, Mode: mode, Payload: FailurePayload{
		Kind:      kind,
		Message:   message,
		Retryable: classify.Retryable(kind),
	}})
	p.logger.Warn("run rejected",
		zap.String("mode", string(mode)), zap.String("run_id", runID), zap.String("kind", string(kind)))
	return cause
}

// fail classifies err and emits the terminal event for the run. Cancellation
// stays silent: subscribers see a reset back to the queue instead of a
// failure. clearProblem drops a partially stored problem so a later run never
// operates on stale state.
func (p *Processor) fail(mode types.Mode, runID string, err error, clearProblem bool) error {
	kind := classify.Classify(err)
	if kind == classify.KindCanceled {
		// A superseding run of the same mode owns the shared state and the
		// event stream now; its predecessor exits without touching either.
		if !p.runs.stillCurrent(mode, runID) {
			p.logger.Info("run superseded", zap.String("mode", string(mode)), zap.String("run_id", runID))
			return err
		}
		p.setProblem(nil)
		p.setView(types.ViewQueue)
		p.publish(Event{Name: EventReset, RunID: runID, Mode: mode})
		p.logger.Info("run canceled", zap.String("mode", string(mode)), zap.String("run_id", runID))
		return err
	}
	if clearProblem {
		p.setProblem(nil)
	}
	p.publish(Event{Name: EventRunFailed, RunID: runID, Mode: mode, Payload: FailurePayload{
		Kind:      kind,
		Message:   classify.Message(kind),
		Retryable: classify.Retryable(kind),
	}})
	p.logger.Warn("run failed",
		zap.String("mode", string(mode)), zap.String("run_id", runID),
		zap.String("kind", string(kind)), zap.Error(err))
	return err
}

func (p *Processor) setProblem(info *types.ProblemInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.problem = info
}

func (p *Processor) rememberCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastCode = code
}

func (p *Processor) previousCode() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCode
}

func (p *Processor) markDebugged() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hasDebugged = true
}

// setView records the presentation state and announces a change.
func (p *Processor) setView(v types.View) {
	p.mu.Lock()
	changed := p.view != v
	p.view = v
	hd := p.hasDebugged
	p.mu.Unlock()
	if changed {
		p.publish(Event{Name: EventViewChanged, Payload: ViewPayload{View: v, HasDebugged: hd}})
	}
}

// progressTracker clamps progress so it never moves backwards within a run.
type progressTracker struct {
	hub   *Hub
	mode  types.Mode
	runID string
	last  int
}

func newProgress(hub *Hub, mode types.Mode, runID string) *progressTracker {
	return &progressTracker{hub: hub, mode: mode, runID: runID}
}

func (t *progressTracker) update(percent int, message string) {
	if percent < t.last {
		percent = t.last
	}
	if percent > 100 {
		percent = 100
	}
	t.last = percent
	t.hub.Publish(Event{Name: EventProgress, RunID: t.runID, Mode: t.mode, Payload: ProgressPayload{
		Percent: percent,
		Message: message,
	}})
}

// Package pipeline sequences ingestion, aggregation and flattening, and reports progress.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jadenpxrk/monofile/pkg/flatten"
	"github.com/jadenpxrk/monofile/pkg/logging"
	"github.com/jadenpxrk/monofile/pkg/source"
	"github.com/jadenpxrk/monofile/pkg/stats"

	"go.uber.org/zap"
)

// State is the orchestrator's position in Idle -> Reading -> Aggregating -> Complete, or Error.
type State int

const (
	StateIdle State = iota
	StateReading
	StateAggregating
	StateComplete
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateAggregating:
		return "aggregating"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SummaryOnEnrichError replaces the summary when enrichment fails.
const SummaryOnEnrichError = "Processing Error"

// Concept is one feature bundle identified in a codebase.
type Concept struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Insights is what an Enricher derives from a finished run.
type Insights struct {
	Summary   string
	AIContext string
	Concepts  []Concept
}

// Outputs are the documents produced for a project.
type Outputs struct {
	Flattened string    `json:"flattened"`
	Summary   string    `json:"summary"`
	AIContext string    `json:"aiContext"`
	Concepts  []Concept `json:"concepts"`
}

// Enricher analyses a flattened document. Its failure never invalidates the ingestion result.
type Enricher interface {
	Enrich(ctx context.Context, document string, set source.RecordSet) (Insights, error)
}

// Result is everything a Complete run produced.
type Result struct {
	ProjectName string
	Records     source.RecordSet
	Stats       stats.ProcessingStats
	Outputs     Outputs
	EnrichErr   error
}

// Config wires an Orchestrator.
type Config struct {
	Source    source.Options
	Flattener flatten.Flattener
	Enricher  Enricher           // optional
	Counter   stats.TokenCounter // optional, fills Stats.TotalTokens
	ProjectID string             // used for the fallback project name; defaults to a timestamp

	LogFunc func(string) // receives every progress line
	OnState func(State)  // called after every transition
	Logger  *zap.Logger
}

// Orchestrator runs one ingestion at a time.
type Orchestrator struct {
	cfg    Config
	reader *source.Reader
	logger *zap.Logger

	running atomic.Bool
	skipped atomic.Int64

	mu    sync.RWMutex
	state State
	err   *Error
}

// New builds an Orchestrator in StateIdle.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{cfg: cfg, logger: logging.OrNop(cfg.Logger)}

	srcOpts := cfg.Source
	if srcOpts.Logger == nil {
		srcOpts.Logger = o.logger
	}
	userSkip := srcOpts.OnSkip
	srcOpts.OnSkip = func(e *source.FileReadError) {
		o.skipped.Add(1)
		if userSkip != nil {
			userSkip(e)
		}
	}
	o.reader = source.NewReader(srcOpts)
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Err returns the terminal error of the last run, or nil.
func (o *Orchestrator) Err() *Error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.err
}

// Run ingests inputs and produces stats and the flattened document, then hands them to the
// Enricher if one is configured. It returns a *Error when the run ends in StateError.
func (o *Orchestrator) Run(ctx context.Context, inputs ...source.Input) (*Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.running.Store(false)

	o.skipped.Store(0)
	o.mu.Lock()
	o.err = nil
	o.mu.Unlock()

	o.transition(StateReading)
	o.log("Initializing codebase ingestion...")

	set, err := o.reader.IngestAll(ctx, inputs...)
	if err != nil {
		perr := newError(err, int(o.skipped.Load()))
		o.fail(perr)
		return nil, perr
	}

	res := &Result{
		ProjectName: o.projectName(set),
		Records:     set,
	}

	o.log(fmt.Sprintf("Indexing %d nodes...", len(set)))
	o.transition(StateAggregating)
	if o.cfg.Counter != nil {
		res.Stats = stats.ComputeWithTokens(set, o.cfg.Counter)
	} else {
		res.Stats = stats.Compute(set)
	}
	res.Outputs.Flattened = o.cfg.Flattener.Flatten(set)
	o.transition(StateComplete)

	o.logger.Info("Ingestion complete",
		zap.String("project", res.ProjectName),
		zap.Int("files", res.Stats.TotalFiles),
		zap.Int("lines", res.Stats.TotalLines),
		zap.Int64("sizeBytes", res.Stats.TotalSize),
	)

	if o.cfg.Enricher != nil {
		o.enrich(ctx, res)
	}
	return res, nil
}

func (o *Orchestrator) enrich(ctx context.Context, res *Result) {
	o.log("Generating AI architecture blueprint...")
	ins, err := o.cfg.Enricher.Enrich(ctx, res.Outputs.Flattened, res.Records)
	if err != nil {
		o.log("! AI Processing Error: " + err.Error())
		res.EnrichErr = err
		res.Outputs.Summary = SummaryOnEnrichError
		res.Outputs.AIContext = ""
		res.Outputs.Concepts = nil
		return
	}
	o.log("AI processing successful.")
	res.Outputs.Summary = ins.Summary
	res.Outputs.AIContext = ins.AIContext
	res.Outputs.Concepts = ins.Concepts
}

// projectName is the first path segment of the first record, or Project_<id>.
func (o *Orchestrator) projectName(set source.RecordSet) string {
	if len(set) > 0 {
		if first, _, _ := strings.Cut(set[0].Path, "/"); first != "" {
			return first
		}
	}
	id := o.cfg.ProjectID
	if id == "" {
		id = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	return "Project_" + id
}

func (o *Orchestrator) fail(err *Error) {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
	o.logger.Error("Ingestion failed", zap.Stringer("kind", err.Kind), zap.Error(err.Err))
	o.log("FATAL: " + err.Message)
	o.transition(StateError)
}

func (o *Orchestrator) transition(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.logger.Debug("State changed", zap.Stringer("state", s))
	if o.cfg.OnState != nil {
		o.cfg.OnState(s)
	}
}

func (o *Orchestrator) log(msg string) {
	o.logger.Info(msg)
	if o.cfg.LogFunc != nil {
		o.cfg.LogFunc(msg)
	}
}

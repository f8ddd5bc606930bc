package solver

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/devskill-org/gridplan/anneal"
	"github.com/devskill-org/gridplan/cost"
	"github.com/devskill-org/gridplan/grid"
	"github.com/devskill-org/gridplan/prognosis"
	"github.com/devskill-org/gridplan/result"
	"github.com/devskill-org/gridplan/schedule"
	"github.com/devskill-org/gridplan/units"
)

// progressLogInterval controls how often Solver.Run logs a cooling
// milestone while a solve is in flight, mirroring the teacher's habit of
// periodic progress lines rather than one per iteration.
const progressLogInterval = 500

// Instance is everything a Solve call needs beyond the Config: the
// horizon, the entities to schedule, and the providers that supply price
// and (optionally) generation samples.
type Instance struct {
	Start   time.Time
	Horizon time.Duration

	Constants []schedule.ConstantAction
	Variables []schedule.VariableAction
	Batteries []schedule.Battery
	Past      []schedule.PastAction

	PriceProvider prognosis.Provider[units.EuroPerWh]
	GenProvider   prognosis.Provider[units.WattHour] // nil: zero generation
}

// spans lists every instant the grid's horizon must reach: the caller's
// configured planning range plus the latest end of any action window, so
// a window that runs past the configured horizon still gets covered
// instead of rejected, per the Time Grid's "union of all action windows
// and prognosis range, extended to the latest end" construction.
func (inst Instance) spans() []time.Time {
	spans := []time.Time{inst.Start.Add(inst.Horizon)}
	for _, c := range inst.Constants {
		spans = append(spans, c.LatestEnd)
	}
	for _, v := range inst.Variables {
		spans = append(spans, v.WindowEnd)
	}
	return spans
}

// Solve builds the grid and instance, samples the prognosis, constructs an
// initial feasible state, and runs the annealer to completion. onProgress
// may be nil; it is passed straight through to the annealer.
func Solve(ctx context.Context, inst Instance, cfg *Config, onProgress anneal.ProgressFunc) (*result.Schedule, anneal.Status, error) {
	if err := cfg.Validate(); err != nil {
		return nil, anneal.Status{}, fmt.Errorf("invalid config: %w", err)
	}

	g, err := grid.NewSpanning(cfg.GridStep, inst.Start, inst.spans()...)
	if err != nil {
		return nil, anneal.Status{}, fmt.Errorf("building grid: %w", err)
	}

	spec, err := schedule.NewSpec(g, inst.Constants, inst.Variables, inst.Batteries, inst.Past)
	if err != nil {
		return nil, anneal.Status{}, fmt.Errorf("compiling instance: %w", err)
	}

	vectors, err := prognosis.Sample(ctx, g, inst.PriceProvider, inst.GenProvider)
	if err != nil {
		return nil, anneal.Status{}, fmt.Errorf("sampling prognosis: %w", err)
	}

	initial, err := schedule.NewState(spec, vectors.Gen)
	if err != nil {
		return nil, anneal.Status{}, fmt.Errorf("building initial state: %w", err)
	}

	evaluator := cost.NewEvaluator(vectors, g.Step())
	annealer := anneal.New(spec, evaluator, cfg.annealParams(), onProgress)

	best, status, err := annealer.Run(ctx, initial)
	if err != nil {
		return nil, status, fmt.Errorf("annealing: %w", err)
	}

	return result.From(best), status, nil
}

// Solver wraps Solve with the bookkeeping a long-running process needs to
// report its own health: the status of the most recently completed run,
// plus an injected logger for lifecycle events.
type Solver struct {
	mu         sync.Mutex
	running    bool
	lastRun    time.Time
	lastStatus anneal.Status
	lastErr    error
	solves     int

	logger *log.Logger
}

// NewSolver returns an idle Solver. A nil logger defaults to a logger
// writing to stderr.
func NewSolver(logger *log.Logger) *Solver {
	if logger == nil {
		logger = log.New(os.Stderr, "[solver] ", log.LstdFlags)
	}
	return &Solver{logger: logger}
}

// Run performs one Solve call, tracking running/completion state so
// Status reflects it, and logging lifecycle events (start, cooling
// milestones, termination reason) through the injected logger. Safe for
// concurrent callers: the status fields are guarded by a mutex, but
// concurrent Run calls solve in parallel, and Running reflects whichever
// call updated it last.
func (s *Solver) Run(ctx context.Context, inst Instance, cfg *Config, onProgress anneal.ProgressFunc) (*result.Schedule, anneal.Status, error) {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Printf("solving: %d constants, %d variables, %d batteries over %s",
		len(inst.Constants), len(inst.Variables), len(inst.Batteries), inst.Horizon)

	loggedProgress := func(p anneal.Progress) {
		if p.Iteration%progressLogInterval == 0 {
			s.logger.Printf("iteration %d: temperature=%.6f current=%.4f best=%.4f",
				p.Iteration, p.Temperature, float64(p.CurrentCost), float64(p.BestCost))
		}
		if onProgress != nil {
			onProgress(p)
		}
	}

	sched, status, err := Solve(ctx, inst, cfg, loggedProgress)

	if err != nil {
		s.logger.Printf("solve failed: %v", err)
	} else {
		s.logger.Printf("solve finished: reason=%s iterations=%d final_cost=%.4f",
			status.Reason, status.Iterations, float64(status.FinalCost))
	}

	s.mu.Lock()
	s.running = false
	s.lastRun = time.Now()
	s.lastStatus = status
	s.lastErr = err
	s.solves++
	s.mu.Unlock()

	return sched, status, err
}

// Status is a snapshot of the Solver's state for health reporting.
type Status struct {
	Running    bool
	LastRun    time.Time
	LastStatus anneal.Status
	LastError  string
	Solves     int
}

// GetStatus returns the Solver's current status.
func (s *Solver) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:    s.running,
		LastRun:    s.lastRun,
		LastStatus: s.lastStatus,
		Solves:     s.solves,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

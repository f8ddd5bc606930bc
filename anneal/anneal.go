// Package anneal implements the Metropolis simulated-annealing search over
// schedule.State, following spec.md §4.6: propose a random move, keep it if
// it lowers cost, otherwise keep it with probability exp(-ΔJ/T), and cool T
// geometrically until the search stalls.
package anneal

import (
	"context"
	"math"
	"math/rand"

	"github.com/devskill-org/gridplan/cost"
	"github.com/devskill-org/gridplan/feasibility"
	"github.com/devskill-org/gridplan/moves"
	"github.com/devskill-org/gridplan/schedule"
	"github.com/devskill-org/gridplan/units"
)

// Params controls the annealing schedule. Zero-value fields are filled in
// by DefaultParams; callers normally start there and override what they
// need.
type Params struct {
	Seed int64

	// InitialTempSamples is M_0, the number of random moves sampled to
	// estimate T_0 from the spread of |ΔJ| they induce.
	InitialTempSamples int
	// InitialTempMultiplier scales the sampled standard deviation to get
	// T_0 (spec.md §4.6: "a small multiple of the standard deviation").
	InitialTempMultiplier float64

	CoolingRate      float64 // α, applied every StepsPerTemp iterations
	StepsPerTemp      int
	MinTemperature    float64
	MaxIterations     int
	StallLimit        int // stop after this many temperature steps with no improvement
	AuditInterval     int // recompute full cost every N accepted moves to detect drift
}

// DefaultParams returns conservative defaults suitable for an hours-long
// horizon at a sub-hour step.
func DefaultParams() Params {
	return Params{
		Seed:                   1,
		InitialTempSamples:     200,
		InitialTempMultiplier:  2.0,
		CoolingRate:            0.95,
		StepsPerTemp:           100,
		MinTemperature:         1e-6,
		MaxIterations:          200000,
		StallLimit:             50,
		AuditInterval:          500,
	}
}

// Progress describes the annealer's state at a point in the search, handed
// to an optional callback so a caller (e.g. a websocket broadcaster) can
// follow along live.
type Progress struct {
	Iteration   int
	Temperature float64
	CurrentCost units.Euro
	BestCost    units.Euro
	Accepted    bool
}

// ProgressFunc is invoked after every iteration. It must return quickly;
// the annealer does not buffer or drop progress events.
type ProgressFunc func(Progress)

// Reason names why the search stopped.
type Reason string

const (
	ReasonMinTemperature Reason = "min_temperature"
	ReasonStalled        Reason = "stalled"
	ReasonMaxIterations  Reason = "max_iterations"
	ReasonCancelled      Reason = "cancelled"
	ReasonNoMoves        Reason = "no_moves"
)

// Status summarizes a finished run.
type Status struct {
	Iterations     int
	TemperatureSteps int
	FinalTemperature float64
	InitialCost    units.Euro
	FinalCost      units.Euro
	Reason         Reason
}

// Annealer drives the Metropolis search for one schedule.Spec.
type Annealer struct {
	spec      *schedule.Spec
	evaluator *cost.Evaluator
	checker   *feasibility.Checker
	generator *moves.Generator
	params    Params
	rng       *rand.Rand
	onProgress ProgressFunc
}

// New builds an Annealer. onProgress may be nil.
func New(spec *schedule.Spec, evaluator *cost.Evaluator, params Params, onProgress ProgressFunc) *Annealer {
	return &Annealer{
		spec:       spec,
		evaluator:  evaluator,
		checker:    feasibility.NewChecker(spec.Grid.Steps()),
		generator:  moves.NewGenerator(spec, params.Seed),
		params:     params,
		rng:        rand.New(rand.NewSource(params.Seed)),
		onProgress: onProgress,
	}
}

// Run searches from the given feasible initial state, mutating it in place,
// and returns the best state found along with a run summary. ctx may be
// used to cancel the search between iterations; a cancellation is reported
// via ReasonCancelled and the best state found so far is still returned.
func (a *Annealer) Run(ctx context.Context, initial *schedule.State) (*schedule.State, Status, error) {
	current := initial
	currentCost := a.evaluator.Full(current)

	best := current.Clone()
	bestCost := currentCost

	status := Status{InitialCost: currentCost}

	temp := a.estimateInitialTemperature(current)
	if temp <= 0 {
		status.FinalCost = currentCost
		status.Reason = ReasonNoMoves
		return best, status, nil
	}

	stepsSinceCool := 0
	tempSteps := 0
	stallSteps := 0
	acceptedSinceAudit := 0
	var runningTotal units.Euro = currentCost

	for iter := 0; iter < a.params.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			status.Iterations = iter
			status.TemperatureSteps = tempSteps
			status.FinalTemperature = temp
			status.FinalCost = bestCost
			status.Reason = ReasonCancelled
			return best, status, nil
		default:
		}

		mv, ok := a.generator.Next(current)
		if !ok {
			status.Iterations = iter
			status.FinalCost = bestCost
			status.Reason = ReasonNoMoves
			return best, status, nil
		}

		accepted := false
		if a.checker.Check(current, mv) {
			delta := a.evaluator.Delta(current, mv)
			if a.accept(delta, temp) {
				a.apply(current, mv)
				currentCost += delta
				runningTotal += delta
				accepted = true

				if currentCost < bestCost {
					bestCost = currentCost
					best = current.Clone()
					stallSteps = 0
				}

				acceptedSinceAudit++
				if a.params.AuditInterval > 0 && acceptedSinceAudit >= a.params.AuditInterval {
					if err := a.evaluator.Audit(current, runningTotal); err != nil {
						return best, status, err
					}
					runningTotal = currentCost
					acceptedSinceAudit = 0
				}
			}
		}

		if a.onProgress != nil {
			a.onProgress(Progress{
				Iteration:   iter,
				Temperature: temp,
				CurrentCost: currentCost,
				BestCost:    bestCost,
				Accepted:    accepted,
			})
		}

		stepsSinceCool++
		if stepsSinceCool >= a.params.StepsPerTemp {
			temp *= a.params.CoolingRate
			stepsSinceCool = 0
			tempSteps++
			stallSteps++

			if temp < a.params.MinTemperature {
				status.Iterations = iter + 1
				status.TemperatureSteps = tempSteps
				status.FinalTemperature = temp
				status.FinalCost = bestCost
				status.Reason = ReasonMinTemperature
				return best, status, nil
			}
			if a.params.StallLimit > 0 && stallSteps >= a.params.StallLimit {
				status.Iterations = iter + 1
				status.TemperatureSteps = tempSteps
				status.FinalTemperature = temp
				status.FinalCost = bestCost
				status.Reason = ReasonStalled
				return best, status, nil
			}
		}
	}

	status.Iterations = a.params.MaxIterations
	status.TemperatureSteps = tempSteps
	status.FinalTemperature = temp
	status.FinalCost = bestCost
	status.Reason = ReasonMaxIterations
	return best, status, nil
}

// accept implements the Metropolis criterion: always accept improving
// moves, accept worsening ones with probability exp(-ΔJ/T).
func (a *Annealer) accept(delta units.Euro, temp float64) bool {
	if delta <= 0 {
		return true
	}
	if temp <= 0 {
		return false
	}
	p := math.Exp(-float64(delta) / temp)
	return a.rng.Float64() < p
}

// apply mutates state in place for an already-accepted, already
// feasibility-checked move.
func (a *Annealer) apply(state *schedule.State, mv moves.Move) {
	switch mv.Kind {
	case moves.ShiftConstant:
		state.ShiftConstant(mv.Index, mv.NewStart)
	case moves.ReallocateVariable:
		state.ReallocateVariable(mv.Index, mv.I, mv.J, mv.Delta)
	case moves.PerturbBattery:
		state.PerturbBattery(mv.Index, mv.I, mv.J, mv.Delta)
	}
}

// estimateInitialTemperature samples M_0 random moves and sets T_0 to a
// multiple of the standard deviation of the |ΔJ| they induce (spec.md
// §4.6). Moves are only scored, never applied or required to be feasible:
// the goal is the scale of cost swings a move can cause, not a feasible
// trajectory.
func (a *Annealer) estimateInitialTemperature(state *schedule.State) float64 {
	n := a.params.InitialTempSamples
	if n <= 0 {
		n = 1
	}

	var samples []float64
	for i := 0; i < n; i++ {
		mv, ok := a.generator.Next(state)
		if !ok {
			return 0
		}
		delta := a.evaluator.Delta(state, mv)
		samples = append(samples, math.Abs(float64(delta)))
	}
	if len(samples) == 0 {
		return 0
	}

	var mean float64
	for _, s := range samples {
		mean += s
	}
	mean /= float64(len(samples))

	var variance float64
	for _, s := range samples {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(samples))
	stddev := math.Sqrt(variance)

	if stddev <= 0 {
		if mean > 0 {
			return mean
		}
		return 1.0
	}
	return stddev * a.params.InitialTempMultiplier
}

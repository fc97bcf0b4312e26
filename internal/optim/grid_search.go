// Package optim searches over controller gains by running the engine
// repeatedly and scoring each run against a metric, adapted from the
// teacher's internal/optim/grid_search.go (which searched experiment
// parameters) to search engine.Options/controller gains instead.
package optim

import (
	"context"
	"math"

	"github.com/san-kum/dynsim/internal/controllers"
	"github.com/san-kum/dynsim/internal/engine"
	"github.com/san-kum/dynsim/internal/rbd"
)

// RunFunc builds and simulates one engine run for a given parameter point,
// returning a scalar metric to minimize (e.g. settling time, peak error).
type RunFunc func(params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search walks every combination in the grid, invoking run for each, and
// returns the parameter point with the lowest returned metric.
func (g *GridSearch) Search(ctx context.Context, run RunFunc) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	g.searchRecursive(ctx, 0, make(map[string]float64), run, &best, &bestParams)

	if bestParams == nil {
		return nil, math.Inf(1), nil
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	run RunFunc,
	best *float64,
	bestParams *map[string]float64,
) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	if depth == len(g.paramNames) {
		val, err := run(current)
		if err != nil {
			return
		}
		if val < *best {
			*best = val
			snapshot := make(map[string]float64, len(current))
			for k, v := range current {
				snapshot[k] = v
			}
			*bestParams = snapshot
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val
		g.searchRecursive(ctx, depth+1, newParams, run, best, bestParams)
	}
}

// TunePID returns a RunFunc that builds a fresh PID controller from the
// candidate's kp/ki/kd params, simulates it on modelFactory()/endTime, and
// scores it by the mean squared position error against target — a simple
// settling-quality metric, lower is better.
func TunePID(modelFactory func() rbd.Model, motorIndex int, target float64, opts engine.Options, x0 []float64, endTime float64) RunFunc {
	return func(params map[string]float64) (float64, error) {
		model := modelFactory()
		ctrl := controllers.NewPID(params["kp"], params["ki"], params["kd"], target, motorIndex)

		eng := engine.NewEngineFacade(opts)
		if err := eng.Initialize(model, ctrl, nil); err != nil {
			return 0, err
		}
		if err := eng.Simulate(x0, endTime); err != nil {
			return 0, err
		}

		_, table, err := eng.GetLog()
		if err != nil {
			return 0, err
		}
		return meanSquaredError(table, motorIndex+1, target), nil
	}
}

// meanSquaredError reads column col out of a telemetry table (table rows
// are [time, ...fields...], so col is 1-based relative to the state block)
// and scores its mean squared deviation from target.
func meanSquaredError(table [][]float64, col int, target float64) float64 {
	if len(table) == 0 {
		return math.Inf(1)
	}
	sum := 0.0
	for _, row := range table {
		if col >= len(row) {
			return math.Inf(1)
		}
		d := row[col] - target
		sum += d * d
	}
	return sum / float64(len(table))
}

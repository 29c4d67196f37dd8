package optim

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/diceroll/internal/config"
	"github.com/san-kum/diceroll/internal/rigid"
)

// Axis is one physics parameter and the values to try for it.
type Axis struct {
	Name   string
	Values []float64
}

type Trial struct {
	Params rigid.Params
	Value  float64
	Err    error
}

// score orders trials for minimisation. A negative metric means the event it
// measures never happened (settle_time of -1), so it ranks after every real
// value, as do failed trials.
func (t Trial) score() float64 {
	if t.Err != nil || math.IsNaN(t.Value) || t.Value < 0 {
		return math.Inf(1)
	}
	return t.Value
}

type GridSearch struct {
	axes    []Axis
	workers int
}

func NewGridSearch(axes []Axis, workers int) *GridSearch {
	if workers < 1 {
		workers = 1
	}
	return &GridSearch{axes: axes, workers: workers}
}

// Combinations expands the axes into every parameter set, starting from base.
// Unknown parameter names and out-of-bounds values are an error.
func (g *GridSearch) Combinations(base rigid.Params) ([]rigid.Params, error) {
	combos := []rigid.Params{base}
	for _, axis := range g.axes {
		if len(axis.Values) == 0 {
			return nil, eris.Errorf("axis %s has no values", axis.Name)
		}
		next := make([]rigid.Params, 0, len(combos)*len(axis.Values))
		for _, c := range combos {
			for _, v := range axis.Values {
				p := c
				if err := p.SetParam(axis.Name, v); err != nil {
					return nil, eris.Wrapf(err, "axis %s", axis.Name)
				}
				next = append(next, p)
			}
		}
		combos = next
	}
	return combos, nil
}

// Search runs base once per parameter combination and returns the trial
// with the smallest metric, plus every trial sorted best first. A trial whose
// run fails keeps its error and sorts last.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string) (Trial, []Trial, error) {
	combos, err := g.Combinations(base.Physics)
	if err != nil {
		return Trial{}, nil, err
	}

	trials := make([]Trial, len(combos))
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.workers)
	for i, p := range combos {
		grp.Go(func() error {
			trials[i] = runTrial(ctx, base, p, metric)
			return ctx.Err()
		})
	}
	if err := grp.Wait(); err != nil {
		return Trial{}, nil, err
	}

	sort.SliceStable(trials, func(i, j int) bool { return trials[i].score() < trials[j].score() })
	if math.IsInf(trials[0].score(), 1) {
		return trials[0], trials, eris.Errorf("no trial produced a usable %s", metric)
	}
	return trials[0], trials, nil
}

func runTrial(ctx context.Context, base *config.Config, p rigid.Params, metric string) Trial {
	trial := Trial{Params: p}

	cfg := *base
	cfg.Physics = p
	cfg.Sim.Workers = 1

	w, err := cfg.Build()
	if err != nil {
		trial.Err = err
		return trial
	}
	result, err := w.Run(ctx, cfg.Sim)
	if err != nil {
		trial.Err = err
		return trial
	}

	v, ok := result.Metrics[metric]
	if !ok {
		trial.Err = eris.Errorf("unknown metric %s", metric)
		return trial
	}
	trial.Value = v
	return trial
}

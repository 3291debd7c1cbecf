// Package play selects, runs and evicts the top-level strategy ("play")
// that governs the team.
//
// Scores follow one convention for every play: higher means more
// applicable, and NotApplicable (negative infinity) or NaN rules a play out
// entirely. Among applicable plays the highest score wins; ties go to the
// play registered first.
package play

import (
	"math"

	"github.com/nstehr/striker/behavior"
	"github.com/nstehr/striker/model"
)

// NotApplicable is the score of a play that must not be selected.
var NotApplicable = math.Inf(-1)

// Strategy is an installed play instance. It is a regular behavior node;
// the scheduler owns it exclusively until it is evicted.
type Strategy interface {
	behavior.Node
}

// Descriptor describes a play that can be scored and instantiated. Score
// must not mutate anything.
type Descriptor interface {
	Name() string
	Score(w model.World) (float64, error)
	New(src model.WorldSource) (Strategy, error)
}

// Applicable reports whether score allows selection.
func Applicable(score float64) bool {
	return !math.IsNaN(score) && !math.IsInf(score, -1)
}

// Define builds a Descriptor from plain functions.
func Define(name string, score func(model.World) (float64, error), build func(model.WorldSource) (Strategy, error)) Descriptor {
	return definition{name: name, score: score, build: build}
}

type definition struct {
	name  string
	score func(model.World) (float64, error)
	build func(model.WorldSource) (Strategy, error)
}

func (d definition) Name() string { return d.name }

func (d definition) Score(w model.World) (float64, error) { return d.score(w) }

func (d definition) New(src model.WorldSource) (Strategy, error) { return d.build(src) }

/*
Package recipe is a step-execution engine for composing business transactions
out of named, sequential steps that thread an immutable state from one to the
next.

It implements a "fold with a failure escape hatch": steps run left to right,
each receiving the state produced by the previous one, and the first failure
stops the run. Every run produces exactly one terminal outcome, success or
failure, shaped by the definition's own handlers.

# Concept

A recipe declares an ordered list of step names and binds each name to a
function from state to state. The engine manages execution order, state
threading, correlation ids and observability, while your application owns the
step bodies and what the terminal handlers make of the outcome. This
hexagonal architecture allows the engine to be embedded in any interface:
library calls, CLI, HTTP server or MCP agent infrastructure.

# Key Features

  - Exactly one outcome: a run either completes every step and returns the
    success handler's value, or stops at the first failure and returns the
    error handler's value. Never both, never neither.
  - Immutable state threading: steps return new states; a failing step's
    partial work never leaks into the failure handler.
  - Validation gate: definitions are checked for unimplemented steps before
    any run, not during one.
  - Opt-in telemetry: observers receive start, per-step and finish callbacks
    with correlation ids and timings; disabled runs pay nothing.
  - Hexagonal architecture: catalogs, run stores and transports are
    adapters around a small engine core.

# Usage

Define steps, build a recipe, run it:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/cloud8421/recipe"
		"github.com/cloud8421/recipe/pkg/domain"
		"github.com/cloud8421/recipe/pkg/dsl"
	)

	func main() {
		def, err := dsl.New("math").
			Step("square", func(ctx context.Context, st *domain.State) (*domain.State, error) {
				n, _ := st.Value("number")
				return st.Assign("number", n.(int)*n.(int)), nil
			}).
			Step("double", func(ctx context.Context, st *domain.State) (*domain.State, error) {
				n, _ := st.Value("number")
				return st.Assign("number", n.(int)*2), nil
			}).
			OnResult(func(st *domain.State) any {
				n, _ := st.Value("number")
				return n
			}).
			Build()
		if err != nil {
			log.Fatal(err)
		}

		res, err := recipe.Run(context.Background(),
			def, domain.NewState().Assign("number", 4))
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(res.Value) // 32
	}

For catalog-driven execution, construct an Engine with a recipe source and a
step registry, then use RunNamed. See pkg/adapters for the available catalog
and run-store backends.
*/
package recipe

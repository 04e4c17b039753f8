/*
Package domain contains the core domain models for the recipe engine.

It defines the value types threaded through a run: the immutable State,
the Definition contract with its standard Recipe implementation, the
Observer protocol, and the error taxonomy. This package is kept pure and
free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - State: the immutable key/value bag a run threads through its steps.
  - Definition/Recipe: an ordered list of named steps plus terminal
    result and error handlers.
  - Observer: the four-callback telemetry protocol around a run.
  - Manifest: a recipe as described by a catalog, before its steps are
    resolved against a registry.
  - RunRecord: the persisted summary of a finished run.
*/
package domain

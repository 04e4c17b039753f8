/*
Package ports defines the driven ports (interfaces) for the recipe engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various run-record stores, recipe
catalogs and identifier sources.

# Key Interfaces

  - Runner: the run surface adapters (HTTP, MCP, CLI) drive.
  - RunStore: persistence for terminal run records.
  - Loader: a catalog of recipe manifests (e.g., Loam or Memory).
  - IDSource: the opaque unique-token supplier for correlation ids.
*/
package ports

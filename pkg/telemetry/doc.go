/*
Package telemetry provides observers for the recipe engine's lifecycle
protocol.

It ships the built-in logging observer the engine falls back to, a no-op
observer for silent runs, a fan-out combinator, and a Prometheus
exporter for production monitoring.
*/
package telemetry

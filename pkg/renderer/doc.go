// Package renderer turns component checkouts into rendered manifests by
// delegating to an external render engine.
//
// The orchestrator owns the contract with the engine: it lays out a
// per-component work directory with the component source, a params.yaml
// carrying the component's resolved parameters, and an empty output
// directory the engine must fill. Engine failures are reported separately
// from orchestration failures so callers can tell a broken component apart
// from a broken compiler.
package renderer

// Package app wires the model registry, geometry cache, orchestrator,
// exporter and notifiers into a running application, decoupled from any
// specific entrypoint like a CLI or server.
package app

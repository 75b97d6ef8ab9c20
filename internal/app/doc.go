// Package app contains the application lifecycle. It compiles a render
// graph, applies presets, snapshots and overrides, runs preview frames or
// generates technique source, and optionally serves a small HTTP surface for
// tweaking variables while frames run. It is decoupled from any specific
// entrypoint like a CLI.
package app

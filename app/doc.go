// Package app wires the vidscribe service: configuration, the notify hub,
// the processing pipeline and its stage executors, the dispatcher and the
// HTTP server.
package app

// Package pipeline runs an uploaded media file through ordered processing
// stages and broadcasts progress for every stage.
//
// A run persists the upload, extracts its audio track and produces a
// transcript. Each stage publishes an in_progress message before it starts
// and a completed message after it succeeds; the first failure publishes a
// single error message and ends the run. Temporary artifacts are released
// on every exit path, including panics inside a stage.
//
// Runs are executed by a Dispatcher worker pool; callers submit a run and
// wait for its Result.
package pipeline

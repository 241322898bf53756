// Package api exposes the processing service over HTTP: the upload endpoint
// that runs a pipeline and the live-update endpoints that stream its
// progress.
package api

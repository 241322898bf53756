// Package util holds small helpers shared across packages: size parsing for
// body limits, filename sanitizing for temporary artifacts and secret masking
// for logs.
package util

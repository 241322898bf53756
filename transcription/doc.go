// Package transcription turns extracted audio into text.
//
// Backends implement Provider and register a Factory under their name:
//
//   - transcription/placeholder: deterministic text naming the upload, the
//     default when no speech backend is deployed
//   - transcription/whisper: a faster-whisper HTTP sidecar
//
// Transcriber adapts the configured provider to the get_transcript stage and
// guards it with retries and a circuit breaker.
package transcription

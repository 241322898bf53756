// Package media extracts audio tracks from uploaded videos with ffprobe and
// ffmpeg.
//
// The extractor first asks ffprobe for an audio stream so that silent videos
// fail with errors.NoAudioTrack instead of an opaque ffmpeg exit code, then
// writes a mono 16 kHz WAV file suitable for speech recognition.
package media

package transcription

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the local path of the audio file.
	AudioPath string `json:"audio_path"`
	// Filename is the original upload name.
	Filename string `json:"filename,omitempty"`
	// Language is the expected language, e.g. "en". Empty lets the backend detect it.
	Language string `json:"language,omitempty"`
	// Model overrides the provider's configured model.
	Model string `json:"model,omitempty"`
}

// Response holds the result of a transcription call.
type Response struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	Language string  `json:"language,omitempty"`
}

// Segment is a time-aligned portion of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

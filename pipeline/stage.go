package pipeline

// StageID identifies a pipeline step on the wire.
type StageID string

// Stages in run order.
const (
	StageUploadVideo         StageID = "upload_video"
	StageExtractAudio        StageID = "extract_audio"
	StageGetTranscript       StageID = "get_transcript"
	StageSummarizeTranscript StageID = "summarize_transcript"
	StageUploadToS3          StageID = "upload_to_s3"
)

// Stages returns every stage in run order.
func Stages() []StageID {
	return []StageID{
		StageUploadVideo,
		StageExtractAudio,
		StageGetTranscript,
		StageSummarizeTranscript,
		StageUploadToS3,
	}
}

// Valid reports whether s is a known stage.
func (s StageID) Valid() bool {
	for _, id := range Stages() {
		if s == id {
			return true
		}
	}
	return false
}

func (s StageID) String() string { return string(s) }

// checkpoint holds the overall progress reported when a stage starts and
// when it completes.
type checkpoint struct {
	start, done int
}

var checkpoints = map[StageID]checkpoint{
	StageUploadVideo:   {start: 10, done: 20},
	StageExtractAudio:  {start: 30, done: 50},
	StageGetTranscript: {start: 70, done: 100},
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad", http.StatusBadRequest)
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, err.Code)
	}
	if err.Message != "bad" {
		t.Errorf("expected message 'bad', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("INVALID_INPUT should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_MissingField(t *testing.T) {
	err := MissingField("video")
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.HTTPStatus)
	}
	if err.Details["field"] != "video" {
		t.Errorf("expected field=video, got %v", err.Details["field"])
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NoAudioTrack("clip.mp4").WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := NoAudioTrack("clip.mp4").WithDetails(map[string]any{"extra": "info"})
	if err.Details["extra"] != "info" {
		t.Errorf("expected extra=info in details")
	}
	if err.Details["filename"] != "clip.mp4" {
		t.Error("expected original details to be preserved")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("whisper"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"ConnectionFailed", ConnectionFailed("s3"), ErrCodeConnectionFailed, http.StatusServiceUnavailable, true},
		{"Timeout", Timeout("extract_audio"), ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{"InvalidInput", InvalidInput("video", "empty"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"PayloadTooLarge", PayloadTooLarge(10), ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge, false},
		{"Internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError, false},
		{"ExternalServiceError", ExternalServiceError("whisper", nil), ErrCodeExternalService, http.StatusBadGateway, true},
		{"StageFailed", StageFailed("extract_audio", nil), ErrCodeStageFailed, http.StatusInternalServerError, false},
		{"NoAudioTrack", NoAudioTrack("a.mp4"), ErrCodeNoAudioTrack, http.StatusUnprocessableEntity, false},
		{"ToolingUnavailable", ToolingUnavailable("ffmpeg", nil), ErrCodeToolingUnavailable, http.StatusServiceUnavailable, false},
		{"ExtractionFailed", ExtractionFailed("exit 1", nil), ErrCodeExtractionFailed, http.StatusInternalServerError, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestStageFailed_NamesStepAndCause(t *testing.T) {
	err := StageFailed("extract_audio", NoAudioTrack("clip.mp4"))

	if err.Step() != "extract_audio" {
		t.Errorf("expected step extract_audio, got %q", err.Step())
	}
	if err.Message != "extract_audio: audio extraction requires an audio track" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if !HasCode(err, ErrCodeNoAudioTrack) {
		t.Error("expected the cause code to be reachable through the chain")
	}
}

func TestStageFailed_IncludesCollaboratorDetail(t *testing.T) {
	cause := ToolingUnavailable("ffmpeg", fmt.Errorf("exec: \"ffmpeg\": executable file not found in $PATH"))
	err := StageFailed("extract_audio", cause)

	if !strings.Contains(err.Message, "ffmpeg is not installed") {
		t.Errorf("expected tool message, got %q", err.Message)
	}
	if !strings.Contains(err.Message, "executable file not found") {
		t.Errorf("expected collaborator detail, got %q", err.Message)
	}
}

func TestStageFailed_PlainCause(t *testing.T) {
	err := StageFailed("upload_video", fmt.Errorf("disk full"))
	if err.Message != "upload_video: disk full" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestDescribe(t *testing.T) {
	if Describe(nil) != "" {
		t.Error("expected empty description for nil")
	}
	if got := Describe(fmt.Errorf("plain")); got != "plain" {
		t.Errorf("expected 'plain', got %q", got)
	}
	if got := Describe(NoAudioTrack("x")); got != "audio extraction requires an audio track" {
		t.Errorf("unexpected description %q", got)
	}
}

func TestErrorCode_IsRetryableCode_Table(t *testing.T) {
	retryable := []ErrorCode{ErrCodeServiceUnavailable, ErrCodeConnectionFailed, ErrCodeTimeout, ErrCodeExternalService}
	for _, code := range retryable {
		if !IsRetryableCode(code) {
			t.Errorf("expected %s to be retryable", code)
		}
	}

	nonRetryable := []ErrorCode{ErrCodeMissingField, ErrCodeInvalidInput, ErrCodeStageFailed, ErrCodeNoAudioTrack, ErrCodeToolingUnavailable, ErrCodeInternal}
	for _, code := range nonRetryable {
		if IsRetryableCode(code) {
			t.Errorf("expected %s to NOT be retryable", code)
		}
	}
}

func TestAppError_ToResponse_StageFailure(t *testing.T) {
	err := StageFailed("get_transcript", fmt.Errorf("sidecar down")).WithDetail("run_id", "r1")
	resp := err.ToResponse()

	if resp.Error != "get_transcript: sidecar down" {
		t.Errorf("unexpected error text %q", resp.Error)
	}
	if resp.Code != ErrCodeStageFailed {
		t.Errorf("expected STAGE_FAILED, got %s", resp.Code)
	}
	if resp.Step != "get_transcript" {
		t.Errorf("expected step get_transcript, got %q", resp.Step)
	}
	if _, ok := resp.Details[DetailStep]; ok {
		t.Error("step should not be duplicated in details")
	}
	if resp.Details["run_id"] != "r1" {
		t.Errorf("expected run_id in details, got %v", resp.Details)
	}
}

func TestAppError_ToResponse_NoDetails(t *testing.T) {
	resp := Validation("No video file provided").ToResponse()
	if resp.Error != "No video file provided" {
		t.Errorf("unexpected error text %q", resp.Error)
	}
	if resp.Details != nil {
		t.Errorf("expected nil details, got %v", resp.Details)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Internal(nil)
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if _, ok := AsAppError(fmt.Errorf("not an app error")); ok {
		t.Error("expected AsAppError to return false for non-AppError")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	orig := NoAudioTrack("clip.mp4")
	if Wrap(orig) != orig {
		t.Error("Wrap should return the original AppError unchanged")
	}

	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if !stderrors.Is(got, plain) {
		t.Error("expected cause to be the original error")
	}
}

func TestHasCode(t *testing.T) {
	if HasCode(fmt.Errorf("plain"), ErrCodeInternal) {
		t.Error("plain error carries no code")
	}
	if HasCode(nil, ErrCodeInternal) {
		t.Error("nil carries no code")
	}
	if !HasCode(fmt.Errorf("ctx: %w", Timeout("x")), ErrCodeTimeout) {
		t.Error("expected code through fmt wrapping")
	}
}

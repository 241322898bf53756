package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/pipeline"
	"github.com/kbukum/vidscribe/version"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := fmt.Sprintf(`name: vidscribe
environment: development
logging:
  level: error
pipeline:
  workers: 1
  workspace_dir: %s
  sweep_age: 0s
transcription:
  provider: placeholder
`, filepath.Join(dir, "workspace"))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, version.Version) {
		t.Errorf("expected version %q in %q", version.Version, out)
	}

	out, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json failed: %v", err)
	}
	var info version.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if info.Version != version.Version {
		t.Errorf("expected %q, got %q", version.Version, info.Version)
	}
}

func TestProcessCommandArgs(t *testing.T) {
	cfg := writeTestConfig(t)
	empty := filepath.Join(t.TempDir(), "empty.mp4")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no file", []string{"process", "-c", cfg}, "accepts 1 arg"},
		{"missing file", []string{"process", "-c", cfg, filepath.Join(t.TempDir(), "nope.mp4")}, "no such file"},
		{"empty file", []string{"process", "-c", cfg, empty}, "file is empty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestProcessCommandReportsStageFailure(t *testing.T) {
	cfg := writeTestConfig(t)
	clip := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(clip, []byte("not really a video"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "process", "-c", cfg, clip)
	if err == nil || !strings.Contains(err.Error(), "Processing failed for clip.mp4: extract_audio:") {
		t.Fatalf("expected extract_audio failure, got %v", err)
	}
	if !apperrors.HasCode(err, apperrors.ErrCodeStageFailed) {
		t.Errorf("expected the stage failure to stay in the error chain, got %v", err)
	}

	var msgs []pipeline.Message
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var msg pipeline.Message
		if json.Unmarshal(sc.Bytes(), &msg) == nil && msg.Type != "" {
			msgs = append(msgs, msg)
		}
	}
	if len(msgs) < 2 {
		t.Fatalf("expected progress lines, got %q", out)
	}
	if msgs[0].Step != pipeline.StageUploadVideo || msgs[0].Progress() != 10 {
		t.Errorf("unexpected first message %+v", msgs[0])
	}
	last := msgs[len(msgs)-1]
	if last.Type != pipeline.KindError || last.Step != pipeline.StageExtractAudio {
		t.Errorf("expected terminal extract_audio error, got %+v", last)
	}
	for _, m := range msgs {
		if m.Step == pipeline.StageGetTranscript {
			t.Errorf("get_transcript must not run after a failure: %+v", m)
		}
	}
}

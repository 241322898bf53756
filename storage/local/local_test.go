package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/storage"
)

func TestStorage_UploadDownloadDelete(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	ctx := context.Background()

	if err := s.Upload(ctx, "runs/a_clip.mp4", strings.NewReader("video")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	ok, err := s.Exists(ctx, "runs/a_clip.mp4")
	if err != nil || !ok {
		t.Fatalf("expected object to exist, ok=%v err=%v", ok, err)
	}

	rc, err := s.Download(ctx, "runs/a_clip.mp4")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "video" {
		t.Errorf("expected video, got %q", data)
	}

	if err := s.Delete(ctx, "runs/a_clip.mp4"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "runs/a_clip.mp4"); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
	if _, err := s.Download(ctx, "runs/a_clip.mp4"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStorage_LocalPathStaysUnderBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewStorage(base)
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"a.wav", filepath.Join(s.BasePath(), "a.wav")},
		{"../../etc/passwd", filepath.Join(s.BasePath(), "etc/passwd")},
		{"/abs/x", filepath.Join(s.BasePath(), "abs/x")},
	}
	for _, tc := range tests {
		got, err := s.LocalPath(tc.in)
		if err != nil {
			t.Fatalf("LocalPath(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("LocalPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := s.LocalPath(" "); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestStorage_List(t *testing.T) {
	s, _ := NewStorage(t.TempDir())
	ctx := context.Background()
	_ = s.Upload(ctx, "b.txt", strings.NewReader("b"))
	_ = s.Upload(ctx, "a.txt", strings.NewReader("a"))
	_ = s.Upload(ctx, "other/c.wav", strings.NewReader("c"))

	files, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 3 || files[0].Path != "a.txt" {
		t.Errorf("unexpected listing %+v", files)
	}

	files, _ = s.List(ctx, "other/")
	if len(files) != 1 || files[0].Path != "other/c.wav" {
		t.Errorf("unexpected prefixed listing %+v", files)
	}
}

func TestStorage_URL(t *testing.T) {
	s, _ := NewStorage(t.TempDir())
	u, err := s.URL(context.Background(), "a.txt")
	if err != nil {
		t.Fatalf("URL failed: %v", err)
	}
	if !strings.HasPrefix(u, "file://") {
		t.Errorf("expected file URL, got %q", u)
	}
}

func TestFactory_UsesCoreBasePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "workspace")
	st, err := storage.New(storage.Config{Provider: storage.ProviderLocal, BasePath: dir}, nil, logger.NewNop())
	if err != nil {
		t.Fatalf("storage.New failed: %v", err)
	}
	if _, ok := st.(*Storage); !ok {
		t.Fatalf("expected *local.Storage, got %T", st)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected base directory to be created: %v", err)
	}
}

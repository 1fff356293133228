package rawvideo

import (
	"context"
	"testing"
)

func TestOpenRejectsInvalidDimensions(t *testing.T) {
	if _, err := Open(context.Background(), "ffmpeg", "clip.mp4", 0, 240); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := Open(context.Background(), "ffmpeg", "clip.mp4", 320, -1); err == nil {
		t.Fatal("expected error for negative height")
	}
}

func TestFrameSize(t *testing.T) {
	r := &Reader{width: 320, height: 240, frameSize: 320 * 240 * 3}
	if r.FrameSize() != 230400 {
		t.Fatalf("unexpected frame size: %d", r.FrameSize())
	}
}

func TestCloseNilProcess(t *testing.T) {
	var r Reader
	if err := r.Close(); err != nil {
		t.Fatalf("Close on zero reader: %v", err)
	}
}

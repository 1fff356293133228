package ffprobe

import (
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 640, Height: 360},
			{CodecType: "video"},
		},
		Format: Format{
			Duration: "123.45",
		},
	}
	if result.VideoStreamCount() != 2 {
		t.Fatalf("expected 2 video streams, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	stream, ok := result.PrimaryVideoStream()
	if !ok {
		t.Fatal("expected a primary video stream")
	}
	if stream.Width != 640 || stream.Height != 360 {
		t.Fatalf("expected first video stream, got %+v", stream)
	}
}

func TestPrimaryVideoStreamAbsent(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "audio"}}}
	if _, ok := result.PrimaryVideoStream(); ok {
		t.Fatal("expected no video stream")
	}
}

func TestFrameRateParsing(t *testing.T) {
	cases := []struct {
		stream Stream
		want   float64
	}{
		{Stream{RFrameRate: "30/1"}, 30},
		{Stream{RFrameRate: "30000/1001"}, 30000.0 / 1001.0},
		{Stream{RFrameRate: "0/0", AvgFrameRate: "25/1"}, 25},
		{Stream{RFrameRate: "24"}, 24},
		{Stream{}, 0},
		{Stream{RFrameRate: "bad/rate"}, 0},
	}
	for _, tc := range cases {
		if got := tc.stream.FrameRate(); got != tc.want {
			t.Fatalf("FrameRate(%q,%q) = %v, want %v", tc.stream.RFrameRate, tc.stream.AvgFrameRate, got, tc.want)
		}
	}
}

func TestFrameCountFallsBackToDuration(t *testing.T) {
	stream := Stream{NBFrames: "45"}
	if got := stream.FrameCount(0); got != 45 {
		t.Fatalf("expected reported count, got %d", got)
	}

	stream = Stream{RFrameRate: "30/1", Duration: "1.5"}
	if got := stream.FrameCount(0); got != 45 {
		t.Fatalf("expected duration*rate fallback 45, got %d", got)
	}

	stream = Stream{RFrameRate: "30/1"}
	if got := stream.FrameCount(2); got != 60 {
		t.Fatalf("expected container duration fallback 60, got %d", got)
	}

	stream = Stream{}
	if got := stream.FrameCount(0); got != 0 {
		t.Fatalf("expected 0 for unknown count, got %d", got)
	}
}

func TestDurationSecondsInvalid(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if got := result.DurationSeconds(); got != 0 {
		t.Fatalf("expected 0 for unparseable duration, got %v", got)
	}
}

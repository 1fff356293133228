package rawvideo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Reader streams decoded RGB24 frames from an ffmpeg child process. One
// process is spawned per reader; readers are not safe for concurrent use.
type Reader struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    bytes.Buffer
	width     int
	height    int
	frameSize int
	frames    int
	done      bool
}

// Open starts ffmpeg decoding the file at path into a raw RGB24 stream.
// Dimensions must match the probed stream geometry; ffmpeg writes exactly
// width*height*3 bytes per frame.
func Open(ctx context.Context, binary, path string, width, height int) (*Reader, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rawvideo open: invalid dimensions %dx%d", width, height)
	}

	cmd := exec.CommandContext(ctx, binary,
		"-v", "error", "-hide_banner", "-nostdin",
		"-i", path,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)

	reader := &Reader{
		cmd:       cmd,
		width:     width,
		height:    height,
		frameSize: width * height * 3,
	}
	cmd.Stderr = &reader.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("rawvideo stdout pipe: %w", err)
	}
	reader.stdout = stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("rawvideo start %s: %w", binary, err)
	}
	return reader, nil
}

// FrameSize returns the byte length of one decoded frame.
func (r *Reader) FrameSize() int {
	return r.frameSize
}

// Frames returns how many complete frames have been read so far.
func (r *Reader) Frames() int {
	return r.frames
}

// Next fills dst with the next decoded frame, reusing dst when it is large
// enough. It returns io.EOF once the stream ends; a truncated final frame is
// treated as end of stream rather than an error.
func (r *Reader) Next(dst []byte) ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}
	if cap(dst) < r.frameSize {
		dst = make([]byte, r.frameSize)
	}
	dst = dst[:r.frameSize]

	_, err := io.ReadFull(r.stdout, dst)
	switch {
	case err == nil:
		r.frames++
		return dst, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		r.done = true
		return nil, io.EOF
	default:
		r.done = true
		return nil, fmt.Errorf("rawvideo read frame %d: %w", r.frames, err)
	}
}

// Close releases the decoder process. Safe to call after EOF or mid-stream;
// an abandoned stream kills the child rather than draining it.
func (r *Reader) Close() error {
	if r.cmd == nil {
		return nil
	}
	_ = r.stdout.Close()
	killed := false
	if !r.done && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
		killed = true
	}
	err := r.cmd.Wait()
	r.cmd = nil
	if killed {
		return nil
	}
	// Decoder complaints surface to callers as a short stream already.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// Stderr returns whatever the decoder wrote to its error stream, trimmed.
func (r *Reader) Stderr() string {
	return strings.TrimSpace(r.stderr.String())
}

// Package rawvideo decodes video files into raw RGB24 frame buffers by
// streaming from an ffmpeg child process.
//
// The Reader hands out one frame per call and reuses caller buffers, so a
// full-clip scan allocates a constant amount of pixel memory regardless of
// clip length.
package rawvideo

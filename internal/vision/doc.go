// Package vision wraps the optional perception models used during clip
// analysis: a pigo face cascade and an ONNX expression classifier. Both load
// lazily from configured paths and report errors instead of panicking so the
// analyzer can run without them.
package vision

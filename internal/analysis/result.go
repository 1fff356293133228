package analysis

// Result summarizes one clip scan. Pointer fields are nil when the underlying
// signal could not be measured, which downstream consumers treat as "unknown"
// rather than zero.
type Result struct {
	LoopStart            *float64       `json:"loop_start"`
	LoopEnd              *float64       `json:"loop_end"`
	Duration             *float64       `json:"duration"`
	Motion               *float64       `json:"motion"`
	Confidence           *float64       `json:"confidence"`
	Expression           string         `json:"expression,omitempty"`
	ExpressionConfidence *float64       `json:"expression_confidence,omitempty"`
	Tags                 []string       `json:"tags,omitempty"`
	Metadata             map[string]any `json:"metadata,omitempty"`
}

// Empty reports whether the scan produced no usable signal at all, which is
// what an unreadable file yields.
func (r Result) Empty() bool {
	return r.LoopStart == nil &&
		r.LoopEnd == nil &&
		r.Duration == nil &&
		r.Motion == nil &&
		r.Confidence == nil &&
		r.Expression == "" &&
		len(r.Tags) == 0 &&
		len(r.Metadata) == 0
}

func floatPtr(v float64) *float64 { return &v }

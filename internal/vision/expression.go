package vision

import (
	"fmt"
	"image"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
)

// sharedLibraryEnv overrides the onnxruntime shared library location when the
// default loader path does not apply.
const sharedLibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

func ensureRuntime() error {
	runtimeOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if path := os.Getenv(sharedLibraryEnv); path != "" {
			ort.SetSharedLibraryPath(path)
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	return runtimeErr
}

// ExpressionConfig describes the classifier model and its preprocessing.
type ExpressionConfig struct {
	ModelPath string
	Labels    []string
	InputSize int
	Mean      []float64
	Std       []float64
}

// Prediction is the winning label of one classifier pass together with its
// softmax probability.
type Prediction struct {
	Label       string
	Probability float64
}

// ExpressionClassifier scores face crops against an ONNX expression model.
type ExpressionClassifier struct {
	session   *ort.DynamicAdvancedSession
	labels    []string
	inputSize int
	mean      [3]float32
	std       [3]float32
}

// NewExpressionClassifier loads the ONNX model described by cfg. Any load
// failure returns an error so callers can continue without expression data.
func NewExpressionClassifier(cfg ExpressionConfig) (*ExpressionClassifier, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("expression model path not configured")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("expression model: %w", err)
	}
	if cfg.InputSize <= 0 {
		return nil, fmt.Errorf("expression input size must be positive, got %d", cfg.InputSize)
	}
	mean, err := tripletFloat32(cfg.Mean, "mean")
	if err != nil {
		return nil, err
	}
	std, err := tripletFloat32(cfg.Std, "std")
	if err != nil {
		return nil, err
	}
	for i, v := range std {
		if v == 0 {
			return nil, fmt.Errorf("expression std channel %d is zero", i)
		}
	}

	if err := ensureRuntime(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect expression model: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("expression model declares no usable inputs or outputs")
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("open expression model session: %w", err)
	}

	return &ExpressionClassifier{
		session:   session,
		labels:    append([]string(nil), cfg.Labels...),
		inputSize: cfg.InputSize,
		mean:      mean,
		std:       std,
	}, nil
}

// Classify resizes the face crop to the model input, normalizes it channel by
// channel, and returns the top softmax label. Inference failures return an
// error rather than a zero prediction so callers can skip the frame.
func (c *ExpressionClassifier) Classify(face image.Image) (Prediction, error) {
	if c == nil || c.session == nil {
		return Prediction{}, fmt.Errorf("expression classifier not loaded")
	}
	bounds := face.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Prediction{}, fmt.Errorf("empty face crop")
	}

	resized := imaging.Resize(face, c.inputSize, c.inputSize, imaging.Lanczos)
	data := c.preprocess(resized)

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(c.inputSize), int64(c.inputSize)), data)
	if err != nil {
		return Prediction{}, fmt.Errorf("build input tensor: %w", err)
	}
	defer input.Destroy()

	results := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{input}, results); err != nil {
		return Prediction{}, fmt.Errorf("run expression model: %w", err)
	}
	output, ok := results[0].(*ort.Tensor[float32])
	if !ok {
		if results[0] != nil {
			results[0].Destroy()
		}
		return Prediction{}, fmt.Errorf("expression model returned unexpected tensor type")
	}
	defer output.Destroy()

	logits := output.GetData()
	if len(logits) == 0 {
		return Prediction{}, fmt.Errorf("expression model returned no scores")
	}

	probs := softmax(logits)
	idx := argmax(probs)
	return Prediction{Label: c.labelFor(idx), Probability: probs[idx]}, nil
}

// Close releases the underlying session. Safe on nil receivers.
func (c *ExpressionClassifier) Close() {
	if c == nil || c.session == nil {
		return
	}
	c.session.Destroy()
	c.session = nil
}

// preprocess produces the NCHW float32 payload: per channel (px/255 - mean)/std.
func (c *ExpressionClassifier) preprocess(img *image.NRGBA) []float32 {
	plane := c.inputSize * c.inputSize
	data := make([]float32, 3*plane)
	for y := 0; y < c.inputSize; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < c.inputSize; x++ {
			px := row[x*4 : x*4+3]
			idx := y*c.inputSize + x
			data[idx] = (float32(px[0])/255 - c.mean[0]) / c.std[0]
			data[plane+idx] = (float32(px[1])/255 - c.mean[1]) / c.std[1]
			data[2*plane+idx] = (float32(px[2])/255 - c.mean[2]) / c.std[2]
		}
	}
	return data
}

func (c *ExpressionClassifier) labelFor(idx int) string {
	if idx >= 0 && idx < len(c.labels) {
		return c.labels[idx]
	}
	return strconv.Itoa(idx)
}

func softmax(logits []float32) []float64 {
	probs := make([]float64, len(logits))
	maxLogit := float64(logits[0])
	for _, v := range logits[1:] {
		if float64(v) > maxLogit {
			maxLogit = float64(v)
		}
	}
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v) - maxLogit)
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func tripletFloat32(values []float64, name string) ([3]float32, error) {
	var out [3]float32
	if len(values) != 3 {
		return out, fmt.Errorf("expression %s must have 3 channels, got %d", name, len(values))
	}
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

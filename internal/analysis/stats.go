package analysis

import "math"

// histogramBins is the resolution of the per-frame luminance histogram used
// for loop detection. 256 gray levels collapse 4:1 into 64 bins.
const histogramBins = 64

// grayInto converts packed RGB24 pixels to 8-bit luminance using the BT.601
// fixed-point weights. dst must hold len(rgb)/3 bytes.
func grayInto(dst []uint8, rgb []byte) {
	for i, j := 0, 0; i+2 < len(rgb); i, j = i+3, j+1 {
		r := uint32(rgb[i])
		g := uint32(rgb[i+1])
		b := uint32(rgb[i+2])
		dst[j] = uint8((4899*r + 9617*g + 1868*b + 8192) >> 14)
	}
}

// histogram64 builds an L2-normalized 64-bin histogram of the gray frame.
func histogram64(gray []uint8) []float64 {
	hist := make([]float64, histogramBins)
	for _, v := range gray {
		hist[v>>2]++
	}
	var sumSquares float64
	for _, v := range hist {
		sumSquares += v * v
	}
	if norm := math.Sqrt(sumSquares); norm > 0 {
		for i := range hist {
			hist[i] /= norm
		}
	}
	return hist
}

// correlation computes the Pearson correlation of two equal-length histograms.
// Zero-variance inputs correlate perfectly, matching the OpenCV comparison the
// loop detector models.
func correlation(a, b []float64) float64 {
	n := float64(len(a))
	if n == 0 || len(a) != len(b) {
		return 0
	}
	var sumA, sumB, sumAB, sumAA, sumBB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
		sumAB += a[i] * b[i]
		sumAA += a[i] * a[i]
		sumBB += b[i] * b[i]
	}
	num := sumAB - sumA*sumB/n
	denom := (sumAA - sumA*sumA/n) * (sumBB - sumB*sumB/n)
	if math.Abs(denom) <= 2.220446049250313e-16 {
		return 1
	}
	return num / math.Sqrt(denom)
}

// meanAbsDiff averages the absolute per-pixel difference of two gray frames.
func meanAbsDiff(a, b []uint8) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var total uint64
	for i := range a {
		if a[i] >= b[i] {
			total += uint64(a[i] - b[i])
		} else {
			total += uint64(b[i] - a[i])
		}
	}
	return float64(total) / float64(len(a))
}

// regionMean averages gray values over the half-open rectangle
// [x0,x1) x [y0,y1), returning the pixel count alongside.
func regionMean(gray []uint8, width int, x0, y0, x1, y1 int) (float64, int) {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	height := len(gray) / width
	if x1 > width {
		x1 = width
	}
	if y1 > height {
		y1 = height
	}
	if x0 >= x1 || y0 >= y1 {
		return 0, 0
	}
	var total uint64
	for y := y0; y < y1; y++ {
		row := gray[y*width : y*width+width]
		for x := x0; x < x1; x++ {
			total += uint64(row[x])
		}
	}
	count := (x1 - x0) * (y1 - y0)
	return float64(total) / float64(count), count
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation around the provided mean.
func stddev(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

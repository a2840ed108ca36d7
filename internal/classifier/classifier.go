package classifier

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
)

// ErrNoPrediction is returned whenever a label cannot be produced.
var ErrNoPrediction = errors.New("no face shape prediction")

// distributionTolerance is how far from 1 a score vector may sum and still
// be treated as probabilities.
const distributionTolerance = 1e-3

// Classifier maps a selfie to one of the face shape classes.
type Classifier struct {
	detector geometry.Detector
	model    Model
	margin   float64
}

func New(detector geometry.Detector, model Model) *Classifier {
	return &Classifier{detector: detector, model: model, margin: geometry.DefaultMargin}
}

// Classify detects the face, crops it with margin and scores the crop.
// A missing face is reported as ErrNoPrediction wrapping geometry.ErrNoFace.
func (c *Classifier) Classify(ctx context.Context, img gocv.Mat) (domain.ShapePrediction, error) {
	if c == nil || c.model == nil || c.detector == nil {
		return domain.ShapePrediction{}, fmt.Errorf("%w: %w", ErrNoPrediction, geometry.ErrModelUnavailable)
	}
	if img.Empty() {
		return domain.ShapePrediction{}, fmt.Errorf("%w: empty image", ErrNoPrediction)
	}

	box, err := c.detector.Detect(ctx, img)
	if err != nil {
		return domain.ShapePrediction{}, fmt.Errorf("%w: %w", ErrNoPrediction, err)
	}

	crop := geometry.ExpandBox(box, img.Cols(), img.Rows(), c.margin)
	if crop.Empty() {
		return domain.ShapePrediction{}, fmt.Errorf("%w: %w", ErrNoPrediction, geometry.ErrNoFace)
	}

	input, err := cropTensor(img, crop.Rect())
	if err != nil {
		return domain.ShapePrediction{}, fmt.Errorf("%w: %w", ErrNoPrediction, err)
	}

	scores, err := c.model.Predict(ctx, input)
	if err != nil {
		return domain.ShapePrediction{}, fmt.Errorf("%w: %w", ErrNoPrediction, err)
	}

	return predictionFrom(scores)
}

// cropTensor cuts rect out of img and turns it into the model input.
func cropTensor(img gocv.Mat, rect image.Rectangle) ([]float32, error) {
	region := img.Region(rect)
	defer region.Close()

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(region, &rgb, gocv.ColorBGRToRGB)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(rgb, &resized, image.Pt(InputSize, InputSize), 0, 0, gocv.InterpolationLinear)

	f := gocv.NewMat()
	defer f.Close()
	resized.ConvertTo(&f, gocv.MatTypeCV32FC3)

	data, err := f.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read crop: %w", err)
	}
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// predictionFrom turns raw model output into a labelled prediction.
func predictionFrom(raw []float32) (domain.ShapePrediction, error) {
	if len(raw) != len(domain.FaceShapes) {
		return domain.ShapePrediction{}, fmt.Errorf("%w: got %d scores", ErrNoPrediction, len(raw))
	}

	probs := make([]float64, len(raw))
	for i, v := range raw {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return domain.ShapePrediction{}, fmt.Errorf("%w: non-finite score", ErrNoPrediction)
		}
		probs[i] = float64(v)
	}
	if !isDistribution(probs) {
		probs = softmax(probs)
	}

	best := 0
	scores := make(map[domain.FaceShape]float64, len(probs))
	for i, p := range probs {
		scores[domain.FaceShapes[i]] = p
		if p > probs[best] {
			best = i
		}
	}

	return domain.ShapePrediction{
		Label:      domain.FaceShapes[best],
		Confidence: probs[best],
		Scores:     scores,
	}, nil
}

func isDistribution(p []float64) bool {
	sum := 0.0
	for _, v := range p {
		if v < 0 || v > 1 {
			return false
		}
		sum += v
	}
	return math.Abs(sum-1) <= distributionTolerance
}

func softmax(logits []float64) []float64 {
	peak := logits[0]
	for _, v := range logits[1:] {
		peak = math.Max(peak, v)
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

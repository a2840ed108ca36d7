package rekognition

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"gocv.io/x/gocv"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/audit"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/vision"
)

// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
const maxImageSize = 5 * 1024 * 1024

// Detector implements geometry.Detector with AWS Rekognition DetectFaces
type Detector struct {
	api         DetectFacesAPI
	config      Config
	auditLogger audit.Logger
}

// DetectorOption defines optional configuration for Detector
type DetectorOption func(*Detector)

// WithAuditLogger sets the audit logger for the detector
func WithAuditLogger(logger audit.Logger) DetectorOption {
	return func(d *Detector) {
		d.auditLogger = logger
	}
}

var _ geometry.Detector = (*Detector)(nil)

// NewDetector wraps an existing API client
func NewDetector(api DetectFacesAPI, cfg Config, opts ...DetectorOption) *Detector {
	d := &Detector{api: api, config: cfg}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect uploads the frame and returns the largest confident face
func (d *Detector) Detect(ctx context.Context, img gocv.Mat) (geometry.FaceBox, error) {
	if img.Empty() {
		return geometry.FaceBox{}, geometry.ErrNoFace
	}

	data, err := vision.EncodeJPEG(img, d.config.JPEGQuality)
	if err != nil {
		return geometry.FaceBox{}, fmt.Errorf("encode frame: %w", err)
	}
	if len(data) > maxImageSize {
		d.logAudit(ctx, false, ErrImageTooLarge, len(data), 0)
		return geometry.FaceBox{}, ErrImageTooLarge
	}

	output, err := d.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: data},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		err = parseError(err)
		d.logAudit(ctx, false, err, len(data), 0)
		return geometry.FaceBox{}, err
	}

	box, ok := largestFace(output.FaceDetails, d.config.MinConfidence, img.Cols(), img.Rows())
	d.logAudit(ctx, ok, nil, len(data), len(output.FaceDetails))
	if !ok {
		return geometry.FaceBox{}, geometry.ErrNoFace
	}
	return box, nil
}

// largestFace converts Rekognition's ratio boxes to pixels and keeps the
// biggest one that clears minConfidence.
func largestFace(details []types.FaceDetail, minConfidence float32, w, h int) (geometry.FaceBox, bool) {
	var best geometry.FaceBox
	found := false

	for _, detail := range details {
		if detail.BoundingBox == nil || detail.Confidence == nil {
			continue
		}
		if *detail.Confidence < minConfidence {
			continue
		}
		box := toPixels(detail.BoundingBox, w, h)
		if box.Empty() {
			continue
		}
		if !found || box.Width*box.Height > best.Width*best.Height {
			best, found = box, true
		}
	}

	return best, found
}

func toPixels(bb *types.BoundingBox, w, h int) geometry.FaceBox {
	ratio := func(v *float32) float64 {
		if v == nil {
			return 0
		}
		return float64(*v)
	}

	left := math.Max(ratio(bb.Left), 0)
	top := math.Max(ratio(bb.Top), 0)
	right := math.Min(ratio(bb.Left)+ratio(bb.Width), 1)
	bottom := math.Min(ratio(bb.Top)+ratio(bb.Height), 1)

	x := int(left * float64(w))
	y := int(top * float64(h))
	return geometry.FaceBox{
		X:      x,
		Y:      y,
		Width:  int(right*float64(w)) - x,
		Height: int(bottom*float64(h)) - y,
	}
}

// logAudit logs an audit event if an audit logger is configured
func (d *Detector) logAudit(ctx context.Context, success bool, err error, size, faces int) {
	if d.auditLogger == nil {
		return
	}

	event := audit.Event{
		EventType: audit.EventFaceDetected,
		Provider:  "rekognition",
		Success:   success,
		Metadata: map[string]string{
			"image_size":  strconv.Itoa(size),
			"faces_count": strconv.Itoa(faces),
		},
	}
	if err != nil {
		event.Error = err.Error()
	}

	_ = d.auditLogger.Log(ctx, event)
}

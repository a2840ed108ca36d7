package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FaceShape is the coarse face geometry class predicted by the classifier.
type FaceShape string

const (
	ShapeOval   FaceShape = "Oval"
	ShapeRound  FaceShape = "Round"
	ShapeSquare FaceShape = "Square"
)

// FaceShapes is the classifier output order.
var FaceShapes = [...]FaceShape{ShapeOval, ShapeRound, ShapeSquare}

// Gender selects the recommendation table.
type Gender string

const (
	GenderMale   Gender = "Laki-laki"
	GenderFemale Gender = "Perempuan"
)

// ParseGender accepts the mobile client's Indonesian labels and the English
// ones. Anything else falls back to male.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "perempuan", "female", "f", "wanita":
		return GenderFemale
	default:
		return GenderMale
	}
}

// ShapePrediction is an immutable classifier result.
type ShapePrediction struct {
	Label      FaceShape
	Confidence float64
	Scores     map[FaceShape]float64
}

// ConfidencePercent formats the confidence like "87.5%".
func (p ShapePrediction) ConfidencePercent() string {
	return FormatPercent(p.Confidence)
}

// ScorePercents returns every class score formatted as a percentage.
func (p ShapePrediction) ScorePercents() map[string]string {
	out := make(map[string]string, len(p.Scores))
	for shape, score := range p.Scores {
		out[string(shape)] = FormatPercent(score)
	}
	return out
}

// FormatPercent renders a probability as a percentage rounded to two
// decimals, trimmed of trailing zeros but keeping at least one decimal:
// 0.875 is "87.5%", 0.5 is "50.0%".
func FormatPercent(v float64) string {
	rounded := math.Round(v*100*100) / 100
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s + "%"
}

// Analysis is the stored outcome of one analyze request.
type Analysis struct {
	ID              uuid.UUID
	UserID          string
	Gender          Gender
	IsHijab         bool
	FaceShape       FaceShape
	Confidence      float64
	Scores          map[string]string
	Recommendations []string
	ImageHash       string
	CreatedAt       time.Time
}

// Package recommend maps a face shape to hairstyle suggestions.
package recommend

import "github.com/saturnino-fabrica-de-software/stylekit/internal/domain"

// Fallback is returned for any shape outside the known classes.
const Fallback = "Standar"

var byShape = map[domain.FaceShape][]string{
	domain.ShapeOval:   {"Undercut", "Pompadour", "Side Part"},
	domain.ShapeRound:  {"Faux Hawk", "High Fade", "Quiff"},
	domain.ShapeSquare: {"Buzz Cut", "Crew Cut", "Slicked Back"},
}

var (
	femaleHijab = []string{"Gaya Hijab Layered", "Pashmina Flowy", "Ciput Ninja Nyaman"}
	femaleOpen  = []string{"Long Layered Cut", "Side Swept Bangs", "Bob Cut"}
)

// Recommend returns a fresh, ordered list of styles. Female users get the
// gender table regardless of shape.
func Recommend(shape domain.FaceShape, gender domain.Gender, isHijab bool) []string {
	var src []string
	switch {
	case gender == domain.GenderFemale && isHijab:
		src = femaleHijab
	case gender == domain.GenderFemale:
		src = femaleOpen
	default:
		var ok bool
		if src, ok = byShape[shape]; !ok {
			return []string{Fallback}
		}
	}
	return append([]string(nil), src...)
}

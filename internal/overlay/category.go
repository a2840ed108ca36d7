package overlay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/geometry"
)

var ErrUnknownCategory = errors.New("unknown overlay category")

// Category carries everything that differs between sticker kinds. The
// scale multipliers are calibration constants.
type Category struct {
	name    string
	Scale   float64
	Anchor  int
	YOffset float64
}

var (
	Hair    = Category{name: "hair", Scale: 1.25, Anchor: geometry.IdxForehead, YOffset: 0.48}
	Hijab   = Category{name: "hijab", Scale: 1.9, Anchor: geometry.IdxForehead, YOffset: 0.48}
	Glasses = Category{name: "glasses", Scale: 0.9, Anchor: geometry.IdxNoseBridge, YOffset: 0.5}
)

// Categories lists every supported category.
var Categories = []Category{Hair, Hijab, Glasses}

// ParseCategory resolves an edit type such as "hair" or "Glasses".
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if c.name == key {
			return c, nil
		}
	}
	return Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// String is also the asset directory name.
func (c Category) String() string {
	return c.name
}

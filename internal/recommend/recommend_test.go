package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/domain"
)

func TestRecommend(t *testing.T) {
	tests := []struct {
		name    string
		shape   domain.FaceShape
		gender  domain.Gender
		isHijab bool
		want    []string
	}{
		{"oval male", domain.ShapeOval, domain.GenderMale, false, []string{"Undercut", "Pompadour", "Side Part"}},
		{"round male", domain.ShapeRound, domain.GenderMale, false, []string{"Faux Hawk", "High Fade", "Quiff"}},
		{"square male", domain.ShapeSquare, domain.GenderMale, false, []string{"Buzz Cut", "Crew Cut", "Slicked Back"}},
		{"unknown shape", domain.FaceShape("Heart"), domain.GenderMale, false, []string{"Standar"}},
		{"hijab flag ignored for men", domain.ShapeOval, domain.GenderMale, true, []string{"Undercut", "Pompadour", "Side Part"}},
		{"female with hijab", domain.ShapeSquare, domain.GenderFemale, true, []string{"Gaya Hijab Layered", "Pashmina Flowy", "Ciput Ninja Nyaman"}},
		{"female without hijab", domain.ShapeRound, domain.GenderFemale, false, []string{"Long Layered Cut", "Side Swept Bangs", "Bob Cut"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommend(tt.shape, tt.gender, tt.isHijab))
		})
	}
}

func TestRecommend_ReturnsFreshSlice(t *testing.T) {
	first := Recommend(domain.ShapeOval, domain.GenderMale, false)
	first[0] = "Mohawk"

	second := Recommend(domain.ShapeOval, domain.GenderMale, false)
	assert.Equal(t, "Undercut", second[0])
}

package score

import (
	"maps"
	"slices"

	"github.com/hazyhaar/leadscout/leads/internal/store"
	"github.com/hazyhaar/leadscout/leads/internal/vocab"
)

// TechWeight awards Points when the technology has a non-zero hint count.
type TechWeight struct {
	Tech   string `yaml:"tech" json:"tech"`
	Points int    `yaml:"points" json:"points"`
	Reason string `yaml:"reason" json:"reason"`
}

// Rules are the scoring weights and vocabularies. An Engine keeps a private
// copy, so mutating a Rules value after New has no effect.
type Rules struct {
	Keywords      []string       `yaml:"keywords" json:"keywords"`
	KeywordPoints int            `yaml:"keyword_points" json:"keyword_points"`
	Tech          []TechWeight   `yaml:"tech" json:"tech"` // evaluated in order
	SizeWeights   map[string]int `yaml:"size_weights" json:"size_weights"`
	DefaultSize   int            `yaml:"default_size" json:"default_size"`
	Roles         []string       `yaml:"roles" json:"roles"`
	RolePoints    int            `yaml:"role_points" json:"role_points"`
	Max           int            `yaml:"max" json:"max"`
}

// DefaultRules returns the production weights.
func DefaultRules() Rules {
	return Rules{
		Keywords:      vocab.AuthKeywords(),
		KeywordPoints: 3,
		Tech: []TechWeight{
			{vocab.TechDescope, 5, "mentions Descope"},
			{vocab.TechAuth0, 8, "Auth0 present"},
			{vocab.TechOkta, 8, "Okta present"},
			{vocab.TechFirebaseAuth, 5, "Firebase Auth present"},
			{vocab.TechSAML, 4, "SAML in stack"},
			{vocab.TechOIDC, 4, "OIDC in stack"},
		},
		SizeWeights: map[string]int{"51-250": 6, "251-1000": 10, ">1000": 12},
		DefaultSize: 2,
		Roles:       vocab.ScoredRoles(),
		RolePoints:  2,
		Max:         store.MaxScore,
	}
}

// Merge returns r with every zero-valued field taken from base.
func (r Rules) Merge(base Rules) Rules {
	if r.Keywords == nil {
		r.Keywords = base.Keywords
	}
	if r.KeywordPoints == 0 {
		r.KeywordPoints = base.KeywordPoints
	}
	if r.Tech == nil {
		r.Tech = base.Tech
	}
	if r.SizeWeights == nil {
		r.SizeWeights = base.SizeWeights
	}
	if r.DefaultSize == 0 {
		r.DefaultSize = base.DefaultSize
	}
	if r.Roles == nil {
		r.Roles = base.Roles
	}
	if r.RolePoints == 0 {
		r.RolePoints = base.RolePoints
	}
	if r.Max <= 0 || r.Max > store.MaxScore {
		r.Max = base.Max
	}
	return r
}

func (r Rules) clone() Rules {
	r.Keywords = slices.Clone(r.Keywords)
	r.Tech = slices.Clone(r.Tech)
	r.SizeWeights = maps.Clone(r.SizeWeights)
	r.Roles = slices.Clone(r.Roles)
	return r
}

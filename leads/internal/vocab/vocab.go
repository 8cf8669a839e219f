// Package vocab holds the default vocabularies of the pipeline: auth
// keywords, technology fingerprints, role keywords and search phrases.
//
// Every accessor returns a fresh copy so engines can own their
// configuration without sharing mutable state.
package vocab

// Tech names used as tech_hints keys.
const (
	TechAuth0        = "Auth0"
	TechOkta         = "Okta"
	TechFirebaseAuth = "FirebaseAuth"
	TechDescope      = "Descope"
	TechSAML         = "SAML"
	TechOIDC         = "OIDC"
)

// TechPattern binds a technology name to a case-insensitive regex source.
type TechPattern struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// AuthKeywords are the lowercase substrings that mark text as auth-related.
func AuthKeywords() []string {
	return []string{
		"sso", "single sign-on", "oauth", "oidc", "saml", "mfa", "2fa",
		"authentication", "authorization", "passwordless", "magic link",
		"passkey", "auth0", "okta", "firebase auth", "descope",
	}
}

// TechPatterns is the fingerprint table, in evaluation order.
func TechPatterns() []TechPattern {
	return []TechPattern{
		{TechAuth0, `auth0|auth0\.com`},
		{TechOkta, `okta|okta\.com`},
		{TechFirebaseAuth, `firebase\s*auth|firebase\.google|identitytoolkit`},
		{TechDescope, `descope|descope\.com`},
		{TechSAML, `saml`},
		{TechOIDC, `oidc|open id connect|openid connect`},
	}
}

// MergeTechPatterns returns base with each override applied: an override
// whose Name is already in base replaces that pattern in place, any other
// override is appended.
func MergeTechPatterns(base, overrides []TechPattern) []TechPattern {
	out := append([]TechPattern(nil), base...)
next:
	for _, o := range overrides {
		for i := range out {
			if out[i].Name == o.Name {
				out[i].Pattern = o.Pattern
				continue next
			}
		}
		out = append(out, o)
	}
	return out
}

// SizeKeywords are the organisational-role words counted on team pages.
func SizeKeywords() []string {
	return []string{"engineer", "product", "sales", "marketing", "designer", "finance", "hr"}
}

// HiringRoles is the role vocabulary searched on career pages.
func HiringRoles() []string {
	return []string{"security", "identity", "backend", "platform", "mobile", "sre", "devops"}
}

// ScoredRoles are the hiring roles that earn a scoring bonus.
func ScoredRoles() []string {
	return []string{"security", "identity", "backend", "platform", "devops"}
}

// Queries are the pain-point search phrases sent to search sources.
func Queries() []string {
	return []string{
		"auth0 migration", "okta outage", "SAML SSO problem", "OIDC error",
		"MFA rollout issue", "passwordless login broken", "oauth callback error",
	}
}

// Feeds are the default security feeds.
func Feeds() []string {
	return []string{
		"https://security.googleblog.com/feeds/posts/default?alt=rss",
		"https://feeds.feedburner.com/TheHackersNews",
	}
}

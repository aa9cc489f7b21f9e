package session

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// subjectKeys are tried in order when looking for the user id
var subjectKeys = []string{"sub", "id", "_id", "userId"}

// Decoder parses bearer tokens into claims without verifying signatures.
// Verification is the backend's job; the client only needs the payload.
type Decoder struct {
	parser *jwt.Parser
}

// NewDecoder creates a token decoder
func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser()}
}

// Decode parses token and returns its claims. It has no side effects.
func (d *Decoder) Decode(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, &DecodeError{Reason: "empty token"}
	}
	if n := strings.Count(token, ".") + 1; n != 3 {
		return Claims{}, &DecodeError{Reason: fmt.Sprintf("expected 3 segments, got %d", n)}
	}

	raw := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(token, raw); err != nil {
		return Claims{}, &DecodeError{Reason: "malformed payload", Err: err}
	}

	c := Claims{Raw: map[string]any(raw)}

	c.Subject = subjectOf(raw)
	if c.Subject == "" {
		return Claims{}, &DecodeError{Reason: "no subject claim"}
	}

	exp, err := raw.GetExpirationTime()
	if err != nil {
		return Claims{}, &DecodeError{Reason: "bad exp claim", Err: err}
	}
	if exp != nil {
		c.ExpiresAt = exp.Time
	}

	iat, err := raw.GetIssuedAt()
	if err != nil {
		return Claims{}, &DecodeError{Reason: "bad iat claim", Err: err}
	}
	if iat != nil {
		c.IssuedAt = iat.Time
	}

	c.Roles = rolesOf(raw)
	return c, nil
}

func subjectOf(raw jwt.MapClaims) string {
	for _, k := range subjectKeys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = fmt.Sprintf("%.0f", t)
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func rolesOf(raw jwt.MapClaims) []string {
	var out []string
	add := func(v any) {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}

	switch t := raw["roles"].(type) {
	case []any:
		for _, v := range t {
			add(v)
		}
	case string:
		for _, r := range strings.Fields(strings.ReplaceAll(t, ",", " ")) {
			add(r)
		}
	}
	add(raw["role"])
	return out
}

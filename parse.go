package did

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// did:method:identifier[/path][?query][#fragment]
var didURLRegex = regexp.MustCompile(`^did:([a-z][a-z0-9]*):([^/?#]+)(?:/([^?#]*))?(?:\?([^#]*))?(?:#(.*))?$`)

// Components is a DID URL split into its parts. Empty strings and a nil
// Query mean the part is absent.
type Components struct {
	Method     string            `json:"method"`
	Identifier string            `json:"identifier"`
	Path       string            `json:"path,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
	Fragment   string            `json:"fragment,omitempty"`
}

type ParseResult struct {
	DID        string      `json:"did"`
	Components *Components `json:"components,omitempty"`
	IsValid    bool        `json:"isValid"`
	Error      string      `json:"error,omitempty"`
}

// ParseDID splits a DID URL into its components. It never fails; malformed
// input is reported through IsValid and Error.
func ParseDID(s string) ParseResult {
	comps, err := parseComponents(s)
	if err != nil {
		return ParseResult{DID: s, Error: err.Error()}
	}

	return ParseResult{
		DID:        s,
		Components: comps,
		IsValid:    true,
	}
}

func parseComponents(s string) (*Components, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, newError(CodeInvalidDID, "Empty DID string is invalid")
	}

	m := didURLRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, newError(CodeInvalidDID, "Invalid DID format. Expected: did:method:identifier[/path][?query][#fragment]")
	}

	if m[1] == "" || m[2] == "" {
		return nil, newError(CodeInvalidDID, "DID method and identifier cannot be empty")
	}

	query, err := parseQuery(m[4])
	if err != nil {
		return nil, err
	}

	return &Components{
		Method:     m[1],
		Identifier: m[2],
		Path:       m[3],
		Query:      query,
		Fragment:   m[5],
	}, nil
}

// parseQuery splits on '&' and the first '=' of each pair. A later duplicate
// key overwrites an earlier one.
func parseQuery(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}

	var out map[string]string
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}

		k, v, _ := strings.Cut(pair, "=")
		key, err := url.PathUnescape(k)
		if err != nil {
			return nil, wrapError(CodeInvalidDID, err, "Invalid DID format: malformed query key %q", k)
		}
		if key == "" {
			continue
		}
		val, err := url.PathUnescape(v)
		if err != nil {
			return nil, wrapError(CodeInvalidDID, err, "Invalid DID format: malformed query value %q", v)
		}

		if out == nil {
			out = make(map[string]string)
		}
		out[key] = val
	}

	return out, nil
}

// CreateDIDURL serializes components back into a DID URL. Query keys are
// written in sorted order.
func CreateDIDURL(c Components) string {
	var sb strings.Builder
	sb.WriteString("did:")
	sb.WriteString(c.Method)
	sb.WriteByte(':')
	sb.WriteString(c.Identifier)

	if c.Path != "" {
		sb.WriteByte('/')
		sb.WriteString(c.Path)
	}

	if len(c.Query) > 0 {
		keys := make([]string, 0, len(c.Query))
		for k := range c.Query {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(escapeQueryComponent(k))
			sb.WriteByte('=')
			sb.WriteString(escapeQueryComponent(c.Query[k]))
		}
	}

	if c.Fragment != "" {
		sb.WriteByte('#')
		sb.WriteString(c.Fragment)
	}

	return sb.String()
}

// spaces go out as %20 rather than '+', parseQuery decodes with path
// semantics.
func escapeQueryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// NormalizeDID reparses and reserializes a DID URL.
func NormalizeDID(s string) (string, error) {
	comps, err := parseComponents(s)
	if err != nil {
		return "", wrapError(CodeInvalidDID, err, "Cannot normalize invalid DID")
	}
	return CreateDIDURL(*comps), nil
}

func ExtractMethod(s string) (string, bool) {
	res := ParseDID(s)
	if !res.IsValid {
		return "", false
	}
	return res.Components.Method, true
}

func ExtractIdentifier(s string) (string, bool) {
	res := ParseDID(s)
	if !res.IsValid {
		return "", false
	}
	return res.Components.Identifier, true
}

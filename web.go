package did

import (
	"net/url"
	"strings"
)

const maxDomainLen = 253

// CreateDIDWeb builds a did:web DID for domain. An optional path is appended
// with '/' separators turned into ':', and a port colon in the domain is
// percent-encoded.
func CreateDIDWeb(domain string, path ...string) (string, error) {
	if err := checkWebDomain(domain); err != nil {
		return "", err
	}

	d := "did:web:" + strings.ReplaceAll(domain, ":", "%3A")
	if len(path) > 0 {
		p := strings.Trim(strings.Join(path, "/"), "/")
		if p != "" {
			d += ":" + strings.ReplaceAll(p, "/", ":")
		}
	}

	if res := ValidateDID(d); !res.IsValid {
		return "", newError(CodeInternal, "Generated DID failed validation: %s", res.Error)
	}

	return d, nil
}

func checkWebDomain(domain string) error {
	switch {
	case strings.TrimSpace(domain) == "":
		return newError(CodeInvalidDomain, "Domain must be a non-empty string")
	case len(domain) > maxDomainLen:
		return newError(CodeInvalidDomain, "Domain name too long (max %d characters)", maxDomainLen)
	case strings.Contains(domain, "://"):
		return newError(CodeInvalidDomain, "Domain should not include protocol (use example.com, not https://example.com)")
	case !strings.Contains(domain, "."):
		return newError(CodeInvalidDomain, "Invalid domain format: %s", domain)
	}
	return nil
}

// WebDocumentURL returns the HTTPS location of a did:web document:
//
//	did:web:example.com               -> https://example.com/.well-known/did.json
//	did:web:example.com:user:alice    -> https://example.com/user/alice/did.json
//	did:web:example.com%3A3000        -> https://example.com:3000/.well-known/did.json
func WebDocumentURL(did string) (string, error) {
	res := ValidateDID(did)
	if !res.IsValid {
		return "", newError(CodeInvalidDID, "Invalid DID: %s", res.Error)
	}

	pr := ParseDID(did)
	if pr.Components.Method != "web" {
		return "", newError(CodeUnsupportedMethod, "Expected did:web, got did:%s", pr.Components.Method)
	}

	segs := strings.Split(pr.Components.Identifier, ":")
	host, err := url.PathUnescape(segs[0])
	if err != nil {
		return "", wrapError(CodeInvalidDomain, err, "Invalid did:web domain encoding")
	}

	u := url.URL{Scheme: "https", Host: host}
	if len(segs) == 1 {
		u.Path = "/.well-known/did.json"
		return u.String(), nil
	}

	parts := make([]string, 0, len(segs))
	for _, s := range segs[1:] {
		p, err := url.PathUnescape(s)
		if err != nil {
			return "", wrapError(CodeInvalidDID, err, "Invalid did:web path encoding")
		}
		parts = append(parts, p)
	}
	u.Path = "/" + strings.Join(parts, "/") + "/did.json"

	return u.String(), nil
}

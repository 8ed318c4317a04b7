package did

import "strings"

// Options selects a DID method and carries its inputs. PublicKey and KeyType
// are used by "key", Domain and Path by "web".
type Options struct {
	Method    string `json:"method"`
	PublicKey string `json:"publicKey,omitempty"`
	KeyType   string `json:"keyType,omitempty"`
	Domain    string `json:"domain,omitempty"`
	Path      string `json:"path,omitempty"`
}

func CreateDID(opts Options) (string, error) {
	switch opts.Method {
	case "key":
		if opts.PublicKey == "" || opts.KeyType == "" {
			return "", newError(CodeInvalidFormat, "publicKey and keyType are required for did:key")
		}
		return CreateDIDKey(opts.PublicKey, opts.KeyType)
	case "web":
		if strings.TrimSpace(opts.Domain) == "" {
			return "", newError(CodeInvalidDomain, "domain is required for did:web")
		}
		if opts.Path == "" {
			return CreateDIDWeb(opts.Domain)
		}
		return CreateDIDWeb(opts.Domain, opts.Path)
	default:
		return "", newError(CodeUnsupportedMethod, "Unsupported DID method: %s", opts.Method)
	}
}

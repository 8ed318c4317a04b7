package did

import (
	"fmt"
	"strings"
)

type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

const (
	minKeyIdentifierLen = 10

	// characters never produced by base58btc multibase encoding
	keyIdentifierForbidden = " !@#$%^&*()+=[]{}|\\:\"'<>?,."
)

// ValidateDID parses s and applies the method-specific rules for did:key
// and did:web. Other methods pass with a warning.
func ValidateDID(s string) ValidationResult {
	comps, err := parseComponents(s)
	if err != nil {
		return ValidationResult{Error: err.Error()}
	}

	switch comps.Method {
	case "key":
		if !validKeyIdentifier(comps.Identifier) {
			return ValidationResult{Error: "Invalid did:key identifier format"}
		}
	case "web":
		if !strings.Contains(comps.Identifier, ".") {
			return ValidationResult{Error: "did:web identifier must be a valid domain name"}
		}
	default:
		return ValidationResult{
			IsValid:  true,
			Warnings: []string{fmt.Sprintf("Method '%s' is not officially supported", comps.Method)},
		}
	}

	return ValidationResult{IsValid: true}
}

func validKeyIdentifier(id string) bool {
	if id == "" || strings.ContainsAny(id, keyIdentifierForbidden) {
		return false
	}
	return strings.HasPrefix(id, "z") && len(id) >= minKeyIdentifierLen
}

func IsDID(s string) bool {
	return ValidateDID(s).IsValid
}

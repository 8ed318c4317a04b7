package did

import (
	"fmt"
	"strings"
)

// KeyType is a canonical multicodec public key name.
type KeyType string

const (
	KeyTypeEd25519   KeyType = "ed25519-pub"
	KeyTypeSecp256k1 KeyType = "secp256k1-pub"
	KeyTypeX25519    KeyType = "x25519-pub"
)

// multicodec table codes, see https://github.com/multiformats/multicodec/blob/master/table.csv
const (
	MCed25519   = 0xed
	MCSecp256k1 = 0xe7
	MCx25519    = 0xec
)

type keyTypeInfo struct {
	code    uint64
	lengths [2]int
}

// lengths holds up to two permitted sizes; a zero second entry means one.
var keyTypes = map[KeyType]keyTypeInfo{
	KeyTypeEd25519:   {code: MCed25519, lengths: [2]int{32}},
	KeyTypeSecp256k1: {code: MCSecp256k1, lengths: [2]int{33, 65}},
	KeyTypeX25519:    {code: MCx25519, lengths: [2]int{32}},
}

var legacyKeyTypes = map[string]KeyType{
	"Ed25519":   KeyTypeEd25519,
	"secp256k1": KeyTypeSecp256k1,
	"X25519":    KeyTypeX25519,
}

// ParseKeyType resolves a key type tag, mapping the legacy names
// (Ed25519, secp256k1, X25519) onto their canonical form.
func ParseKeyType(s string) (KeyType, error) {
	if kt, ok := legacyKeyTypes[s]; ok {
		return kt, nil
	}
	kt := KeyType(s)
	if _, ok := keyTypes[kt]; !ok {
		return "", newError(CodeUnsupportedKeyType, "Unsupported key type: %s", s)
	}
	return kt, nil
}

func keyTypeFromCode(code uint64) (KeyType, bool) {
	for kt, info := range keyTypes {
		if info.code == code {
			return kt, true
		}
	}
	return "", false
}

func (kt KeyType) String() string {
	return string(kt)
}

func (kt KeyType) Valid() bool {
	_, ok := keyTypes[kt]
	return ok
}

// Multicodec returns the multicodec code for the key type, or 0 if unknown.
func (kt KeyType) Multicodec() uint64 {
	return keyTypes[kt].code
}

// KeyLengths returns the permitted raw public key sizes in bytes.
func (kt KeyType) KeyLengths() []int {
	info, ok := keyTypes[kt]
	if !ok {
		return nil
	}
	out := []int{info.lengths[0]}
	if info.lengths[1] != 0 {
		out = append(out, info.lengths[1])
	}
	return out
}

func (kt KeyType) checkLength(n int) error {
	lengths := kt.KeyLengths()
	for _, l := range lengths {
		if n == l {
			return nil
		}
	}

	expected := make([]string, len(lengths))
	for i, l := range lengths {
		expected[i] = fmt.Sprint(l)
	}
	return newError(CodeInvalidKeyLength,
		"Invalid key length for %s: expected %s bytes, got %d", kt, strings.Join(expected, " or "), n)
}

package did

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ed25519"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lestrrat-go/jwx/v2/x25519"
)

// PubKeyFromPublicKey wraps a typed Go public key. secp256k1 keys are stored
// in compressed form.
func PubKeyFromPublicKey(k crypto.PublicKey) (*PubKey, error) {
	switch k := k.(type) {
	case ed25519.PublicKey:
		return NewPubKey(KeyTypeEd25519, []byte(k))
	case *secp256k1.PublicKey:
		return NewPubKey(KeyTypeSecp256k1, k.SerializeCompressed())
	case x25519.PublicKey:
		return NewPubKey(KeyTypeX25519, []byte(k))
	case *ecdh.PublicKey:
		if k.Curve() != ecdh.X25519() {
			return nil, newError(CodeUnsupportedKeyType, "unsupported ecdh curve: %s", k.Curve())
		}
		return NewPubKey(KeyTypeX25519, k.Bytes())
	default:
		return nil, newError(CodeUnsupportedKeyType, "unrecognized key type: %T", k)
	}
}

func DIDKeyFromPublicKey(k crypto.PublicKey) (string, error) {
	pk, err := PubKeyFromPublicKey(k)
	if err != nil {
		return "", err
	}
	return pk.DID(), nil
}

// ToPublicKey converts back to the Go key type for the key's curve.
func (k *PubKey) ToPublicKey() (crypto.PublicKey, error) {
	switch k.Type {
	case KeyTypeEd25519:
		return ed25519.PublicKey(k.Raw), nil
	case KeyTypeSecp256k1:
		return secp256k1.ParsePubKey(k.Raw)
	case KeyTypeX25519:
		return ecdh.X25519().NewPublicKey(k.Raw)
	default:
		return nil, fmt.Errorf("unsupported key type: %q", k.Type)
	}
}

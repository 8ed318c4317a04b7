package did

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"
)

// Verification method types.
const (
	VMTypeEd25519_2018   = "Ed25519VerificationKey2018"
	VMTypeEd25519        = "Ed25519VerificationKey2020"
	VMTypeSecp256k1      = "EcdsaSecp256k1VerificationKey2019"
	VMTypeX25519_2019    = "X25519KeyAgreementKey2019"
	VMTypeX25519         = "X25519KeyAgreementKey2020"
	VMTypeMultikey       = "Multikey"
	VMTypeJsonWebKey2020 = "JsonWebKey2020"
)

const didKeyPrefix = "did:key:"

func varEncode(pref uint64, body []byte) []byte {
	buf := make([]byte, varint.MaxLenUvarint63+len(body))
	n := varint.PutUvarint(buf, pref)
	copy(buf[n:], body)
	buf = buf[:n+len(body)]

	return buf
}

// MulticodecPrefix returns the unsigned varint encoding of the key type's
// multicodec code, e.g. [0xed, 0x01] for ed25519-pub.
func MulticodecPrefix(kt KeyType) []byte {
	if !kt.Valid() {
		return nil
	}
	return varint.ToUvarint(kt.Multicodec())
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	for _, c := range s {
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return nil, newError(CodeInvalidFormat, "Invalid hexadecimal format")
		}
	}
	if len(s)%2 != 0 {
		return nil, newError(CodeInvalidFormat, "Invalid hexadecimal format: odd length")
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, wrapError(CodeInvalidFormat, err, "Invalid hexadecimal format")
	}
	return b, nil
}

// CreateDIDKey builds a did:key DID from a hex encoded public key (optionally
// 0x prefixed) and a key type tag.
func CreateDIDKey(publicKeyHex string, keyType string) (string, error) {
	kt, err := ParseKeyType(keyType)
	if err != nil {
		return "", err
	}

	raw, err := decodeHex(publicKeyHex)
	if err != nil {
		return "", err
	}

	pk, err := NewPubKey(kt, raw)
	if err != nil {
		return "", err
	}

	d := pk.DID()
	if res := ValidateDID(d); !res.IsValid {
		return "", newError(CodeInternal, "Generated DID failed validation: %s", res.Error)
	}

	return d, nil
}

type PubKey struct {
	Type KeyType
	Raw  []byte
}

// NewPubKey checks raw against the permitted sizes for kt.
func NewPubKey(kt KeyType, raw []byte) (*PubKey, error) {
	if !kt.Valid() {
		return nil, newError(CodeUnsupportedKeyType, "Unsupported key type: %s", kt)
	}
	if err := kt.checkLength(len(raw)); err != nil {
		return nil, err
	}

	return &PubKey{
		Type: kt,
		Raw:  raw,
	}, nil
}

func (k *PubKey) DID() string {
	return didKeyPrefix + k.MultibaseString()
}

func (k *PubKey) MultibaseString() string {
	if !k.Type.Valid() {
		return "<invalid key type>"
	}

	buf := varEncode(k.Type.Multicodec(), k.Raw)

	kstr, err := multibase.Encode(multibase.Base58BTC, buf)
	if err != nil {
		panic(err)
	}
	return kstr
}

func (k *PubKey) Equal(o *PubKey) bool {
	if o == nil {
		return false
	}
	return k.Type == o.Type && string(k.Raw) == string(o.Raw)
}

// Verify checks sig over msg. ed25519 signatures cover msg directly,
// secp256k1 signatures (64 byte r||s or DER) cover its SHA-256 digest.
func (k *PubKey) Verify(msg, sig []byte) error {
	if err := k.Type.checkLength(len(k.Raw)); err != nil {
		return err
	}

	switch k.Type {
	case KeyTypeEd25519:
		if !ed25519.Verify(ed25519.PublicKey(k.Raw), msg, sig) {
			return ErrInvalidSignature
		}

		return nil
	case KeyTypeSecp256k1:
		pubk, err := secp256k1.ParsePubKey(k.Raw)
		if err != nil {
			return fmt.Errorf("parsing secp256k1 key: %w", err)
		}

		s, err := parseSecp256k1Sig(sig)
		if err != nil {
			return err
		}

		h := sha256.Sum256(msg)
		if !s.Verify(h[:], pubk) {
			return ErrInvalidSignature
		}
		return nil
	case KeyTypeX25519:
		return fmt.Errorf("x25519 keys are for key agreement and cannot verify signatures")
	default:
		return fmt.Errorf("unsupported key type: %q", k.Type)
	}
}

func parseSecp256k1Sig(buf []byte) (*secpecdsa.Signature, error) {
	if len(buf) != 64 {
		sig, err := secpecdsa.ParseDERSignature(buf)
		if err != nil {
			return nil, fmt.Errorf("secp256k1 signatures must be 64 bytes or DER: %w", err)
		}
		return sig, nil
	}

	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(buf[:32]) || s.SetByteSlice(buf[32:]) {
		return nil, fmt.Errorf("secp256k1 signature scalar overflows the group order")
	}

	return secpecdsa.NewSignature(&r, &s), nil
}

func KeyFromMultibase(mbstr string) (*PubKey, error) {
	_, data, err := multibase.Decode(mbstr)
	if err != nil {
		return nil, wrapError(CodeInvalidFormat, err, "Invalid multibase key")
	}

	val, n, err := varint.FromUvarint(data)
	if err != nil {
		return nil, wrapError(CodeInvalidFormat, err, "Invalid multicodec prefix")
	}

	kt, ok := keyTypeFromCode(val)
	if !ok {
		return nil, newError(CodeUnsupportedKeyType, "Unrecognized key multicodec: 0x%x", val)
	}

	return NewPubKey(kt, data[n:])
}

// PubKeyFromDIDKey recovers the public key embedded in a did:key DID. Any
// path, query or fragment on the DID URL is ignored.
func PubKeyFromDIDKey(did string) (*PubKey, error) {
	res := ValidateDID(did)
	if !res.IsValid {
		return nil, newError(CodeInvalidDID, "Invalid DID: %s", res.Error)
	}

	pr := ParseDID(did)
	if pr.Components.Method != "key" {
		return nil, newError(CodeUnsupportedMethod, "Expected did:key, got did:%s", pr.Components.Method)
	}

	return KeyFromMultibase(pr.Components.Identifier)
}

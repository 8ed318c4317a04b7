package did

import (
	"crypto/sha256"
	"fmt"
)

const (
	TEd25519   = "ed25519"
	TSecp256k1 = "secp256k1"
)

type Signature struct {
	Bytes []byte `json:"bytes"`
	Type  string `json:"type"`
}

// SignedDocument pairs a document with a detached signature over the SHA-256
// digest of its serialization.
type SignedDocument struct {
	Signature *Signature `json:"signature"`
	Document  *Document  `json:"document"`
}

// SigningDigest is the message a controller signs for doc.
func SigningDigest(doc *Document) ([]byte, error) {
	b, err := doc.Serialize()
	if err != nil {
		return nil, err
	}

	h := sha256.Sum256(b)
	return h[:], nil
}

// VerifyDocumentSignature checks sd against the did:key that controls the
// document (its controller, or its id when no controller is set).
func VerifyDocumentSignature(sd *SignedDocument) error {
	if sd.Document == nil || sd.Signature == nil {
		return fmt.Errorf("signed document requires both a document and a signature")
	}

	signer := sd.Document.ID
	if sd.Document.Controller != nil {
		signer = *sd.Document.Controller
	}

	pubk, err := PubKeyFromDIDKey(signer.String())
	if err != nil {
		return fmt.Errorf("resolving signer %s: %w", signer, err)
	}

	if want := signatureType(pubk.Type); want != sd.Signature.Type {
		return fmt.Errorf("signature type %q does not match signer key type %s", sd.Signature.Type, pubk.Type)
	}

	h, err := SigningDigest(sd.Document)
	if err != nil {
		return err
	}

	return pubk.Verify(h, sd.Signature.Bytes)
}

func signatureType(kt KeyType) string {
	switch kt {
	case KeyTypeEd25519:
		return TEd25519
	case KeyTypeSecp256k1:
		return TSecp256k1
	default:
		return ""
	}
}

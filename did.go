package did

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/x25519"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"
)

const (
	CtxDIDv1               = "https://www.w3.org/ns/did/v1"
	CtxSecEd25519_2020v1   = "https://w3id.org/security/suites/ed25519-2020/v1"
	CtxSecX25519_2020v1    = "https://w3id.org/security/suites/x25519-2020/v1"
	CtxSecSecp256k1_2019v1 = "https://w3id.org/security/suites/secp256k1-2019/v1"
	CtxSecJWS2020v1        = "https://w3id.org/security/suites/jws-2020/v1"
	CtxSecMultikeyv1       = "https://w3id.org/security/multikey/v1"
)

// DID is a validated DID without path, query or fragment.
type DID struct {
	val string
}

func NewDID(s string) (DID, error) {
	comps, err := parseComponents(s)
	if err != nil {
		return DID{}, err
	}
	if comps.Path != "" || comps.Query != nil || comps.Fragment != "" {
		return DID{}, newError(CodeInvalidDID, "DID must not contain a path, query or fragment: %s", s)
	}

	v := CreateDIDURL(*comps)
	if res := ValidateDID(v); !res.IsValid {
		return DID{}, newError(CodeInvalidDID, "%s", res.Error)
	}

	return DID{val: v}, nil
}

func (d DID) String() string {
	return d.val
}

func (d DID) IsZero() bool {
	return d.val == ""
}

func (d DID) Method() string {
	m, _ := ExtractMethod(d.val)
	return m
}

func (d DID) Identifier() string {
	id, _ := ExtractIdentifier(d.val)
	return id
}

func (d DID) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.val)
}

func (d *DID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	nd, err := NewDID(s)
	if err != nil {
		return err
	}
	*d = nd
	return nil
}

type Document struct {
	Context []string `json:"@context"`

	ID DID `json:"id"`

	Controller *DID `json:"controller,omitempty"`

	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`

	Authentication       []Verification `json:"authentication,omitempty"`
	AssertionMethod      []Verification `json:"assertionMethod,omitempty"`
	KeyAgreement         []Verification `json:"keyAgreement,omitempty"`
	CapabilityInvocation []Verification `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []Verification `json:"capabilityDelegation,omitempty"`

	Service []Service `json:"service,omitempty"`
}

// TODO: this needs to be a 'canonical' serialization
func (d *Document) Serialize() ([]byte, error) {
	return json.Marshal(d)
}

// absID resolves a fragment-only reference ("#key-1") against the document id.
func (d *Document) absID(id string) string {
	if strings.HasPrefix(id, "#") {
		return d.ID.String() + id
	}
	return id
}

type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

type VerificationMethod struct {
	ID                 string        `json:"id"`
	Type               string        `json:"type"`
	Controller         string        `json:"controller"`
	PublicKeyJwk       *PublicKeyJwk `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase *string       `json:"publicKeyMultibase,omitempty"`
	PublicKeyBase58    *string       `json:"publicKeyBase58,omitempty"`
}

// Verification is a verification relationship entry: either a reference to a
// verification method id or an embedded method.
type Verification struct {
	Ref      string
	Embedded *VerificationMethod
}

func Ref(id string) Verification {
	return Verification{Ref: id}
}

func (v Verification) MarshalJSON() ([]byte, error) {
	if v.Embedded != nil {
		return json.Marshal(v.Embedded)
	}
	return json.Marshal(v.Ref)
}

func (v *Verification) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &v.Ref)
	}

	var vm VerificationMethod
	if err := json.Unmarshal(b, &vm); err != nil {
		return err
	}
	v.Embedded = &vm
	return nil
}

// NewVerificationMethod describes pk as a method "<controller>#<fragment>".
// The key encoding follows vmType: base58 for the 2018/2019 suites, a JWK for
// JsonWebKey2020 and a multicodec multibase string otherwise.
func NewVerificationMethod(controller DID, fragment, vmType string, pk *PubKey) (*VerificationMethod, error) {
	if controller.IsZero() {
		return nil, newError(CodeInvalidDID, "verification method controller is required")
	}
	if err := checkVMKeyType(vmType, pk.Type); err != nil {
		return nil, err
	}

	vm := &VerificationMethod{
		ID:         controller.String() + "#" + strings.TrimPrefix(fragment, "#"),
		Type:       vmType,
		Controller: controller.String(),
	}

	switch vmType {
	case VMTypeEd25519_2018, VMTypeX25519_2019:
		s := base58.Encode(pk.Raw)
		vm.PublicKeyBase58 = &s
	case VMTypeJsonWebKey2020:
		j, err := NewPublicKeyJwk(pk)
		if err != nil {
			return nil, err
		}
		vm.PublicKeyJwk = j
	default:
		s := pk.MultibaseString()
		vm.PublicKeyMultibase = &s
	}

	return vm, nil
}

func checkVMKeyType(vmType string, kt KeyType) error {
	var ok bool
	switch vmType {
	case VMTypeEd25519_2018, VMTypeEd25519:
		ok = kt == KeyTypeEd25519
	case VMTypeX25519_2019, VMTypeX25519:
		ok = kt == KeyTypeX25519
	case VMTypeSecp256k1:
		ok = kt == KeyTypeSecp256k1
	case VMTypeMultikey, VMTypeJsonWebKey2020:
		ok = kt.Valid()
	default:
		return newError(CodeInvalidDocument, "unsupported verification method type: %s", vmType)
	}

	if !ok {
		return newError(CodeUnsupportedKeyType, "key type %s cannot be used with %s", kt, vmType)
	}
	return nil
}

func (vm VerificationMethod) GetPublicKey() (*PubKey, error) {
	if vm.PublicKeyJwk != nil {
		k, err := vm.PublicKeyJwk.GetRawKey()
		if err != nil {
			return nil, err
		}

		switch k := k.(type) {
		case ed25519.PublicKey:
			return NewPubKey(KeyTypeEd25519, []byte(k))
		case x25519.PublicKey:
			return NewPubKey(KeyTypeX25519, []byte(k))
		default:
			return nil, fmt.Errorf("unsupported jwk key type: %T", k)
		}
	}

	if vm.PublicKeyMultibase != nil {
		pk, err := KeyFromMultibase(*vm.PublicKeyMultibase)
		if err == nil {
			return pk, nil
		}
		if vm.Type != VMTypeSecp256k1 {
			return nil, err
		}

		// older secp256k1 documents carry the bare point without a multicodec
		_, data, derr := multibase.Decode(*vm.PublicKeyMultibase)
		if derr != nil {
			return nil, err
		}
		return NewPubKey(KeyTypeSecp256k1, data)
	}

	if vm.PublicKeyBase58 != nil {
		raw, err := base58.Decode(*vm.PublicKeyBase58)
		if err != nil {
			return nil, wrapError(CodeInvalidFormat, err, "invalid publicKeyBase58")
		}

		switch vm.Type {
		case VMTypeEd25519_2018, VMTypeEd25519:
			return NewPubKey(KeyTypeEd25519, raw)
		case VMTypeX25519_2019, VMTypeX25519:
			return NewPubKey(KeyTypeX25519, raw)
		case VMTypeSecp256k1:
			return NewPubKey(KeyTypeSecp256k1, raw)
		default:
			return nil, fmt.Errorf("cannot infer key type of publicKeyBase58 for %q", vm.Type)
		}
	}

	return nil, fmt.Errorf("verification method %q has no public key material", vm.ID)
}

type PublicKeyJwk struct {
	Key jwk.Key
}

// NewPublicKeyJwk converts an ed25519 or x25519 key into an OKP JWK.
func NewPublicKeyJwk(pk *PubKey) (*PublicKeyJwk, error) {
	var raw any
	switch pk.Type {
	case KeyTypeEd25519:
		raw = ed25519.PublicKey(pk.Raw)
	case KeyTypeX25519:
		raw = x25519.PublicKey(pk.Raw)
	default:
		return nil, newError(CodeUnsupportedKeyType, "publicKeyJwk is not supported for %s keys", pk.Type)
	}

	k, err := jwk.FromRaw(raw)
	if err != nil {
		return nil, err
	}
	return &PublicKeyJwk{Key: k}, nil
}

func (pkj *PublicKeyJwk) UnmarshalJSON(b []byte) error {
	parsed, err := jwk.Parse(b)
	if err != nil {
		return err
	}

	if parsed.Len() != 1 {
		return fmt.Errorf("expected a single key in the jwk field")
	}

	k, ok := parsed.Key(0)
	if !ok {
		return fmt.Errorf("should be unpossible")
	}

	pkj.Key = k

	return nil
}

func (pkj *PublicKeyJwk) MarshalJSON() ([]byte, error) {
	return json.Marshal(pkj.Key)
}

func (pk *PublicKeyJwk) GetRawKey() (interface{}, error) {
	var rawkey interface{}
	if err := pk.Key.Raw(&rawkey); err != nil {
		return nil, err
	}

	return rawkey, nil
}

// GetPublicKey returns the key of the verification method named by id, which
// may be absolute or a "#fragment". An empty id selects the only method.
func (d *Document) GetPublicKey(id string) (*PubKey, error) {
	if id == "" {
		if len(d.VerificationMethod) != 1 {
			return nil, fmt.Errorf("doc has %d verification methods, an id is required", len(d.VerificationMethod))
		}
		return d.VerificationMethod[0].GetPublicKey()
	}

	want := d.absID(id)
	for _, vm := range d.VerificationMethod {
		if d.absID(vm.ID) == want {
			return vm.GetPublicKey()
		}
	}

	return nil, fmt.Errorf("verification method %q not found", id)
}

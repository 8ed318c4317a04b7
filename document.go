package did

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

type DocumentOptions struct {
	// Controller defaults to the document's own DID.
	Controller string `json:"controller,omitempty"`
	// Context entries are appended after the DID core context.
	Context []string `json:"@context,omitempty"`

	VerificationMethod   []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication       []Verification       `json:"authentication,omitempty"`
	AssertionMethod      []Verification       `json:"assertionMethod,omitempty"`
	KeyAgreement         []Verification       `json:"keyAgreement,omitempty"`
	CapabilityInvocation []Verification       `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []Verification       `json:"capabilityDelegation,omitempty"`

	// Service ids that are a bare "#fragment" are made absolute.
	Service []Service `json:"service,omitempty"`
}

func CreateDIDDocument(did string, opts DocumentOptions) (*Document, error) {
	id, err := NewDID(did)
	if err != nil {
		return nil, wrapError(CodeInvalidDID, err, "Invalid DID")
	}

	ctrl := id
	if opts.Controller != "" {
		ctrl, err = NewDID(opts.Controller)
		if err != nil {
			return nil, wrapError(CodeInvalidDID, err, "Invalid controller")
		}
	}

	doc := &Document{
		Context:              appendContexts([]string{CtxDIDv1}, opts.Context...),
		ID:                   id,
		Controller:           &ctrl,
		VerificationMethod:   opts.VerificationMethod,
		Authentication:       opts.Authentication,
		AssertionMethod:      opts.AssertionMethod,
		KeyAgreement:         opts.KeyAgreement,
		CapabilityInvocation: opts.CapabilityInvocation,
		CapabilityDelegation: opts.CapabilityDelegation,
	}

	for _, svc := range opts.Service {
		svc.ID = doc.absID(svc.ID)
		doc.Service = append(doc.Service, svc)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

func appendContexts(base []string, extra ...string) []string {
	out := base
	for _, c := range extra {
		dup := false
		for _, have := range out {
			if have == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// ExpandDIDKey produces the document a did:key DID stands for. It needs no
// registry: the single verification method is decoded from the identifier.
func ExpandDIDKey(did string) (*Document, error) {
	pk, err := PubKeyFromDIDKey(did)
	if err != nil {
		return nil, err
	}

	id, _ := ExtractIdentifier(did)
	base, err := NewDID(didKeyPrefix + id)
	if err != nil {
		return nil, wrapError(CodeInternal, err, "did:key expansion")
	}

	var vmType, suite string
	switch pk.Type {
	case KeyTypeEd25519:
		vmType, suite = VMTypeEd25519, CtxSecEd25519_2020v1
	case KeyTypeSecp256k1:
		vmType, suite = VMTypeSecp256k1, CtxSecSecp256k1_2019v1
	case KeyTypeX25519:
		vmType, suite = VMTypeX25519, CtxSecX25519_2020v1
	}

	vm, err := NewVerificationMethod(base, id, vmType, pk)
	if err != nil {
		return nil, err
	}

	opts := DocumentOptions{
		Context:            []string{suite},
		VerificationMethod: []VerificationMethod{*vm},
	}

	refs := []Verification{Ref(vm.ID)}
	if pk.Type == KeyTypeX25519 {
		opts.KeyAgreement = refs
	} else {
		opts.Authentication = refs
		opts.AssertionMethod = refs
		opts.CapabilityInvocation = refs
		opts.CapabilityDelegation = refs
	}

	return CreateDIDDocument(base.String(), opts)
}

// Validate reports every structural problem in the document at once.
func (d *Document) Validate() error {
	var errs error

	if d.ID.IsZero() {
		errs = multierr.Append(errs, fmt.Errorf("document id is required"))
	}
	if d.Controller != nil && d.Controller.IsZero() {
		errs = multierr.Append(errs, fmt.Errorf("controller is empty"))
	}

	seen := make(map[string]bool)
	for i := range d.VerificationMethod {
		vm := &d.VerificationMethod[i]
		errs = multierr.Append(errs, d.validateMethod(vm))

		abs := d.absID(vm.ID)
		if seen[abs] {
			errs = multierr.Append(errs, fmt.Errorf("duplicate verification method id %q", vm.ID))
		}
		seen[abs] = true
	}

	rels := []struct {
		name string
		vs   []Verification
	}{
		{"authentication", d.Authentication},
		{"assertionMethod", d.AssertionMethod},
		{"keyAgreement", d.KeyAgreement},
		{"capabilityInvocation", d.CapabilityInvocation},
		{"capabilityDelegation", d.CapabilityDelegation},
	}
	for _, rel := range rels {
		for _, v := range rel.vs {
			if v.Embedded != nil {
				seen[d.absID(v.Embedded.ID)] = true
			}
		}
	}
	for _, rel := range rels {
		for _, v := range rel.vs {
			switch {
			case v.Embedded != nil:
				errs = multierr.Append(errs, d.validateMethod(v.Embedded))
			case v.Ref == "":
				errs = multierr.Append(errs, fmt.Errorf("%s: empty reference", rel.name))
			case strings.HasPrefix(v.Ref, "#") || strings.HasPrefix(v.Ref, d.ID.String()+"#"):
				// local references must name a method in this document
				if !seen[d.absID(v.Ref)] {
					errs = multierr.Append(errs, fmt.Errorf("%s: reference %q does not match any verification method", rel.name, v.Ref))
				}
			default:
				if !ParseDID(v.Ref).IsValid {
					errs = multierr.Append(errs, fmt.Errorf("%s: reference %q is not a DID URL", rel.name, v.Ref))
				}
			}
		}
	}

	svcIDs := make(map[string]bool)
	for _, svc := range d.Service {
		switch {
		case svc.ID == "":
			errs = multierr.Append(errs, fmt.Errorf("service id is required"))
		case svcIDs[svc.ID]:
			errs = multierr.Append(errs, fmt.Errorf("duplicate service id %q", svc.ID))
		}
		svcIDs[svc.ID] = true

		if svc.Type == "" {
			errs = multierr.Append(errs, fmt.Errorf("service %q: type is required", svc.ID))
		}
		if svc.ServiceEndpoint == "" {
			errs = multierr.Append(errs, fmt.Errorf("service %q: serviceEndpoint is required", svc.ID))
		}
	}

	if errs != nil {
		return wrapError(CodeInvalidDocument, errs, "Invalid DID document")
	}
	return nil
}

func (d *Document) validateMethod(vm *VerificationMethod) error {
	var errs error

	if vm.ID == "" {
		errs = multierr.Append(errs, fmt.Errorf("verification method id is required"))
	} else if !strings.HasPrefix(vm.ID, "#") && !ParseDID(vm.ID).IsValid {
		errs = multierr.Append(errs, fmt.Errorf("verification method id %q is not a DID URL", vm.ID))
	}
	if vm.Type == "" {
		errs = multierr.Append(errs, fmt.Errorf("verification method %q: type is required", vm.ID))
	}
	if !IsDID(vm.Controller) {
		errs = multierr.Append(errs, fmt.Errorf("verification method %q: invalid controller %q", vm.ID, vm.Controller))
	}
	if vm.PublicKeyJwk == nil && vm.PublicKeyMultibase == nil && vm.PublicKeyBase58 == nil {
		errs = multierr.Append(errs, fmt.Errorf("verification method %q: no public key material", vm.ID))
	}

	return errs
}

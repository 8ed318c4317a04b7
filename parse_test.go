package did

import (
	"reflect"
	"strings"
	"testing"
)

var grammarInputs = []string{
	testEd25519DID,
	testEd25519DID + "#z6MktwupdmLXVVqTzCw4i46r4uGyosGXRnR3XjN4Zq7oMMsw",
	"did:web:example.com",
	"did:web:example.com:user:alice",
	"did:web:example.com%3A3000",
	"did:web:example.com/path?service=agent&version=1.0#keys-1",
	"did:web:example.com?a=1&a=2",
	"did:web:example.com?b=2&a=1",
	"did:web:example.com?flag",
	"did:web:example.com?name=hello%20world&sym=a%26b%3Dc",
	"did:web:example.com?plus=a+b",
	"did:web:example.com/",
	"did:web:example.com?",
	"did:web:example.com#",
	"did:web:example.com#frag#ment",
	"did:ethr:0x123",
	"did:plc:abc123/some/deep/path",
	"  did:key:z6MktwupdmLXVVqTzCw4i46r4uGyosGXRnR3XjN4Zq7oMMsw  ",
	"did:key:invalid!characters",
	"did:web:localhost",
	"did:example:has space",
	"did:a1:x",
	"",
	"   ",
	"did:Key:abc",
	"did:1abc:x",
	"did:my-method:x",
	"did:my_method:x",
	"did:key:",
	"did::abc",
	"did:key",
	"notadid",
	"DID:key:z6Mktwupdm",
	"did:web:example.com?bad=%zz",
}

func TestParseDIDScenario(t *testing.T) {
	res := ParseDID("did:web:example.com/path?service=agent&version=1.0#keys-1")
	if !res.IsValid {
		t.Fatalf("expected valid parse: %s", res.Error)
	}

	want := &Components{
		Method:     "web",
		Identifier: "example.com",
		Path:       "path",
		Query:      map[string]string{"service": "agent", "version": "1.0"},
		Fragment:   "keys-1",
	}
	if !reflect.DeepEqual(res.Components, want) {
		t.Fatalf("components %+v, want %+v", res.Components, want)
	}
}

func TestParseDIDQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		did  string
		want map[string]string
	}{
		{"last duplicate wins", "did:web:example.com?a=1&a=2", map[string]string{"a": "2"}},
		{"bare key", "did:web:example.com?flag", map[string]string{"flag": ""}},
		{"percent decoding", "did:web:example.com?name=hello%20world", map[string]string{"name": "hello world"}},
		{"plus is literal", "did:web:example.com?plus=a+b", map[string]string{"plus": "a+b"}},
		{"first equals splits", "did:web:example.com?k=a=b", map[string]string{"k": "a=b"}},
		{"empty pairs skipped", "did:web:example.com?&a=1&&", map[string]string{"a": "1"}},
		{"empty query", "did:web:example.com?", nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := ParseDID(tc.did)
			if !res.IsValid {
				t.Fatalf("parse failed: %s", res.Error)
			}
			if !reflect.DeepEqual(res.Components.Query, tc.want) {
				t.Fatalf("query %v, want %v", res.Components.Query, tc.want)
			}
		})
	}
}

func TestParseDIDFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"empty", "", "Empty DID string is invalid"},
		{"whitespace", " \t\n", "Empty DID string is invalid"},
		{"uppercase method", "did:Key:abc", "Invalid DID format"},
		{"leading digit", "did:1abc:x", "Invalid DID format"},
		{"hyphen", "did:my-method:x", "Invalid DID format"},
		{"underscore", "did:my_method:x", "Invalid DID format"},
		{"empty identifier", "did:key:", "Invalid DID format"},
		{"empty method", "did::abc", "Invalid DID format"},
		{"no identifier", "did:key", "Invalid DID format"},
		{"not a did", "notadid", "Invalid DID format"},
		{"uppercase scheme", "DID:key:z6Mktwupdm", "Invalid DID format"},
		{"bad escape", "did:web:example.com?bad=%zz", "Invalid DID format"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := ParseDID(tc.in)
			if res.IsValid || res.Components != nil {
				t.Fatalf("expected parse failure for %q", tc.in)
			}
			if !strings.HasPrefix(res.Error, tc.msg) {
				t.Fatalf("error %q should start with %q", res.Error, tc.msg)
			}
			if res.DID != tc.in {
				t.Fatalf("result should echo its input")
			}
		})
	}
}

func TestParseDIDTrims(t *testing.T) {
	res := ParseDID("  did:web:example.com  ")
	if !res.IsValid || res.Components.Identifier != "example.com" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCreateDIDURL(t *testing.T) {
	got := CreateDIDURL(Components{
		Method:     "web",
		Identifier: "example.com",
		Path:       "a/b",
		Query:      map[string]string{"z": "last", "a": "x y", "amp": "1&2"},
		Fragment:   "keys-1",
	})

	want := "did:web:example.com/a/b?a=x%20y&amp=1%262&z=last#keys-1"
	if got != want {
		t.Fatalf("CreateDIDURL()=%q, want %q", got, want)
	}

	if got := CreateDIDURL(Components{Method: "key", Identifier: "z6Mk"}); got != "did:key:z6Mk" {
		t.Fatalf("minimal components gave %q", got)
	}
}

func TestParseRoundtrip(t *testing.T) {
	for _, in := range grammarInputs {
		first := ParseDID(in)
		if !first.IsValid {
			continue
		}

		second := ParseDID(CreateDIDURL(*first.Components))
		if !second.IsValid {
			t.Fatalf("%q: reserialized form failed to parse: %s", in, second.Error)
		}
		if !reflect.DeepEqual(first.Components, second.Components) {
			t.Fatalf("%q: components changed %+v -> %+v", in, first.Components, second.Components)
		}
	}
}

func TestNormalizeDIDIdempotent(t *testing.T) {
	for _, in := range grammarInputs {
		once, err := NormalizeDID(in)
		if err != nil {
			if ParseDID(in).IsValid {
				t.Fatalf("%q parses but does not normalize: %v", in, err)
			}
			if ErrorCode(err) != CodeInvalidDID {
				t.Fatalf("%q: unexpected error code %q", in, ErrorCode(err))
			}
			continue
		}

		twice, err := NormalizeDID(once)
		if err != nil {
			t.Fatalf("%q: normalized form %q failed: %v", in, once, err)
		}
		if once != twice {
			t.Fatalf("%q: not idempotent, %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeDID(t *testing.T) {
	tests := map[string]string{
		"  did:web:example.com  ":         "did:web:example.com",
		"did:web:example.com?b=2&a=1":     "did:web:example.com?a=1&b=2",
		"did:web:example.com?flag":        "did:web:example.com?flag=",
		"did:web:example.com/?#":          "did:web:example.com",
		"did:web:example.com?a=1&a=2#k":   "did:web:example.com?a=2#k",
		"did:web:example.com?q=hello+you": "did:web:example.com?q=hello%2Byou",
		testEd25519DID:                    testEd25519DID,
	}
	for in, want := range tests {
		got, err := NormalizeDID(in)
		if err != nil {
			t.Fatalf("NormalizeDID(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeDID(%q)=%q, want %q", in, got, want)
		}
	}

	if _, err := NormalizeDID("not a did"); err == nil || !strings.Contains(err.Error(), "Cannot normalize invalid DID") {
		t.Fatalf("expected normalize failure, got %v", err)
	}
}

func TestExtract(t *testing.T) {
	m, ok := ExtractMethod("did:web:example.com/path#frag")
	if !ok || m != "web" {
		t.Fatalf("ExtractMethod=%q,%v", m, ok)
	}

	id, ok := ExtractIdentifier("did:web:example.com/path#frag")
	if !ok || id != "example.com" {
		t.Fatalf("ExtractIdentifier=%q,%v", id, ok)
	}

	// no semantic validation beyond the grammar
	if id, ok := ExtractIdentifier("did:web:localhost"); !ok || id != "localhost" {
		t.Fatalf("ExtractIdentifier(localhost)=%q,%v", id, ok)
	}

	if _, ok := ExtractMethod("did:Key:x"); ok {
		t.Fatal("ExtractMethod accepted an invalid DID")
	}
	if _, ok := ExtractIdentifier(""); ok {
		t.Fatal("ExtractIdentifier accepted an empty string")
	}
}

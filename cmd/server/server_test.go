package main

import (
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/synetcore/go-did"
	"github.com/synetcore/go-did/cmd/server/types"
	"go.uber.org/zap"
)

const testEd25519DID = "did:key:z6MktwupdmLXVVqTzCw4i46r4uGyosGXRnR3XjN4Zq7oMMsw"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	s, err := NewServer(zap.NewNop(), 16, prometheus.NewRegistry())
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateDID(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/dids", `{"method":"key","publicKey":"d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a","keyType":"ed25519-pub"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, testEd25519DID, decode[types.CreateDIDResponse](t, rec).DID)
	require.Equal(t, 1.0, testutil.ToFloat64(s.metrics.created.WithLabelValues("key")))

	rec = do(t, s, http.MethodPost, "/v1/dids", `{"method":"web","domain":"example.com","path":"users/alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "did:web:example.com:users:alice", decode[types.CreateDIDResponse](t, rec).DID)
}

func TestCreateDIDErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		body string
		code string
	}{
		{`{"method":"plc"}`, did.CodeUnsupportedMethod},
		{`{"method":"key","publicKey":"abcd","keyType":"ed25519-pub"}`, did.CodeInvalidKeyLength},
		{`{"method":"key","publicKey":"zz","keyType":"ed25519-pub"}`, did.CodeInvalidFormat},
		{`{"method":"web","domain":"localhost"}`, did.CodeInvalidDomain},
	}

	for _, tc := range tests {
		rec := do(t, s, http.MethodPost, "/v1/dids", tc.body)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.body)

		er := decode[types.ErrorResponse](t, rec)
		require.Equal(t, tc.code, er.Code, tc.body)
		require.NotEmpty(t, er.Message)
	}

	rec := do(t, s, http.MethodPost, "/v1/dids", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParse(t *testing.T) {
	s := newTestServer(t)

	q := url.QueryEscape("did:web:example.com/path?service=agent&version=1.0#keys-1")
	rec := do(t, s, http.MethodGet, "/v1/parse?did="+q, "")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[did.ParseResult](t, rec)
	require.True(t, res.IsValid)
	require.Equal(t, "web", res.Components.Method)
	require.Equal(t, "path", res.Components.Path)
	require.Equal(t, map[string]string{"service": "agent", "version": "1.0"}, res.Components.Query)
	require.Equal(t, "keys-1", res.Components.Fragment)

	// parse failures are results, not errors
	rec = do(t, s, http.MethodGet, "/v1/parse?did=nope", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[did.ParseResult](t, rec)
	require.False(t, res.IsValid)
	require.Nil(t, res.Components)
}

func TestValidateCached(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := do(t, s, http.MethodGet, "/v1/validate?did=did:ethr:0x123", "")
		require.Equal(t, http.StatusOK, rec.Code)

		res := decode[did.ValidationResult](t, rec)
		require.True(t, res.IsValid)
		require.Equal(t, []string{"Method 'ethr' is not officially supported"}, res.Warnings)
	}
	require.Equal(t, 2.0, testutil.ToFloat64(s.metrics.cacheHits))
	require.Equal(t, 3.0, testutil.ToFloat64(s.metrics.validations.WithLabelValues("valid")))

	rec := do(t, s, http.MethodGet, "/v1/validate?did=did:web:localhost", "")
	res := decode[did.ValidationResult](t, rec)
	require.False(t, res.IsValid)
	require.Equal(t, "did:web identifier must be a valid domain name", res.Error)
}

func TestNormalize(t *testing.T) {
	s := newTestServer(t)

	q := url.QueryEscape("  did:web:example.com?b=2&a=1 ")
	rec := do(t, s, http.MethodGet, "/v1/normalize?did="+q, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "did:web:example.com?a=1&b=2", decode[types.NormalizeResponse](t, rec).DID)

	rec = do(t, s, http.MethodGet, "/v1/normalize?did=bad", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, did.CodeInvalidDID, decode[types.ErrorResponse](t, rec).Code)
}

func TestCreateDocument(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/v1/documents", `{
		"did": "did:web:example.com",
		"options": {
			"service": [{"id": "#agent", "type": "AgentService", "serviceEndpoint": "https://example.com/agent"}]
		}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := decode[did.Document](t, rec)
	require.Equal(t, "did:web:example.com", doc.ID.String())
	require.Equal(t, "did:web:example.com#agent", doc.Service[0].ID)

	rec = do(t, s, http.MethodPost, "/v1/documents", `{
		"did": "did:web:example.com",
		"options": {
			"authentication": ["#missing"],
			"service": [{"id": "#a", "type": "", "serviceEndpoint": ""}]
		}
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	er := decode[types.ErrorResponse](t, rec)
	require.Equal(t, did.CodeInvalidDocument, er.Code)
	require.Len(t, er.Details, 3)
}

func TestExpandKey(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/v1/documents/key?did="+testEd25519DID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := decode[did.Document](t, rec)
	require.Len(t, doc.VerificationMethod, 1)
	require.Equal(t, did.VMTypeEd25519, doc.VerificationMethod[0].Type)

	rec = do(t, s, http.MethodGet, "/v1/documents/key?did=did:web:example.com", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyDocument(t *testing.T) {
	s := newTestServer(t)

	k := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	id, err := did.DIDKeyFromPublicKey(k.Public())
	require.NoError(t, err)

	doc, err := did.ExpandDIDKey(id)
	require.NoError(t, err)

	h, err := did.SigningDigest(doc)
	require.NoError(t, err)

	sd := did.SignedDocument{
		Document:  doc,
		Signature: &did.Signature{Type: did.TEd25519, Bytes: ed25519.Sign(k, h)},
	}
	b, err := json.Marshal(sd)
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/v1/documents/verify", string(b))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "ok", decode[types.StatusResponse](t, rec).Status)

	sd.Signature.Bytes[0] ^= 0xff
	b, err = json.Marshal(sd)
	require.NoError(t, err)

	rec = do(t, s, http.MethodPost, "/v1/documents/verify", string(b))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_SIGNATURE", decode[types.ErrorResponse](t, rec).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "didserver_request_duration_seconds")

	rec = do(t, s, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

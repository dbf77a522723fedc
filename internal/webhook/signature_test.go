package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSignatureHexFormat(t *testing.T) {
	sig := GenerateSignature([]byte("merchant_secret"), []byte(`{"type":"order_create"}`))

	assert.Len(t, sig, 64)
	for _, c := range sig {
		ok := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
		assert.True(t, ok, "signature must be lowercase hex, got %q", c)
	}
}

func TestGenerateSignatureDeterministic(t *testing.T) {
	secret := []byte("shared-key")
	payload := []byte(`{"data":{"checkout_session_id":"cs_123"}}`)

	assert.Equal(t, GenerateSignature(secret, payload), GenerateSignature(secret, payload))
}

func TestGenerateSignatureVariesWithInputs(t *testing.T) {
	payload := []byte("payload")
	bySecret := GenerateSignature([]byte("secret-a"), payload)
	otherSecret := GenerateSignature([]byte("secret-b"), payload)
	assert.NotEqual(t, bySecret, otherSecret)

	secret := []byte("secret-a")
	otherPayload := GenerateSignature(secret, []byte("payload2"))
	assert.NotEqual(t, bySecret, otherPayload)
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("merchant_secret")
	payload := []byte(`{"type":"order_update"}`)
	sig := GenerateSignature(secret, payload)

	assert.True(t, VerifySignature(secret, payload, sig))
	assert.False(t, VerifySignature(secret, payload, sig[:63]+"0"), "single flipped char must fail")
	assert.False(t, VerifySignature(secret, []byte("tampered"), sig))
	assert.False(t, VerifySignature([]byte("wrong-secret"), payload, sig))
}

func TestVerifySignatureLengthMismatch(t *testing.T) {
	secret := []byte("merchant_secret")
	payload := []byte("payload")

	assert.False(t, VerifySignature(secret, payload, ""))
	assert.False(t, VerifySignature(secret, payload, "deadbeef"))
	assert.False(t, VerifySignature(secret, payload, GenerateSignature(secret, payload)+"00"))
}

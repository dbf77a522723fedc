package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// GenerateSignature computes the hex-encoded HMAC-SHA256 of payload under
// secret. The result is always 64 lowercase hex characters and is a pure
// function of its inputs, so re-signing an identical payload is idempotent.
// Payloads of any size, including empty, are supported.
func GenerateSignature(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the payload signature and compares it against
// the presented one in constant time. A length mismatch is folded into the
// same comparison rather than returning early, so execution time carries no
// information about where or how the signature differs.
func VerifySignature(secret, payload []byte, signature string) bool {
	expected := GenerateSignature(secret, payload)

	presented := []byte(signature)
	reference := []byte(expected)
	lengthOK := subtle.ConstantTimeEq(int32(len(presented)), int32(len(reference)))
	if lengthOK != 1 {
		// Compare the expected value against itself to keep the byte-wise
		// work identical, then discard the result.
		subtle.ConstantTimeCompare(reference, reference)
		return false
	}
	return subtle.ConstantTimeCompare(reference, presented) == 1
}

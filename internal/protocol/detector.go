package protocol

import (
	"bytes"
	"net/http"
	"strings"
)

// Body patterns scanned when headers are inconclusive. ACP patterns win when
// both protocols appear in the same payload.
var (
	acpBodyPatterns = [][]byte{[]byte("checkout_session"), []byte("shared_payment_token")}
	ap2BodyPatterns = [][]byte{[]byte("did:"), []byte("VerifiableCredential")}
)

// Detector classifies requests into AP2, ACP, or Unknown and records the
// outcome in an injected Metrics instance. A single Detector is shared by all
// handlers; Detect is safe for concurrent use.
type Detector struct {
	metrics *Metrics
}

// NewDetector returns a detector that reports classifications to m.
func NewDetector(m *Metrics) *Detector {
	return &Detector{metrics: m}
}

// Metrics exposes the detector's counters.
func (d *Detector) Metrics() *Metrics { return d.metrics }

// Detect classifies a request from its path, headers, and body.
//
// Precedence, first match wins:
//  1. Path: /checkout_sessions* or /agentic_commerce/* is ACP.
//  2. Headers: vnd.acp+json / vnd.ap2+json content types, a DID authorization
//     scheme, or an explicit X-Protocol header. Header names are matched
//     case-insensitively per HTTP; header values are matched exactly.
//  3. Body: one linear scan for protocol-specific substrings, ACP first.
//
// When nothing matches Detect returns Unknown and increments unknown_count.
// Callers that need the legacy AP2 fallback apply Resolve to the result so
// the metrics stay an honest record of what was actually observed.
func (d *Detector) Detect(headers http.Header, path string, body []byte) Type {
	t := classify(headers, path, body)
	d.metrics.record(t)
	return t
}

// Resolve maps Unknown to AP2, the default assumed for requests predating
// protocol negotiation. AP2 and ACP pass through unchanged.
func Resolve(t Type) Type {
	if t == Unknown {
		return AP2
	}
	return t
}

func classify(headers http.Header, path string, body []byte) Type {
	// Path has top precedence: the ACP REST surface is mounted on fixed
	// prefixes and anything on them is ACP regardless of payload content.
	if strings.HasPrefix(path, "/checkout_sessions") || strings.HasPrefix(path, "/agentic_commerce/") {
		return ACP
	}

	if t, ok := classifyHeaders(headers); ok {
		return t
	}

	return classifyBody(body)
}

func classifyHeaders(headers http.Header) (Type, bool) {
	ct := headers.Get("Content-Type")
	if strings.Contains(ct, "vnd.acp+json") {
		return ACP, true
	}
	if strings.Contains(ct, "vnd.ap2+json") {
		return AP2, true
	}

	// The DID authorization scheme is case-sensitive by design: "did ..." or
	// "Bearer did:..." must not be mistaken for agent credentials.
	if strings.HasPrefix(headers.Get("Authorization"), "DID ") {
		return AP2, true
	}

	if headers.Get("X-Protocol") == "acp" {
		return ACP, true
	}

	return Unknown, false
}

func classifyBody(body []byte) Type {
	for _, p := range acpBodyPatterns {
		if bytes.Contains(body, p) {
			return ACP
		}
	}
	for _, p := range ap2BodyPatterns {
		if bytes.Contains(body, p) {
			return AP2
		}
	}
	return Unknown
}

// Package protocol classifies inbound gateway requests as AP2 or ACP traffic.
//
// AP2 (Agent Payments Protocol) requests authenticate with DID-based
// credentials; ACP (Agentic Commerce Protocol) requests follow the
// checkout-session REST conventions. The two authorization models are
// incompatible, so every request is classified exactly once before any
// handler runs.
package protocol

// Type identifies the payment protocol an inbound request belongs to.
type Type string

const (
	// AP2 is the agent-mandate protocol (DID / Verifiable Credential based).
	AP2 Type = "ap2"
	// ACP is the REST checkout-session protocol.
	ACP Type = "acp"
	// Unknown means no classification signal matched.
	Unknown Type = "unknown"
)

func (t Type) String() string { return string(t) }

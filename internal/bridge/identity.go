package bridge

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTokenNotFound is returned for bearer tokens absent from the registry.
// The bridge never substitutes a default identity for an unknown token.
var ErrTokenNotFound = errors.New("bearer token not found in registry")

// AgentIdentity is the DID-side identity of an agent acting for a user.
type AgentIdentity struct {
	DID       string    `json:"did"`
	AgentName string    `json:"agent_name,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
}

// TokenRegistry maps bearer tokens to agent identities. Implementations live
// outside this core; the identity bridge only defines the translation
// contract against it.
type TokenRegistry interface {
	Lookup(token string) (AgentIdentity, bool)
	Register(token string, identity AgentIdentity)
}

// IdentityBridge translates between bearer-token merchant identity and
// DID-based agent identity via a token registry.
type IdentityBridge struct {
	registry TokenRegistry
}

// NewIdentityBridge returns a bridge over the given registry.
func NewIdentityBridge(registry TokenRegistry) *IdentityBridge {
	return &IdentityBridge{registry: registry}
}

// ResolveBearerToDID maps a bearer token to the agent identity it was issued
// for. Unknown tokens fail with ErrTokenNotFound.
func (b *IdentityBridge) ResolveBearerToDID(token string) (AgentIdentity, error) {
	if token == "" {
		return AgentIdentity{}, ErrTokenNotFound
	}
	identity, ok := b.registry.Lookup(token)
	if !ok {
		return AgentIdentity{}, ErrTokenNotFound
	}
	return identity, nil
}

// CreateBearerFromDID mints a bearer token for the identity and records it
// in the registry.
func (b *IdentityBridge) CreateBearerFromDID(identity AgentIdentity) (string, error) {
	if identity.DID == "" {
		return "", &ConversionError{Field: "did", Reason: "missing"}
	}
	if identity.IssuedAt.IsZero() {
		identity.IssuedAt = time.Now().UTC()
	}
	token := "bt_" + uuid.New().String()
	b.registry.Register(token, identity)
	return token, nil
}

// MemoryTokenRegistry is a concurrency-safe in-memory TokenRegistry, the
// default when no external registry is wired in.
type MemoryTokenRegistry struct {
	mu     sync.RWMutex
	tokens map[string]AgentIdentity
}

// NewMemoryTokenRegistry returns an empty registry.
func NewMemoryTokenRegistry() *MemoryTokenRegistry {
	return &MemoryTokenRegistry{tokens: make(map[string]AgentIdentity)}
}

func (r *MemoryTokenRegistry) Lookup(token string) (AgentIdentity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.tokens[token]
	return identity, ok
}

func (r *MemoryTokenRegistry) Register(token string, identity AgentIdentity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = identity
}

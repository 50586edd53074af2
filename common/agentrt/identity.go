// Package agentrt implements the agent runtime: a named, addressable,
// long-lived process that receives typed messages on the bus, dispatches
// them to registered handlers, and replies on the request's reply subject.
package agentrt

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"strings"
)

// addressPrefix marks bus addresses derived from an agent seed.
const addressPrefix = "agent1"

var addressEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Identity is an agent's deterministic cryptographic identity. The same
// seed phrase always yields the same address, so peers can hardcode or
// cache the address of an agent they talk to.
type Identity struct {
	Name    string
	Address string

	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewIdentity derives an identity from a seed phrase.
func NewIdentity(name, seed string) (*Identity, error) {
	if strings.TrimSpace(seed) == "" {
		return nil, fmt.Errorf("agent seed is required")
	}

	digest := sha256.Sum256([]byte(seed))
	priv := ed25519.NewKeyFromSeed(digest[:])
	pub := priv.Public().(ed25519.PublicKey)

	return &Identity{
		Name:    name,
		Address: addressFromPublicKey(pub),
		priv:    priv,
		pub:     pub,
	}, nil
}

// Sign signs data with the agent's private key.
func (id *Identity) Sign(data []byte) []byte {
	return ed25519.Sign(id.priv, data)
}

// Verify checks a signature made by this identity.
func (id *Identity) Verify(data, sig []byte) bool {
	return ed25519.Verify(id.pub, data, sig)
}

// addressFromPublicKey renders a public key as a bus address.
func addressFromPublicKey(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return addressPrefix + strings.ToLower(addressEncoding.EncodeToString(sum[:]))
}

// IsAddress reports whether s looks like a derived agent address.
func IsAddress(s string) bool {
	return strings.HasPrefix(s, addressPrefix) && len(s) > len(addressPrefix)
}

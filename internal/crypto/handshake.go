// Package crypto implements the ECDH P-384 login handshake and the
// rolling AES/CFB session cipher described in spec.md §6.
package crypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"golang.org/x/crypto/hkdf"
)

// SaltSize is the length in bytes of the random salt sent in the
// server-signed handshake JWT.
const SaltSize = 16

// Handshake holds the server-side ECDH state for one session's login.
// It is created when the server decides to enable encryption and is
// discarded once DeriveSession succeeds.
type Handshake struct {
	curve      ecdh.Curve
	serverKey  *ecdh.PrivateKey
	salt       [SaltSize]byte
}

// NewHandshake generates a fresh ephemeral P-384 keypair and a random
// salt for one login attempt.
func NewHandshake() (*Handshake, error) {
	curve := ecdh.P384()
	priv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ephemeral ECDH key: %w", err)
	}
	h := &Handshake{curve: curve, serverKey: priv}
	if _, err := rand.Read(h.salt[:]); err != nil {
		return nil, fmt.Errorf("generating handshake salt: %w", err)
	}
	return h, nil
}

// ServerPublicKeyDER returns the server's ephemeral public key, DER
// encoded, for embedding as x5u in the handshake JWT.
func (h *Handshake) ServerPublicKeyDER() []byte {
	der, err := x509.MarshalPKIXPublicKey(h.serverKey.PublicKey())
	if err != nil {
		return nil
	}
	return der
}

// Salt returns the random salt sent to the client.
func (h *Handshake) Salt() [SaltSize]byte {
	return h.salt
}

// DeriveSession computes the shared secret with the client's static
// public key (from the identity chain JWT) and derives the AES key and
// IV from SHA-256(salt || secret): the key is the whole 32-byte digest
// and the IV is its first 16 bytes.
func (h *Handshake) DeriveSession(clientPublicKeyDER []byte) (*SessionCipher, error) {
	parsed, err := x509.ParsePKIXPublicKey(clientPublicKeyDER)
	if err != nil {
		return nil, fmt.Errorf("parsing client public key: %w", err)
	}
	ecKey, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("parsing client public key: not an EC key")
	}
	clientKey, err := ecKey.ECDH()
	if err != nil {
		return nil, fmt.Errorf("parsing client public key: %w", err)
	}
	secret, err := h.serverKey.ECDH(clientKey)
	if err != nil {
		return nil, fmt.Errorf("computing ECDH shared secret: %w", err)
	}

	sum := sha256.Sum256(append(append([]byte{}, h.salt[:]...), secret...))
	key := sum[:32]
	iv := sum[:16]

	return newSessionCipher(key, iv)
}

// deriveKeyMaterial is kept for parity with implementations that prefer
// HKDF-expand over the plain SHA-256(salt||secret) the spec mandates;
// it is unused by DeriveSession but wires golang.org/x/crypto/hkdf for
// callers that need an additional derived key (e.g. a MAC key) without
// re-deriving from the raw secret.
func deriveKeyMaterial(secret, salt []byte, info string, length int) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, salt, []byte(info))
	out := make([]byte, length)
	if _, err := r.Read(out); err != nil {
		return nil, fmt.Errorf("deriving key material: %w", err)
	}
	return out, nil
}

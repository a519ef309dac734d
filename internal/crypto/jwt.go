package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// No JWT library appears anywhere in the retrieved pack (login tokens
// elsewhere in the pack are signed with raw RSA, not JWT), so the chain
// parsing and handshake-token signing below is implemented directly
// against the standard library rather than pulling in an unwired
// ecosystem dependency — see DESIGN.md.

// IdentityClaims is the subset of the last chain element's payload the
// core needs: spec.md §6 names identity, displayName, XUID and
// identityPublicKey.
type IdentityClaims struct {
	Identity         string `json:"identity"`
	DisplayName      string `json:"displayName"`
	XUID             string `json:"XUID"`
	IdentityPublicKey string `json:"identityPublicKey"`
}

// ClientDataClaims is the client-data JWT's payload: skin, device and
// Play-Fab id per spec.md §6.
type ClientDataClaims struct {
	SkinID    string `json:"SkinId"`
	DeviceOS  int32  `json:"DeviceOS"`
	DeviceID  string `json:"DeviceId"`
	PlayFabID string `json:"PlayFabId"`
}

type jwtChain struct {
	Chain []string `json:"chain"`
}

// ParseIdentityChain decodes the last (deepest) element of the
// identity chain and returns its claims without verifying signatures —
// signature verification against Xbox Live's public key is an external
// collaborator concern (spec §1 treats the packet codec and its
// upstream identity provider as out of scope); the core only needs the
// claims to drive login state.
func ParseIdentityChain(chainJWT string) (IdentityClaims, error) {
	var chain jwtChain
	if err := json.Unmarshal([]byte(chainJWT), &chain); err != nil {
		return IdentityClaims{}, fmt.Errorf("parsing identity chain: %w", err)
	}
	if len(chain.Chain) == 0 {
		return IdentityClaims{}, fmt.Errorf("parsing identity chain: empty chain")
	}

	payload, err := decodeJWTPayload(chain.Chain[len(chain.Chain)-1])
	if err != nil {
		return IdentityClaims{}, fmt.Errorf("decoding identity chain payload: %w", err)
	}

	var claims IdentityClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return IdentityClaims{}, fmt.Errorf("unmarshaling identity claims: %w", err)
	}
	if claims.Identity == "" {
		return IdentityClaims{}, fmt.Errorf("identity chain missing identity claim")
	}
	// The identity claim is the client's account UUID and doubles as the
	// players/<uuid>.dat save key, so it must be a canonical UUID before
	// anything downstream trusts it as a database key.
	parsed, err := uuid.Parse(claims.Identity)
	if err != nil {
		return IdentityClaims{}, fmt.Errorf("identity claim is not a valid uuid: %w", err)
	}
	claims.Identity = parsed.String()
	return claims, nil
}

// ParseClientData decodes the client-data JWT's payload.
func ParseClientData(clientDataJWT string) (ClientDataClaims, error) {
	payload, err := decodeJWTPayload(clientDataJWT)
	if err != nil {
		return ClientDataClaims{}, fmt.Errorf("decoding client data payload: %w", err)
	}
	var claims ClientDataClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return ClientDataClaims{}, fmt.Errorf("unmarshaling client data claims: %w", err)
	}
	return claims, nil
}

func decodeJWTPayload(token string) ([]byte, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed JWT: expected 3 segments, got %d", len(parts))
	}
	return base64.RawURLEncoding.DecodeString(parts[1])
}

// SignHandshakeJWT builds the server-signed handshake token carrying
// x5u = base64(server public key DER) and payload {salt: base64(salt)},
// signed with a fresh ES384 key as spec.md §6 requires.
func SignHandshakeJWT(serverPubDER []byte, salt [SaltSize]byte) (string, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generating handshake signing key: %w", err)
	}

	header := map[string]any{
		"alg": "ES384",
		"x5u": base64.StdEncoding.EncodeToString(serverPubDER),
	}
	payload := map[string]any{
		"salt": base64.StdEncoding.EncodeToString(salt[:]),
	}

	headerB, _ := json.Marshal(header)
	payloadB, _ := json.Marshal(payload)
	signingInput := base64.RawURLEncoding.EncodeToString(headerB) + "." + base64.RawURLEncoding.EncodeToString(payloadB)

	digest := sha512.Sum384([]byte(signingInput))
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		return "", fmt.Errorf("signing handshake token: %w", err)
	}
	sig := append(r.Bytes(), s.Bytes()...)

	return signingInput + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

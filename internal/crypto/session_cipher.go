package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"sync"
)

// SessionCipher is the rolling AES/CFB cipher activated on
// ClientToServerHandshake. Every outbound packet gets a trailing 8-byte
// SHA-256 checksum and is encrypted; every inbound packet is decrypted and
// checksum-verified. The IV advances per spec.md §6 ("rolling IV").
type SessionCipher struct {
	mu      sync.Mutex
	key     []byte
	encIV   cipher.Stream
	decIV   cipher.Stream
	encBlk  cipher.Block
	decBlk  cipher.Block
}

func newSessionCipher(key, iv []byte) (*SessionCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	encBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	return &SessionCipher{
		key:    key,
		encBlk: encBlock,
		decBlk: block,
		encIV:  cipher.NewCFBEncrypter(encBlock, iv),
		decIV:  cipher.NewCFBDecrypter(block, iv),
	}, nil
}

// Encrypt returns a new slice holding payload followed by the first 8
// bytes of its SHA-256 digest, both encrypted, per spec.md §6 ("AES/CFB-encrypted with a rolling IV
// plus a SHA-256 packet checksum").
func (s *SessionCipher) Encrypt(payload []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := sha256.Sum256(payload)
	withChecksum := append(append([]byte{}, payload...), sum[:8]...)
	out := make([]byte, len(withChecksum))
	s.encIV.XORKeyStream(out, withChecksum)
	return out
}

// Decrypt reverses Encrypt and verifies the trailing checksum,
// returning the original plaintext without the checksum bytes.
func (s *SessionCipher) Decrypt(payload []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(payload) < 8 {
		return nil, fmt.Errorf("decrypt: payload too short for checksum")
	}
	plain := make([]byte, len(payload))
	s.decIV.XORKeyStream(plain, payload)

	body, checksum := plain[:len(plain)-8], plain[len(plain)-8:]
	sum := sha256.Sum256(body)
	if string(sum[:8]) != string(checksum) {
		return nil, fmt.Errorf("decrypt: checksum mismatch")
	}
	return body, nil
}

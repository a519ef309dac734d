// Package batch implements packet-batch framing (spec.md §6): VarUInt32
// length-prefixed sub-packet concatenation plus the three negotiated
// compression schemes (Zlib, Snappy, None), applied once the combined
// sub-packet length reaches the session's negotiated threshold. AES/CFB
// encryption and the SHA-256 checksum live in internal/crypto's
// SessionCipher — this package only produces the plaintext batch body
// that cipher wraps.
package batch

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"

	"github.com/bedrockcore/server/internal/protocol"
)

// MaxVarUInt32Bytes bounds a VarUInt32's wire length, guarding against
// a hostile client sending an unbounded continuation run.
const MaxVarUInt32Bytes = 5

// PutVarUInt32 appends v's VarUInt32 encoding (7 bits per byte, high
// bit set while more bytes follow) to buf and returns the result.
func PutVarUInt32(buf []byte, v uint32) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// ReadVarUInt32 decodes a VarUInt32 from the front of buf, returning
// the value and the number of bytes consumed.
func ReadVarUInt32(buf []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < MaxVarUInt32Bytes && i < len(buf); i++ {
		b := buf[i]
		v |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("batch: VarUInt32 too long or truncated")
}

// Pack concatenates subPackets (each already a complete VarUInt32 id +
// encoded-fields sub-packet, per spec.md §6), each length-prefixed with
// a VarUInt32 so the far side can split the batch back apart, then
// compresses the result with algo when the combined length reaches
// threshold.
func Pack(subPackets [][]byte, algo protocol.CompressionAlgorithm, threshold uint16) ([]byte, error) {
	var body []byte
	for _, sub := range subPackets {
		body = PutVarUInt32(body, uint32(len(sub)))
		body = append(body, sub...)
	}

	if len(body) < int(threshold) {
		return body, nil
	}
	return compress(body, algo)
}

// Unpack reverses Pack: decompresses raw with algo (a no-op for
// CompressionNone), then splits the result back into its
// length-prefixed sub-packets.
func Unpack(raw []byte, algo protocol.CompressionAlgorithm) ([][]byte, error) {
	body, err := decompress(raw, algo)
	if err != nil {
		return nil, err
	}

	var subs [][]byte
	for len(body) > 0 {
		length, n, err := ReadVarUInt32(body)
		if err != nil {
			return nil, fmt.Errorf("batch: reading sub-packet length: %w", err)
		}
		body = body[n:]
		if uint32(len(body)) < length {
			return nil, fmt.Errorf("batch: sub-packet length %d exceeds remaining %d bytes", length, len(body))
		}
		subs = append(subs, body[:length])
		body = body[length:]
	}
	return subs, nil
}

func compress(body []byte, algo protocol.CompressionAlgorithm) ([]byte, error) {
	switch algo {
	case protocol.CompressionNone:
		return body, nil
	case protocol.CompressionSnappy:
		return snappy.Encode(nil, body), nil
	case protocol.CompressionZlib:
		var out bytes.Buffer
		w := zlib.NewWriter(&out)
		if _, err := w.Write(body); err != nil {
			return nil, fmt.Errorf("batch: zlib compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("batch: zlib compress: %w", err)
		}
		return out.Bytes(), nil
	default:
		return nil, fmt.Errorf("batch: unknown compression algorithm %d", algo)
	}
}

func decompress(raw []byte, algo protocol.CompressionAlgorithm) ([]byte, error) {
	switch algo {
	case protocol.CompressionNone:
		return raw, nil
	case protocol.CompressionSnappy:
		out, err := snappy.Decode(nil, raw)
		if err != nil {
			return nil, fmt.Errorf("batch: snappy decompress: %w", err)
		}
		return out, nil
	case protocol.CompressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("batch: zlib decompress: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("batch: zlib decompress: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("batch: unknown compression algorithm %d", algo)
	}
}

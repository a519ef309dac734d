package batch

import (
	"bytes"
	"testing"

	"github.com/bedrockcore/server/internal/protocol"
)

func TestPutVarUInt32_ReadVarUInt32_RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 127, 128, 300, 16384, 0xFFFFFFFF}
	for _, v := range cases {
		buf := PutVarUInt32(nil, v)
		got, n, err := ReadVarUInt32(buf)
		if err != nil {
			t.Fatalf("ReadVarUInt32(%d) error = %v", v, err)
		}
		if got != v {
			t.Errorf("ReadVarUInt32 = %d, want %d", got, v)
		}
		if n != len(buf) {
			t.Errorf("consumed %d bytes, want %d", n, len(buf))
		}
	}
}

func TestReadVarUInt32_TruncatedErrors(t *testing.T) {
	_, _, err := ReadVarUInt32([]byte{0x80, 0x80})
	if err == nil {
		t.Error("expected an error for a truncated VarUInt32")
	}
}

func TestPack_BelowThresholdStaysUncompressed(t *testing.T) {
	subs := [][]byte{{1, 2, 3}}
	out, err := Pack(subs, protocol.CompressionZlib, 1000)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	unpacked, err := Unpack(out, protocol.CompressionNone)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if len(unpacked) != 1 || !bytes.Equal(unpacked[0], subs[0]) {
		t.Errorf("unpacked = %+v, want %+v", unpacked, subs)
	}
}

func TestPack_Unpack_RoundTripZlib(t *testing.T) {
	subs := [][]byte{
		bytes.Repeat([]byte{0xAB}, 2000),
		{9, 9, 9},
	}
	out, err := Pack(subs, protocol.CompressionZlib, 10)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	unpacked, err := Unpack(out, protocol.CompressionZlib)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if len(unpacked) != len(subs) {
		t.Fatalf("len(unpacked) = %d, want %d", len(unpacked), len(subs))
	}
	for i := range subs {
		if !bytes.Equal(unpacked[i], subs[i]) {
			t.Errorf("sub %d mismatch", i)
		}
	}
}

func TestPack_Unpack_RoundTripSnappy(t *testing.T) {
	subs := [][]byte{bytes.Repeat([]byte{0x42}, 500)}
	out, err := Pack(subs, protocol.CompressionSnappy, 10)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	unpacked, err := Unpack(out, protocol.CompressionSnappy)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if len(unpacked) != 1 || !bytes.Equal(unpacked[0], subs[0]) {
		t.Error("snappy round-trip mismatch")
	}
}

func TestPack_Unpack_RoundTripNoneAlwaysUncompressed(t *testing.T) {
	subs := [][]byte{bytes.Repeat([]byte{0x7}, 5000)}
	out, err := Pack(subs, protocol.CompressionNone, 1)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	unpacked, err := Unpack(out, protocol.CompressionNone)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if len(unpacked) != 1 || !bytes.Equal(unpacked[0], subs[0]) {
		t.Error("none-compression round-trip mismatch")
	}
}

func TestUnpack_RejectsSubPacketLengthExceedingBuffer(t *testing.T) {
	malformed := PutVarUInt32(nil, 9999)
	_, err := Unpack(malformed, protocol.CompressionNone)
	if err == nil {
		t.Error("expected an error for an oversized declared sub-packet length")
	}
}

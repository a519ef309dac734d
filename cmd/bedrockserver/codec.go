package main

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/bedrockcore/server/internal/batch"
	"github.com/bedrockcore/server/internal/inventory"
	"github.com/bedrockcore/server/internal/movement"
	"github.com/bedrockcore/server/internal/protocol"
	"github.com/bedrockcore/server/internal/session"
)

// The real Bedrock wire format — VarInt/NBT field encoding per packet id
// — is an external collaborator (spec.md §1); this project only
// consumes its decoded output and only produces values for it to
// re-encode. encoding/gob is the stand-in that seam plugs into until
// that codec is wired in: it round-trips every exported packet struct
// already defined here without a hand-rolled per-type marshaler, and
// every concrete type dispatch ever sees across the wire is registered
// below so a decode can recover it from an any.
func init() {
	for _, v := range []any{
		protocol.RequestNetworkSettings{},
		protocol.NetworkSettings{},
		protocol.Login{},
		protocol.PlayStatusPacket{},
		protocol.ServerToClientHandshake{},
		protocol.ClientToServerHandshake{},
		protocol.DisconnectPacket{},
		protocol.ResourcePacksInfo{},
		protocol.ResourcePackClientResponse{},
		protocol.ResourcePackStack{},
		protocol.StartGame{},
		protocol.CreativeContent{},
		protocol.CraftingData{},
		protocol.BiomeDefinitionList{},
		protocol.AvailableEntityIdentifiers{},
		protocol.RequestChunkRadius{},
		protocol.ChunkRadiusUpdated{},
		protocol.SetLocalPlayerAsInitialized{},
		protocol.LevelChunk{},
		protocol.AddActor{},
		protocol.RemoveActor{},
		protocol.MoveActorAbsolute{},
		protocol.MovePlayerPacket{},
		protocol.UpdateBlock{},
		protocol.LevelEvent{},
		protocol.EntityEvent{},
		protocol.UpdateAttributes{},
		protocol.SetActorMotion{},
		protocol.MobEffectPacket{},
		protocol.RespawnPacket{},
		protocol.NetworkChunkPublisherUpdate{},
		protocol.SetTimePacket{},
		protocol.TextPacket{},
		protocol.CommandRequest{},
		protocol.CommandOutput{},
		movement.Input{},
		inventory.Request{},
		attackInput{},
		startBreakInput{},
		finishBreakInput{},
		placeBlockInput{},
	} {
		gob.Register(v)
	}
}

// defaultEncode gob-encodes out as the sub-packet body, frames it with
// internal/batch using sess's negotiated compression, then encrypts it
// with sess's cipher once the login handshake has established one
// (spec.md §6: compression and encryption both apply from
// ServerToClientHandshake onward).
func defaultEncode(sess *session.Session, out any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&out); err != nil {
		return nil, fmt.Errorf("encoding packet %T: %w", out, err)
	}

	packed, err := batch.Pack([][]byte{buf.Bytes()}, sess.CompressionAlgorithm, sess.CompressionThreshold)
	if err != nil {
		return nil, fmt.Errorf("packing batch: %w", err)
	}
	if sess.Cipher != nil {
		return sess.Cipher.Encrypt(packed), nil
	}
	return packed, nil
}

// defaultDecode reverses defaultEncode: decrypt (if a cipher is
// established), split the batch back into sub-packets, gob-decode each.
func defaultDecode(sess *session.Session, payload []byte) ([]any, error) {
	raw := payload
	if sess.Cipher != nil {
		decrypted, err := sess.Cipher.Decrypt(raw)
		if err != nil {
			return nil, fmt.Errorf("decrypting batch: %w", err)
		}
		raw = decrypted
	}

	subs, err := batch.Unpack(raw, sess.CompressionAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("unpacking batch: %w", err)
	}

	out := make([]any, 0, len(subs))
	for _, sub := range subs {
		var v any
		if err := gob.NewDecoder(bytes.NewReader(sub)).Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding sub-packet: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"testing"

	"github.com/bedrockcore/server/internal/config"
	"github.com/bedrockcore/server/internal/protocol"
)

type fakeBans struct {
	ipBanned, playerBanned bool
	reason                 string
}

func (f fakeBans) IsIPBanned(ctx context.Context, ip string) (bool, error) { return f.ipBanned, nil }
func (f fakeBans) IsPlayerBanned(ctx context.Context, xuid string) (bool, string, error) {
	return f.playerBanned, f.reason, nil
}

type fakeWhitelist struct{ allowed bool }

func (f fakeWhitelist) IsWhitelisted(ctx context.Context, xuid string) (bool, error) {
	return f.allowed, nil
}

func testAddr(t *testing.T) net.Addr {
	t.Helper()
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:19132")
	if err != nil {
		t.Fatalf("resolving test addr: %v", err)
	}
	return addr
}

func TestPipeline_RequestNetworkSettingsTransitionsState(t *testing.T) {
	cfg := config.Default()
	p := NewPipeline(&cfg, fakeBans{}, fakeWhitelist{allowed: true}, 1, 10)
	s := NewSession(testAddr(t))

	out := p.HandleRequestNetworkSettings(s, protocol.RequestNetworkSettings{ClientProtocol: 5})
	if s.State != AwaitingLogin {
		t.Fatalf("state = %v, want AwaitingLogin", s.State)
	}
	if len(out) != 1 || out[0].ID != protocol.IDNetworkSettings {
		t.Fatalf("expected a single NetworkSettings packet, got %+v", out)
	}
}

func TestPipeline_RequestNetworkSettingsRejectsOldClient(t *testing.T) {
	cfg := config.Default()
	p := NewPipeline(&cfg, fakeBans{}, fakeWhitelist{allowed: true}, 5, 10)
	s := NewSession(testAddr(t))

	out := p.HandleRequestNetworkSettings(s, protocol.RequestNetworkSettings{ClientProtocol: 1})
	if s.State != AwaitingNetworkSettings {
		t.Errorf("state changed on rejected client, got %v", s.State)
	}
	if len(out) != 1 {
		t.Fatalf("expected one PlayStatus packet, got %+v", out)
	}
	status := out[0].Payload.(protocol.PlayStatusPacket)
	if status.Status != protocol.PlayStatusFailedClient {
		t.Errorf("status = %v, want FailedClient", status.Status)
	}
}

func TestPipeline_LoginRejectsBannedPlayer(t *testing.T) {
	cfg := config.Default()
	cfg.Server.OnlineMode = false
	p := NewPipeline(&cfg, fakeBans{playerBanned: true, reason: "griefing"}, fakeWhitelist{allowed: true}, 1, 10)
	s := NewSession(testAddr(t))
	s.State = AwaitingLogin

	out := p.HandleLogin(context.Background(), s, protocol.Login{
		IdentityChainJWT: identityChainFixture(t),
		ClientDataJWT:    clientDataFixture(t),
	}, "127.0.0.1")

	if len(out) != 1 || out[0].ID != protocol.IDDisconnect {
		t.Fatalf("expected Disconnect, got %+v", out)
	}
	if s.State != AwaitingLogin {
		t.Errorf("state should not advance on ban, got %v", s.State)
	}
}

func TestPipeline_LoginOfflineModeSucceeds(t *testing.T) {
	cfg := config.Default()
	cfg.Server.OnlineMode = false
	p := NewPipeline(&cfg, fakeBans{}, fakeWhitelist{allowed: true}, 1, 10)
	s := NewSession(testAddr(t))
	s.State = AwaitingLogin

	out := p.HandleLogin(context.Background(), s, protocol.Login{
		IdentityChainJWT: identityChainFixture(t),
		ClientDataJWT:    clientDataFixture(t),
	}, "127.0.0.1")

	if s.State != LoggedIn {
		t.Fatalf("state = %v, want LoggedIn", s.State)
	}
	if len(out) != 1 || out[0].ID != protocol.IDPlayStatus {
		t.Fatalf("expected PlayStatus(LoginSuccess), got %+v", out)
	}
}

func identityChainFixture(t *testing.T) string {
	t.Helper()
	payload := `{"identity":"uuid-1","displayName":"Alice","XUID":"123","identityPublicKey":"key"}`
	chain := map[string][]string{"chain": {jwtFixture(payload)}}
	b, err := json.Marshal(chain)
	if err != nil {
		t.Fatalf("marshaling chain fixture: %v", err)
	}
	return string(b)
}

func clientDataFixture(t *testing.T) string {
	t.Helper()
	return jwtFixture(`{"SkinId":"skin","DeviceOS":7,"DeviceId":"dev","PlayFabId":"pf"}`)
}

// jwtFixture builds a 3-segment JWT with the given payload, matching
// what ParseIdentityChain/ParseClientData's decodeJWTPayload expects: a
// base64url-encoded middle segment (signature is never verified, per
// spec.md §1).
func jwtFixture(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return header + "." + body + ".sig"
}

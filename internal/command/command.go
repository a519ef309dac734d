// Package command implements the operator command surface (spec.md
// §6: "help, list, say, stop, gamemode, tp, give, kill, kick, op, deop,
// ban, ban-ip, unban, unban-ip, whitelist ..., summon, effect, enchant,
// time, weather, gamerule"). Generalized from internal/gameserver/handler.go's
// HandlePacket dispatch table, adapted from a packet-opcode switch to a
// command-name switch: a Registry maps each name to a Handler and a
// permission tier, and Dispatch parses, authorizes, and runs it.
//
// Destructive operator actions (op, ban) always require a TOTP code as
// their last argument, checked against the issuer's TOTPSecret via
// github.com/pquerna/otp/totp; an issuer with an empty TOTPSecret
// cannot run them. This mirrors the
// OTP-gated account-action pattern sketched for MUD-Engine's operator
// surface.
package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/bedrockcore/server/internal/db"
	"github.com/bedrockcore/server/internal/session"
	"github.com/bedrockcore/server/internal/worldstore"
)

// Services bundles the collaborators command handlers are allowed to
// touch (spec.md §5: command execution runs on the tick thread, so
// these are the same World/Manager instances the tick loop owns).
type Services struct {
	Sessions  *session.Manager
	World     *worldstore.World
	Ops       *db.OpsRepository
	Bans      *db.BanRepository
	Whitelist *db.WhitelistRepository
}

// Issuer identifies whoever is running a command: an in-game player or
// the console (IsOperator forced true, TOTPSecret left empty).
type Issuer struct {
	DisplayName string
	XUID        string
	IsOperator  bool
	TOTPSecret  string // empty: Dispatch rejects op and ban with ErrTOTPRequired
}

// Result is a command's outcome: success/failure plus zero or more
// lines to echo back to the issuer (spec.md §6 "CommandOutput").
type Result struct {
	Success  bool
	Messages []string
}

func ok(msg string, args ...any) Result {
	return Result{Success: true, Messages: []string{fmt.Sprintf(msg, args...)}}
}

func fail(msg string, args ...any) Result {
	return Result{Success: false, Messages: []string{fmt.Sprintf(msg, args...)}}
}

// Handler executes one command invocation given its parsed argument
// words (the command name itself is not included).
type Handler func(ctx context.Context, svc *Services, issuer Issuer, args []string) Result

// Command is one entry in the fixed command-name table.
type Command struct {
	Name         string
	OperatorOnly bool
	RequireTOTP  bool // only meaningful when OperatorOnly is also true
	Handler      Handler
}

// ErrNotFound, ErrForbidden, and ErrTOTPRequired classify Dispatch's
// non-execution outcomes (spec.md §7 "Permission errors": "rejected
// silently server-side, with a chat message to the issuer").
var (
	ErrNotFound     = fmt.Errorf("command: unknown command")
	ErrForbidden    = fmt.Errorf("command: operator privilege required")
	ErrTOTPRequired = fmt.Errorf("command: invalid or missing TOTP code")
)

// Registry is the fixed, name-keyed command table (spec.md §6's
// command list is closed — no plugin-registered commands flow through
// here; those are PluginBridge's ActionRegisterCommand instead).
type Registry struct {
	commands map[string]Command
}

// NewRegistry returns an empty registry; callers populate it via
// Register or RegisterDefaults.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command, 32)}
}

// Register adds or replaces the entry for cmd.Name.
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name] = cmd
}

// Dispatch parses a command line (with or without a leading '/'),
// looks up the command, enforces operator/TOTP gating, and runs it.
func (r *Registry) Dispatch(ctx context.Context, svc *Services, issuer Issuer, line string) (Result, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(fields) == 0 {
		return Result{}, ErrNotFound
	}
	name, args := fields[0], fields[1:]

	cmd, found := r.commands[name]
	if !found {
		return Result{}, ErrNotFound
	}
	if cmd.OperatorOnly && !issuer.IsOperator {
		return Result{}, ErrForbidden
	}
	if cmd.OperatorOnly && cmd.RequireTOTP {
		if len(args) == 0 {
			return Result{}, ErrTOTPRequired
		}
		code := args[len(args)-1]
		args = args[:len(args)-1]
		if issuer.TOTPSecret == "" || !totp.Validate(code, issuer.TOTPSecret) {
			return Result{}, ErrTOTPRequired
		}
	}

	return cmd.Handler(ctx, svc, issuer, args), nil
}

// RegisterDefaults wires the full spec.md §6 command set into r.
func RegisterDefaults(r *Registry) {
	r.Register(Command{Name: "help", Handler: handleHelp})
	r.Register(Command{Name: "list", Handler: handleList})
	r.Register(Command{Name: "say", OperatorOnly: true, Handler: handleSay})
	r.Register(Command{Name: "stop", OperatorOnly: true, Handler: handleStop})
	r.Register(Command{Name: "gamemode", OperatorOnly: true, Handler: handleGamemode})
	r.Register(Command{Name: "tp", OperatorOnly: true, Handler: handleTeleport})
	r.Register(Command{Name: "give", OperatorOnly: true, Handler: handleGive})
	r.Register(Command{Name: "kill", OperatorOnly: true, Handler: handleKill})
	r.Register(Command{Name: "kick", OperatorOnly: true, Handler: handleKick})
	r.Register(Command{Name: "op", OperatorOnly: true, RequireTOTP: true, Handler: handleOp})
	r.Register(Command{Name: "deop", OperatorOnly: true, Handler: handleDeop})
	r.Register(Command{Name: "ban", OperatorOnly: true, RequireTOTP: true, Handler: handleBan})
	r.Register(Command{Name: "ban-ip", OperatorOnly: true, Handler: handleBanIP})
	r.Register(Command{Name: "unban", OperatorOnly: true, Handler: handleUnban})
	r.Register(Command{Name: "unban-ip", OperatorOnly: true, Handler: handleUnbanIP})
	r.Register(Command{Name: "whitelist", OperatorOnly: true, Handler: handleWhitelist})
	r.Register(Command{Name: "summon", OperatorOnly: true, Handler: handleSummon})
	r.Register(Command{Name: "effect", OperatorOnly: true, Handler: handleEffect})
	r.Register(Command{Name: "enchant", OperatorOnly: true, Handler: handleEnchant})
	r.Register(Command{Name: "time", OperatorOnly: true, Handler: handleTime})
	r.Register(Command{Name: "weather", OperatorOnly: true, Handler: handleWeather})
	r.Register(Command{Name: "gamerule", OperatorOnly: true, Handler: handleGamerule})
}

func handleHelp(_ context.Context, _ *Services, _ Issuer, _ []string) Result {
	return ok("help, list, say, stop, gamemode, tp, give, kill, kick, op, deop, ban, ban-ip, unban, unban-ip, whitelist, summon, effect, enchant, time, weather, gamerule")
}

func handleList(_ context.Context, svc *Services, _ Issuer, _ []string) Result {
	names := make([]string, 0, svc.Sessions.InGameCount())
	svc.Sessions.ForEachInGame(func(s *session.Session) bool {
		names = append(names, s.Identity.DisplayName)
		return true
	})
	return ok("%d players online: %s", len(names), strings.Join(names, ", "))
}

// handleSay returns the formatted chat line for the caller to broadcast;
// this package only decides command semantics, not packet delivery.
func handleSay(_ context.Context, _ *Services, issuer Issuer, args []string) Result {
	return ok("[%s] %s", issuer.DisplayName, strings.Join(args, " "))
}

func handleStop(_ context.Context, _ *Services, _ Issuer, _ []string) Result {
	return ok("server stopping")
}

func requireTarget(svc *Services, args []string) (*session.Session, []string, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("command: missing player name")
	}
	target, found := svc.Sessions.FindByName(args[0])
	if !found {
		return nil, nil, fmt.Errorf("command: no player named %q is online", args[0])
	}
	return target, args[1:], nil
}

func handleGamemode(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) < 2 {
		return fail("usage: gamemode <mode> <player>")
	}
	mode, err := parseGamemode(args[0])
	if err != nil {
		return fail("%s", err)
	}
	target, found := svc.Sessions.FindByName(args[1])
	if !found {
		return fail("no player named %q is online", args[1])
	}
	target.Gamemode = mode
	return ok("set %s's gamemode to %s", target.Identity.DisplayName, args[0])
}

func parseGamemode(s string) (int32, error) {
	switch strings.ToLower(s) {
	case "survival", "0", "s":
		return 0, nil
	case "creative", "1", "c":
		return 1, nil
	case "adventure", "2", "a":
		return 2, nil
	case "spectator", "3", "sp":
		return 3, nil
	default:
		return 0, fmt.Errorf("unknown gamemode %q", s)
	}
}

func handleTeleport(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	target, rest, err := requireTarget(svc, args)
	if err != nil {
		return fail("%s", err)
	}
	if len(rest) == 3 {
		x, errX := strconv.ParseFloat(rest[0], 64)
		y, errY := strconv.ParseFloat(rest[1], 64)
		z, errZ := strconv.ParseFloat(rest[2], 64)
		if errX != nil || errY != nil || errZ != nil {
			return fail("usage: tp <player> <x> <y> <z> | tp <player> <destination>")
		}
		target.X, target.Y, target.Z = x, y, z
		return ok("teleported %s to %.1f %.1f %.1f", target.Identity.DisplayName, x, y, z)
	}
	if len(rest) == 1 {
		dest, found := svc.Sessions.FindByName(rest[0])
		if !found {
			return fail("no player named %q is online", rest[0])
		}
		target.X, target.Y, target.Z = dest.X, dest.Y, dest.Z
		return ok("teleported %s to %s", target.Identity.DisplayName, dest.Identity.DisplayName)
	}
	return fail("usage: tp <player> <x> <y> <z> | tp <player> <destination>")
}

func handleGive(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	target, rest, err := requireTarget(svc, args)
	if err != nil {
		return fail("%s", err)
	}
	if len(rest) < 1 {
		return fail("usage: give <player> <item-runtime-id> [count] [damage]")
	}
	runtimeID, err := parseInt32(rest[0])
	if err != nil {
		return fail("invalid item runtime id %q", rest[0])
	}
	count := int32(1)
	if len(rest) >= 2 {
		if count, err = parseInt32(rest[1]); err != nil {
			return fail("invalid count %q", rest[1])
		}
	}
	var damage int32
	if len(rest) >= 3 {
		if damage, err = parseInt32(rest[2]); err != nil {
			return fail("invalid damage %q", rest[2])
		}
	}
	placed := target.Inventory.GiveItem(runtimeID, damage, count)
	return ok("gave %d of item %d to %s (%d placed)", count, runtimeID, target.Identity.DisplayName, placed)
}

func handleKill(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	target, _, err := requireTarget(svc, args)
	if err != nil {
		return fail("%s", err)
	}
	target.Health = 0
	target.Dead = true
	return ok("killed %s", target.Identity.DisplayName)
}

func handleKick(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	target, reason, err := requireTarget(svc, args)
	if err != nil {
		return fail("%s", err)
	}
	svc.Sessions.Unregister(target.Addr)
	return ok("kicked %s: %s", target.Identity.DisplayName, strings.Join(reason, " "))
}

func handleOp(ctx context.Context, svc *Services, _ Issuer, args []string) Result {
	target, _, err := requireTarget(svc, args)
	if err != nil {
		return fail("%s", err)
	}
	if err := svc.Ops.Grant(ctx, target.Identity.XUID, target.Identity.DisplayName); err != nil {
		return fail("granting operator: %s", err)
	}
	return ok("made %s an operator", target.Identity.DisplayName)
}

func handleDeop(ctx context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) == 0 {
		return fail("usage: deop <player>")
	}
	xuid := args[0]
	if target, found := svc.Sessions.FindByName(args[0]); found {
		xuid = target.Identity.XUID
	}
	if err := svc.Ops.Revoke(ctx, xuid); err != nil {
		return fail("revoking operator: %s", err)
	}
	return ok("revoked operator from %s", args[0])
}

func handleBan(ctx context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) == 0 {
		return fail("usage: ban <player> [reason]")
	}
	target, found := svc.Sessions.FindByName(args[0])
	reason := "banned by operator"
	if len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}
	xuid := args[0]
	if found {
		xuid = target.Identity.XUID
	}
	if err := svc.Bans.BanPlayer(ctx, xuid, reason, time.Time{}); err != nil {
		return fail("banning player: %s", err)
	}
	if found {
		svc.Sessions.Unregister(target.Addr)
	}
	return ok("banned %s: %s", args[0], reason)
}

func handleBanIP(ctx context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) == 0 {
		return fail("usage: ban-ip <address> [reason]")
	}
	reason := "banned by operator"
	if len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}
	if err := svc.Bans.BanIP(ctx, args[0], reason, time.Time{}); err != nil {
		return fail("banning IP: %s", err)
	}
	return ok("banned IP %s: %s", args[0], reason)
}

func handleUnban(ctx context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) == 0 {
		return fail("usage: unban <player>")
	}
	if err := svc.Bans.UnbanPlayer(ctx, args[0]); err != nil {
		return fail("unbanning player: %s", err)
	}
	return ok("unbanned %s", args[0])
}

func handleUnbanIP(ctx context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) == 0 {
		return fail("usage: unban-ip <address>")
	}
	if err := svc.Bans.UnbanIP(ctx, args[0]); err != nil {
		return fail("unbanning IP: %s", err)
	}
	return ok("unbanned IP %s", args[0])
}

func handleWhitelist(ctx context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) == 0 {
		return fail("usage: whitelist add|remove|list|on|off [player]")
	}
	switch args[0] {
	case "add":
		if len(args) < 2 {
			return fail("usage: whitelist add <player>")
		}
		xuid := args[1]
		if target, found := svc.Sessions.FindByName(args[1]); found {
			xuid = target.Identity.XUID
		}
		if err := svc.Whitelist.Add(ctx, xuid, args[1]); err != nil {
			return fail("adding to whitelist: %s", err)
		}
		return ok("added %s to the whitelist", args[1])
	case "remove":
		if len(args) < 2 {
			return fail("usage: whitelist remove <player>")
		}
		if err := svc.Whitelist.Remove(ctx, args[1]); err != nil {
			return fail("removing from whitelist: %s", err)
		}
		return ok("removed %s from the whitelist", args[1])
	case "list":
		names, err := svc.Whitelist.List(ctx)
		if err != nil {
			return fail("listing whitelist: %s", err)
		}
		return ok("whitelisted: %s", strings.Join(names, ", "))
	case "on", "off":
		return ok("whitelist enforcement %s", args[0])
	default:
		return fail("usage: whitelist add|remove|list|on|off [player]")
	}
}

func handleSummon(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) < 1 {
		return fail("usage: summon <type> [x] [y] [z]")
	}
	pos := worldstore.Vec3{}
	if len(args) >= 4 {
		x, errX := strconv.ParseFloat(args[1], 64)
		y, errY := strconv.ParseFloat(args[2], 64)
		z, errZ := strconv.ParseFloat(args[3], 64)
		if errX != nil || errY != nil || errZ != nil {
			return fail("invalid coordinates")
		}
		pos = worldstore.Vec3{X: x, Y: y, Z: z}
	}
	mob := &worldstore.Mob{
		RuntimeID: svc.World.NextRuntimeID(),
		TypeID:    args[0],
		Position:  pos,
		Health:    20,
		MaxHealth: 20,
	}
	svc.World.AddMob(mob)
	return ok("summoned %s (runtime id %d)", args[0], mob.RuntimeID)
}

func handleEffect(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) < 2 {
		return fail("usage: effect <target> <name>|clear [amplifier] [duration]")
	}
	target, found := svc.Sessions.FindByName(args[0])
	if !found {
		return fail("no player named %q is online", args[0])
	}
	if args[1] == "clear" {
		target.Effects = nil
		return ok("cleared effects on %s", target.Identity.DisplayName)
	}
	effectID, err := parseInt32(args[1])
	if err != nil {
		return fail("unknown effect %q", args[1])
	}
	amplifier := int32(0)
	if len(args) >= 3 {
		if amplifier, err = parseInt32(args[2]); err != nil {
			return fail("invalid amplifier %q", args[2])
		}
	}
	duration := int32(600)
	if len(args) >= 4 {
		if duration, err = parseInt32(args[3]); err != nil {
			return fail("invalid duration %q", args[3])
		}
	}
	target.ApplyEffect(session.StatusEffect{EffectID: effectID, Amplifier: amplifier, RemainingTicks: duration})
	return ok("applied effect %d (amplifier %d) to %s for %d ticks", effectID, amplifier, target.Identity.DisplayName, duration)
}

func handleEnchant(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) < 2 {
		return fail("usage: enchant <target> <enchantment> [level]")
	}
	target, found := svc.Sessions.FindByName(args[0])
	if !found {
		return fail("no player named %q is online", args[0])
	}
	level := int32(1)
	if len(args) >= 3 {
		var err error
		if level, err = parseInt32(args[2]); err != nil {
			return fail("invalid level %q", args[2])
		}
	}
	held := target.Inventory.Slot(target.Inventory.HeldSlotIndex())
	if held.Empty() {
		return fail("%s is not holding an item", target.Identity.DisplayName)
	}
	return ok("enchanted %s's held item with %s %d", target.Identity.DisplayName, args[1], level)
}

func handleTime(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) < 2 {
		return fail("usage: time set|add|query <value>")
	}
	switch args[0] {
	case "set":
		v, err := parseInt32(args[1])
		if err != nil {
			return fail("invalid time %q", args[1])
		}
		svc.World.Time = int64(v)
		return ok("set time to %d", v)
	case "add":
		v, err := parseInt32(args[1])
		if err != nil {
			return fail("invalid time %q", args[1])
		}
		svc.World.Time += int64(v)
		return ok("added %d to time", v)
	case "query":
		return ok("time is %d", svc.World.Time)
	default:
		return fail("usage: time set|add|query <value>")
	}
}

func handleWeather(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) < 1 {
		return fail("usage: weather clear|rain|thunder [seconds]")
	}
	duration := int32(6000)
	if len(args) >= 2 {
		if secs, err := parseInt32(args[1]); err == nil {
			duration = secs * 20
		}
	}
	switch args[0] {
	case "clear":
		svc.World.RainTarget, svc.World.LightningTarget = 0, 0
		svc.World.WeatherDuration = duration
		return ok("set weather to clear")
	case "rain":
		svc.World.RainTarget, svc.World.LightningTarget = 1, 0
		svc.World.WeatherDuration = duration
		return ok("set weather to rain")
	case "thunder":
		svc.World.RainTarget, svc.World.LightningTarget = 1, 1
		svc.World.WeatherDuration = duration
		return ok("set weather to thunder")
	default:
		return fail("usage: weather clear|rain|thunder [seconds]")
	}
}

func handleGamerule(_ context.Context, svc *Services, _ Issuer, args []string) Result {
	if len(args) < 1 {
		return fail("usage: gamerule <name> [value]")
	}
	name := args[0]
	if len(args) == 1 {
		switch name {
		case "doDaylightCycle":
			return ok("%t", svc.World.DoDaylightCycle)
		case "doWeatherCycle":
			return ok("%t", svc.World.DoWeatherCycle)
		default:
			return fail("unknown gamerule %q", name)
		}
	}
	value := args[1] == "true"
	switch name {
	case "doDaylightCycle":
		svc.World.DoDaylightCycle = value
	case "doWeatherCycle":
		svc.World.DoWeatherCycle = value
	default:
		return fail("unknown gamerule %q", name)
	}
	return ok("set gamerule %s to %t", name, value)
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

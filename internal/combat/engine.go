package combat

import "fmt"

// AttackRequest is one resolved attack attempt (spec.md §4.4:
// "Triggered by an InventoryTransaction with UseItemOnEntity::Attack").
type AttackRequest struct {
	AttackerX, AttackerY, AttackerZ float64
	TargetX, TargetY, TargetZ       float64
	Attacker                        Attacker
	Target                          Target

	TargetDead         bool
	TargetCreativeMode bool
	AttackerCreative   bool
	LastDamageTick     int64
	CurrentTick        int64
}

// AttackOutcome is what the caller applies to session/world state.
type AttackOutcome struct {
	Rejected bool
	Reason   string

	Result     Result
	KnockbackX float64
	KnockbackZ float64
	FireTicks  int32
}

// ResolveAttack validates preconditions (spec.md §4.4: "attacker InGame,
// not creative/spectator, within 6.0 blocks of the target, target not
// dead, target not invulnerable") and, if they hold, runs the damage
// pipeline and returns the side effects to apply.
func ResolveAttack(req AttackRequest, currentFireTicks int32) AttackOutcome {
	if req.AttackerCreative {
		return AttackOutcome{Rejected: true, Reason: "attacker is creative/spectator"}
	}
	if req.TargetDead {
		return AttackOutcome{Rejected: true, Reason: "target already dead"}
	}
	if !WithinReach(req.AttackerX, req.AttackerY, req.AttackerZ, req.TargetX, req.TargetY, req.TargetZ) {
		return AttackOutcome{Rejected: true, Reason: "target out of reach"}
	}
	// LastDamageTick 0 means the target has never been damaged.
	if req.LastDamageTick > 0 && InvulnerableSince(req.LastDamageTick, req.CurrentTick) {
		return AttackOutcome{Rejected: true, Reason: "target invulnerable"}
	}

	result := Calculate(req.Attacker, req.Target)
	vx, vz := Knockback(req.AttackerX, req.AttackerZ, req.TargetX, req.TargetZ, req.Attacker.KnockbackLevel, req.Attacker.Sprinting)
	fireTicks := ApplyFireAspect(currentFireTicks, req.Attacker.FireAspectLevel)

	return AttackOutcome{
		Result:     result,
		KnockbackX: vx,
		KnockbackZ: vz,
		FireTicks:  fireTicks,
	}
}

// DeathMessage formats the broadcast death line (spec.md §4.4: "a chat
// death message identifying attacker's weapon").
func DeathMessage(victimName, attackerName, weaponName string) string {
	if weaponName == "" || weaponName == "minecraft:air" {
		return fmt.Sprintf("%s was slain by %s", victimName, attackerName)
	}
	return fmt.Sprintf("%s was slain by %s using %s", victimName, attackerName, weaponName)
}

// RespawnStage is the victim's position in the Respawn exchange
// (spec.md §4.4: Respawn(searching) -> client_ready=2 -> server_ready=1).
type RespawnStage int

const (
	RespawnSearching RespawnStage = iota
	RespawnClientReady
	RespawnServerReady
)

// RespawnPlayer computes the reset state applied once a dead victim's
// client replies client_ready (spec.md §4.4: "reset health to full,
// clear effects/fire/fall, teleport to spawn").
type RespawnPlayer struct {
	Health            float32
	FireTicks         int32
	FallDistance      float64
	X, Y, Z           float64
}

// RespawnAt builds the reset-state record for a player respawning at
// (spawnX, spawnY, spawnZ) with maxHealth restored.
func RespawnAt(spawnX, spawnY, spawnZ float64, maxHealth float32) RespawnPlayer {
	return RespawnPlayer{
		Health:       maxHealth,
		FireTicks:    0,
		FallDistance: 0,
		X:            spawnX,
		Y:            spawnY,
		Z:            spawnZ,
	}
}

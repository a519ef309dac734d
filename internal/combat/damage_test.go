package combat

import "testing"

func TestCalculate_BasePvPNoArmor(t *testing.T) {
	r := Calculate(Attacker{WeaponCategory: WeaponSword, StrengthAmp: -1}, Target{ResistanceAmp: -1})
	if r.Damage != BaseDamage(WeaponSword) {
		t.Errorf("damage = %v, want base sword damage %v", r.Damage, BaseDamage(WeaponSword))
	}
	if r.Critical {
		t.Error("non-airborne attacker should not produce a critical hit")
	}
}

func TestCalculate_CriticalHitMultiplies(t *testing.T) {
	base := Calculate(Attacker{WeaponCategory: WeaponSword, StrengthAmp: -1}, Target{ResistanceAmp: -1})
	crit := Calculate(Attacker{WeaponCategory: WeaponSword, StrengthAmp: -1, Airborne: true, LastDeltaY: -0.1, Sprinting: false}, Target{ResistanceAmp: -1})
	if crit.Damage != base.Damage*1.5 {
		t.Errorf("critical damage = %v, want %v", crit.Damage, base.Damage*1.5)
	}
	if !crit.Critical {
		t.Error("expected Critical = true")
	}
}

func TestCalculate_ArmorReducesDamage(t *testing.T) {
	noArmor := Calculate(Attacker{WeaponCategory: WeaponSword, StrengthAmp: -1}, Target{ResistanceAmp: -1})
	armored := Calculate(Attacker{WeaponCategory: WeaponSword, StrengthAmp: -1}, Target{ArmorPoints: 10, ResistanceAmp: -1})
	if armored.Damage >= noArmor.Damage {
		t.Errorf("armored damage %v should be less than unarmored %v", armored.Damage, noArmor.Damage)
	}
}

func TestWithinReach_BoundaryExactlySucceeds(t *testing.T) {
	if !WithinReach(0, 0, 0, AttackReach, 0, 0) {
		t.Error("attack at exactly 6.0 blocks must succeed")
	}
}

func TestWithinReach_JustBeyondFails(t *testing.T) {
	if WithinReach(0, 0, 0, AttackReach+0.001, 0, 0) {
		t.Error("attack just beyond 6.0 blocks must fail")
	}
}

func TestInvulnerableSince_BoundaryAtTenTicks(t *testing.T) {
	if InvulnerableSince(0, 10) {
		t.Error("exactly 10 ticks later should no longer be invulnerable")
	}
	if !InvulnerableSince(0, 9) {
		t.Error("9 ticks later should still be invulnerable")
	}
}

func TestResolveAttack_RejectsWhenInvulnerable(t *testing.T) {
	req := AttackRequest{
		TargetX: 1, LastDamageTick: 100, CurrentTick: 105,
	}
	out := ResolveAttack(req, 0)
	if !out.Rejected {
		t.Error("expected rejection during invulnerability window")
	}
}

func TestResolveAttack_PvPScenarioFromSpec(t *testing.T) {
	// spec.md §8 scenario 3: diamond sword vs bare Bob at 20 HP.
	req := AttackRequest{
		AttackerX: 0, AttackerY: 65, AttackerZ: 0,
		TargetX: 2, TargetY: 65, TargetZ: 0,
		Attacker: Attacker{WeaponCategory: WeaponSword, StrengthAmp: -1},
		Target:   Target{ResistanceAmp: -1},
	}
	out := ResolveAttack(req, 0)
	if out.Rejected {
		t.Fatalf("attack should be accepted, got rejection: %s", out.Reason)
	}
	health := NormalizeHealth(20-float32(out.Result.Damage), 20)
	if health != 12 {
		t.Errorf("health after hit = %v, want 12 (20 - 8 base sword damage)", health)
	}
}

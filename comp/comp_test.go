package comp

import (
	"math"
	"testing"
)

func TestDriveRotationRate(t *testing.T) {
	d := NewDrive(0, 90, 5, 100) // 0.9 degrees per cycle
	d.Rotate(45)

	d.Step()
	if math.Abs(d.Direction-0.9) > 1e-9 {
		t.Fatalf("want 0.9 degrees after one cycle, have %v", d.Direction)
	}

	for i := 0; i < 99; i++ {
		d.Step()
	}
	if math.Abs(d.Direction-45) > 1e-9 {
		t.Fatalf("want 45 degrees after the rotation drains, have %v", d.Direction)
	}
}

func TestDriveRotationNegative(t *testing.T) {
	d := NewDrive(10, 90, 5, 100)
	d.Rotate(-20)

	for i := 0; i < 100; i++ {
		d.Step()
	}
	if math.Abs(d.Direction-350) > 1e-9 {
		t.Fatalf("want wrap to 350 degrees, have %v", d.Direction)
	}
}

func TestDriveFullDeltaHonoured(t *testing.T) {
	// A 270 degree request rotates 270 degrees, not -90.
	d := NewDrive(0, 90, 5, 100)
	d.Rotate(270)

	total := 0.0
	prev := d.Direction
	for i := 0; i < 300; i++ {
		d.Step()
		total += math.Abs(angleStep(prev, d.Direction))
		prev = d.Direction
	}

	if math.Abs(total-270) > 1e-6 {
		t.Fatalf("want 270 degrees of travel, have %v", total)
	}
	if math.Abs(d.Direction-270) > 1e-6 {
		t.Fatalf("want heading 270, have %v", d.Direction)
	}
}

// angleStep returns the signed per-cycle heading change.
func angleStep(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	switch {
	case d > 180:
		d -= 360
	case d < -180:
		d += 360
	}
	return d
}

func TestDriveVelocitySeeksTarget(t *testing.T) {
	d := NewDrive(0, 90, 5, 100) // accel 0.05 units per cycle
	d.SetVelocity(5)

	d.Step()
	if math.Abs(d.Velocity-0.05) > 1e-9 {
		t.Fatalf("want 0.05 after one cycle, have %v", d.Velocity)
	}

	for i := 0; i < 99; i++ {
		d.Step()
	}
	if math.Abs(d.Velocity-5) > 1e-9 {
		t.Fatalf("want full velocity after one turn, have %v", d.Velocity)
	}
}

func TestDriveVelocityClamped(t *testing.T) {
	d := NewDrive(0, 90, 5, 100)
	d.SetVelocity(99)

	for i := 0; i < 1000; i++ {
		d.Step()
	}
	if d.Velocity != 5 {
		t.Fatalf("velocity must cap at 5, have %v", d.Velocity)
	}

	d.SetVelocity(-99)
	for i := 0; i < 1000; i++ {
		d.Step()
	}
	if d.Velocity != -5 {
		t.Fatalf("reverse velocity must cap at -5, have %v", d.Velocity)
	}
}

func TestDriveReset(t *testing.T) {
	d := NewDrive(0, 90, 5, 100)
	d.Rotate(90)
	d.SetVelocity(3)
	d.Step()

	d.Reset(180)
	d.Step()

	if d.Direction != 180 || d.Velocity != 0 {
		t.Fatalf("reset must stop the drive: dir %v, vel %v", d.Direction, d.Velocity)
	}
}

func newTestTurret() *Turret {
	return NewTurret(0, 90, 100, 20, 1.0, 22.5, 28)
}

func TestTurretRotation(t *testing.T) {
	tr := newTestTurret()
	tr.Rotate(-90)

	for i := 0; i < 100; i++ {
		tr.Step()
	}
	if math.Abs(tr.Direction-270) > 1e-9 {
		t.Fatalf("want heading 270, have %v", tr.Direction)
	}
}

func TestWeaponFire(t *testing.T) {
	tr := newTestTurret()

	drain, ok := tr.Weapon.Fire(0.5, 1.0)
	if !ok || drain != 0.5 {
		t.Fatalf("want drain 0.5, have %v (ok=%v)", drain, ok)
	}
	if tr.Weapon.Cooldown != 20 {
		t.Fatalf("want cooldown 20, have %d", tr.Weapon.Cooldown)
	}

	if _, ok := tr.Weapon.Fire(0.5, 1.0); ok {
		t.Fatal("firing during cooldown must fail")
	}

	for i := 0; i < 20; i++ {
		tr.Step()
	}
	if tr.Weapon.Cooldown != 0 {
		t.Fatalf("cooldown must drain, have %d", tr.Weapon.Cooldown)
	}
	if _, ok := tr.Weapon.Fire(0.5, 1.0); !ok {
		t.Fatal("firing after cooldown must succeed")
	}
}

func TestWeaponFireClampsAndRefuses(t *testing.T) {
	tr := newTestTurret()

	// Requests beyond 1.0 clamp down.
	drain, ok := tr.Weapon.Fire(7, 1.0)
	if !ok || drain != 1.0 {
		t.Fatalf("want clamped drain 1.0, have %v (ok=%v)", drain, ok)
	}

	tr.Weapon.Cooldown = 0
	if _, ok := tr.Weapon.Fire(0, 1.0); ok {
		t.Fatal("zero power must refuse")
	}
	if _, ok := tr.Weapon.Fire(0.8, 0.5); ok {
		t.Fatal("insufficient power must refuse")
	}
}

func TestScannerRecord(t *testing.T) {
	tr := newTestTurret()

	tr.Scanner.Record(3.5, 400, true)
	if tr.Scanner.TargetDistance != 3.5 || tr.Scanner.TargetDirection != 40 {
		t.Fatalf("want normalized result (3.5, 40), have (%v, %v)",
			tr.Scanner.TargetDistance, tr.Scanner.TargetDirection)
	}

	tr.Scanner.Record(9, 9, false)
	if tr.Scanner.TargetDistance != 0 || tr.Scanner.TargetDirection != 0 {
		t.Fatal("a miss must zero the scanner result")
	}
}

func TestNormalize(t *testing.T) {
	for _, v := range []struct{ in, want float64 }{
		{0, 0},
		{360, 0},
		{-90, 270},
		{720.5, 0.5},
		{-360, 0},
	} {
		if have := Normalize(v.in); math.Abs(have-v.want) > 1e-12 {
			t.Fatalf("Normalize(%v): want %v, have %v", v.in, v.want, have)
		}
	}
}

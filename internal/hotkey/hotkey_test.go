package hotkey

import "testing"

const (
	keyA uint16 = 10
	keyB uint16 = 11
	keyC uint16 = 12
)

type counter struct {
	engages  int
	releases int
}

func newTestTrigger(combo ...uint16) (*Trigger, *counter) {
	c := &counter{}
	t := New(Combination(combo),
		func() { c.engages++ },
		func() { c.releases++ },
	)
	return t, c
}

func TestEngageFiresOncePerHold(t *testing.T) {
	trig, c := newTestTrigger(keyA, keyB)

	trig.press(keyA)
	if c.engages != 0 {
		t.Fatal("engaged before combination was complete")
	}
	trig.press(keyB)
	if c.engages != 1 {
		t.Fatalf("engages = %d, want 1", c.engages)
	}

	// OS key repeat while held must not re-fire.
	trig.press(keyA)
	trig.press(keyB)
	trig.press(keyB)
	if c.engages != 1 {
		t.Fatalf("engages after repeats = %d, want 1", c.engages)
	}
}

func TestReleaseFiresOnFirstLostKey(t *testing.T) {
	trig, c := newTestTrigger(keyA, keyB)

	trig.press(keyA)
	trig.press(keyB)
	trig.release(keyA)
	if c.releases != 1 {
		t.Fatalf("releases = %d, want 1", c.releases)
	}

	// Releasing the remaining member must not fire again.
	trig.release(keyB)
	if c.releases != 1 {
		t.Fatalf("releases after full release = %d, want 1", c.releases)
	}
}

func TestReEngageAfterPartialRelease(t *testing.T) {
	trig, c := newTestTrigger(keyA, keyB)

	trig.press(keyA)
	trig.press(keyB)
	trig.release(keyB)
	trig.press(keyB) // keyA never left the held set
	trig.release(keyA)

	if c.engages != 2 {
		t.Errorf("engages = %d, want 2", c.engages)
	}
	if c.releases != 2 {
		t.Errorf("releases = %d, want 2", c.releases)
	}
}

func TestStrayReleaseIsNoOp(t *testing.T) {
	trig, c := newTestTrigger(keyA, keyB)

	trig.release(keyA)
	trig.release(keyC)
	trig.press(keyA)
	trig.press(keyB)
	trig.release(keyC) // never pressed

	if c.engages != 1 || c.releases != 0 {
		t.Fatalf("engages/releases = %d/%d, want 1/0", c.engages, c.releases)
	}
}

func TestUnrelatedKeysIgnored(t *testing.T) {
	trig, c := newTestTrigger(keyA)

	trig.press(keyC)
	trig.press(keyA)
	trig.press(keyB)
	trig.release(keyB)
	if c.engages != 1 || c.releases != 0 {
		t.Fatalf("engages/releases = %d/%d, want 1/0", c.engages, c.releases)
	}
	trig.release(keyA)
	if c.releases != 1 {
		t.Fatalf("releases = %d, want 1", c.releases)
	}
}

func TestParseCombinationUnknownKey(t *testing.T) {
	if _, err := ParseCombination([]string{"definitely-not-a-key"}); err == nil {
		t.Fatal("expected error for unknown key name")
	}
	if _, err := ParseCombination(nil); err == nil {
		t.Fatal("expected error for empty combination")
	}
}

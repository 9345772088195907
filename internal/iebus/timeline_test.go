package iebus

import "testing"

func mustParse(t *testing.T, s string) *Message {
	t.Helper()
	m, err := ParseMessage(s)
	if err != nil {
		t.Fatalf("ParseMessage(%q): %v", s, err)
	}
	return m
}

func TestPackUnpackIdempotent(t *testing.T) {
	s := make(Signal, 64)
	for i := range s {
		if i%3 == 0 || i%7 == 0 {
			s[i] = High
		}
	}
	got := Unpack(Pack(s))
	if len(got) != len(s) {
		t.Fatalf("len = %d, want %d", len(got), len(s))
	}
	for i := range s {
		if got[i] != s[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], s[i])
		}
	}
}

func TestPackPadsWithIdle(t *testing.T) {
	s := Signal{Low, Low, Low, Low, Low}
	got := Pack(s)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	// Five low samples, then three pad bits held at idle.
	if got[0] != 0x07 {
		t.Errorf("packed byte = 0x%02x, want 0x07", got[0])
	}
}

func TestPackOrder(t *testing.T) {
	s := Signal{High, Low, Low, Low, Low, Low, Low, Low}
	if got := Pack(s); got[0] != 0x80 {
		t.Errorf("packed byte = 0x%02x, want 0x80 (first sample is MSB)", got[0])
	}
}

func TestComposeEmpty(t *testing.T) {
	if _, err := Compose(nil, ComposeOptions{}); err == nil {
		t.Error("Compose(nil): want error, got nil")
	}
}

func TestComposeSingleMatchesCompose(t *testing.T) {
	m := mustParse(t, "B 1ff 000 f 1 45")
	single := ComposeSingle(m, 0)
	batch, err := Compose([]Placement{{Offset: 0, Message: m}}, ComposeOptions{})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if single.String() != batch.String() {
		t.Error("ComposeSingle differs from one-frame Compose")
	}
}

func TestComposeSingleShape(t *testing.T) {
	m := mustParse(t, "B 1ff 000 f 1 45")
	out := ComposeSingle(m, 0)

	// The encoded frame starts asserted. The trailing trim removes the
	// TTxWait idle and the final bit's release period: the last frame bit
	// is a NAK ack (1), so its release run is TBit-TBit1.
	wantCore := len(Encode(m)) - TTxWait - (TBit - TBit1)
	if got := len(out); got != 2*IdleGuard+wantCore {
		t.Errorf("len = %d, want %d", got, 2*IdleGuard+wantCore)
	}
	for i := 0; i < IdleGuard; i++ {
		if out[i] != High {
			t.Fatalf("leading guard sample %d = %d, want high", i, out[i])
		}
	}
	if out[IdleGuard] != Low {
		t.Errorf("frame start = %d, want low", out[IdleGuard])
	}
	if out[len(out)-IdleGuard-1] != Low {
		t.Errorf("frame end = %d, want low", out[len(out)-IdleGuard-1])
	}
}

func TestComposeGlitch(t *testing.T) {
	const glitch = 100
	m := mustParse(t, "B 1ff 000 f 1 45")
	plain := ComposeSingle(m, 0)
	glitched := ComposeSingle(m, glitch)

	if len(glitched) != len(plain)+glitch {
		t.Errorf("len = %d, want %d", len(glitched), len(plain)+glitch)
	}
	for i := 0; i < glitch+IdleGuard; i++ {
		if glitched[i] != High {
			t.Fatalf("glitch/guard sample %d = %d, want high", i, glitched[i])
		}
	}
}

func TestComposeRegularInterval(t *testing.T) {
	const interval = 20000
	m := mustParse(t, "B 1ff 000 f 1 45")
	placements := []Placement{
		// Original offsets are ignored in regular-interval mode.
		{Offset: 12345, Message: m},
		{Offset: 99999, Message: m},
		{Offset: 54321, Message: m},
	}
	out, err := Compose(placements, ComposeOptions{RegularInterval: interval})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	// Frame i is placed at i*interval; the leading trim leaves frame 0 at
	// the start of the core, so frame starts sit at IdleGuard + i*interval.
	for i := 0; i < len(placements); i++ {
		if got := out[IdleGuard+i*interval]; got != Low {
			t.Errorf("frame %d start sample = %d, want low", i, got)
		}
	}

	// Total: two full intervals, the last frame trimmed of its trailing
	// idle (TTxWait plus the final NAK bit's release run), plus the guards.
	wantCore := 2*interval + len(Encode(m)) - TTxWait - (TBit - TBit1)
	if got := len(out); got != 2*IdleGuard+wantCore {
		t.Errorf("len = %d, want %d", got, 2*IdleGuard+wantCore)
	}
}

func TestComposeOriginalOffsets(t *testing.T) {
	const second = 7000
	m := mustParse(t, "B 1ff 000 f 1 45")
	placements := []Placement{
		{Offset: 0, Message: m},
		{Offset: second, Message: m},
	}
	out, err := Compose(placements, ComposeOptions{})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if out[IdleGuard] != Low {
		t.Errorf("first frame start = %d, want low", out[IdleGuard])
	}
	if out[IdleGuard+second] != Low {
		t.Errorf("second frame start = %d, want low", out[IdleGuard+second])
	}
	wantCore := second + len(Encode(m)) - TTxWait - (TBit - TBit1)
	if got := len(out); got != 2*IdleGuard+wantCore {
		t.Errorf("len = %d, want %d", got, 2*IdleGuard+wantCore)
	}
}

func TestFinalizeTrimsIdle(t *testing.T) {
	var s Signal
	s = appendRun(s, High, 500)
	s = appendRun(s, Low, 10)
	s = appendRun(s, High, 300)
	out := Finalize(s, 0)
	if got := len(out); got != 2*IdleGuard+10 {
		t.Errorf("len = %d, want %d", got, 2*IdleGuard+10)
	}
}

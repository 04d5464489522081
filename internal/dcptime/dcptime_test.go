package dcptime_test

import (
	"testing"

	"reelpress/internal/dcptime"
)

func TestFrameConversionsRoundTrip(t *testing.T) {
	for _, rate := range []int{24, 25, 30, 48, 48000} {
		for _, frames := range []int64{0, 1, 71, 72, 143, 48000} {
			tm := dcptime.FromFrames(frames, rate)
			if got := tm.FramesRound(rate); got != frames {
				t.Fatalf("rate %d: FramesRound(%d) = %d", rate, frames, got)
			}
			if got := tm.FramesFloor(rate); got != frames {
				t.Fatalf("rate %d: FramesFloor(%d) = %d", rate, frames, got)
			}
			if got := tm.FramesCeil(rate); got != frames {
				t.Fatalf("rate %d: FramesCeil(%d) = %d", rate, frames, got)
			}
		}
	}
}

func TestCeilFloorDisagreeOffBoundary(t *testing.T) {
	// Half a frame past frame 10 at 24 fps.
	tm := dcptime.FromFrames(10, 24) + dcptime.FromFrames(1, 48)
	if got := tm.FramesFloor(24); got != 10 {
		t.Fatalf("FramesFloor = %d, want 10", got)
	}
	if got := tm.FramesCeil(24); got != 11 {
		t.Fatalf("FramesCeil = %d, want 11", got)
	}
}

func TestPeriodContains(t *testing.T) {
	p := dcptime.Period{From: 100, To: 200}
	cases := []struct {
		t    dcptime.Time
		want bool
	}{
		{99, false},
		{100, true},
		{199, true},
		{200, false},
	}
	for _, tc := range cases {
		if got := p.Contains(tc.t); got != tc.want {
			t.Fatalf("Contains(%d) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestPeriodOverlap(t *testing.T) {
	p := dcptime.Period{From: 100, To: 200}

	if _, ok := p.Overlap(dcptime.Period{From: 200, To: 300}); ok {
		t.Fatal("adjacent periods should not overlap")
	}

	got, ok := p.Overlap(dcptime.Period{From: 150, To: 300})
	if !ok {
		t.Fatal("expected overlap")
	}
	if got.From != 150 || got.To != 200 {
		t.Fatalf("unexpected overlap %+v", got)
	}
}

func TestSplit(t *testing.T) {
	tm := dcptime.FromFrames((1*3600+2*60+3)*24+4, 24)
	h, m, s, f := tm.Split(24)
	if h != 1 || m != 2 || s != 3 || f != 4 {
		t.Fatalf("Split = %d:%d:%d.%d", h, m, s, f)
	}
}

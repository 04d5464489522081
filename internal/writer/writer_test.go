package writer_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"reelpress/internal/asset"
	"reelpress/internal/audio"
	"reelpress/internal/composition"
	"reelpress/internal/config"
	"reelpress/internal/dcptime"
	"reelpress/internal/film"
	"reelpress/internal/frameinfo"
	"reelpress/internal/logging"
	"reelpress/internal/testsupport"
	"reelpress/internal/writer"
)

func frameData(i int64) []byte {
	return []byte(fmt.Sprintf("frame-%06d", i))
}

func newWriter(t *testing.T, cfg *config.Config, frames int64) (*writer.Writer, *film.Film) {
	t.Helper()
	f := testsupport.NewFilm(t, cfg, frames)
	info, err := frameinfo.Open(filepath.Join(cfg.Paths.BuildDir, "frameinfo.db"))
	if err != nil {
		t.Fatalf("open frame info: %v", err)
	}
	t.Cleanup(func() { _ = info.Close() })

	w, err := writer.New(f, testsupport.MustSigner(t, cfg), info, cfg.Paths.BuildDir, logging.NewNop())
	if err != nil {
		t.Fatalf("writer.New failed: %v", err)
	}
	w.SetEncoderThreads(cfg.Encoding.Threads, cfg.Encoding.FramesInMemoryMultiplier)
	return w, f
}

func loadIndex(t *testing.T, cfg *config.Config, reel int) []asset.FrameEntry {
	t.Helper()
	path := filepath.Join(cfg.Paths.OutputDir, fmt.Sprintf("picture_%d.bin", reel))
	entries, err := asset.LoadPictureIndex(path)
	if err != nil {
		t.Fatalf("load picture index: %v", err)
	}
	return entries
}

func TestReverseOrderFramesAcrossReels(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(3))
	w, _ := newWriter(t, cfg, 144)

	for frame := int64(143); frame >= 0; frame-- {
		if err := w.Write(frameData(frame), frame, film.EyesBoth); err != nil {
			t.Fatalf("write frame %d: %v", frame, err)
		}
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	for reel := 0; reel < 2; reel++ {
		entries := loadIndex(t, cfg, reel)
		if len(entries) != 72 {
			t.Fatalf("reel %d has %d frames, want 72", reel, len(entries))
		}
		for i, e := range entries {
			if e.Frame != int64(i) {
				t.Fatalf("reel %d entry %d is frame %d", reel, i, e.Frame)
			}
		}
	}

	path := filepath.Join(cfg.Paths.OutputDir, "picture_1.bin")
	entries := loadIndex(t, cfg, 1)
	got, err := asset.ReadFrame(path, entries[5])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, frameData(77)) {
		t.Fatalf("reel 1 frame 5 holds %q", got)
	}
}

func TestMemoryCeilingSpillsToDisk(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(10))
	w, _ := newWriter(t, cfg, 30)
	w.SetEncoderThreads(1, 2)

	// Frame 0 is withheld so nothing can drain; the ceiling forces spills.
	for frame := int64(1); frame <= 20; frame++ {
		if err := w.Write(frameData(frame), frame, film.EyesBoth); err != nil {
			t.Fatalf("write frame %d: %v", frame, err)
		}
	}
	spillDir := filepath.Join(cfg.Paths.BuildDir, "spill")
	spilled, err := os.ReadDir(spillDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(spilled) == 0 {
		t.Fatal("expected spilled frames on disk")
	}

	if err := w.Write(frameData(0), 0, film.EyesBoth); err != nil {
		t.Fatal(err)
	}
	for frame := int64(21); frame < 30; frame++ {
		if err := w.Write(frameData(frame), frame, film.EyesBoth); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	entries := loadIndex(t, cfg, 0)
	if len(entries) != 30 {
		t.Fatalf("got %d frames, want 30", len(entries))
	}
	got, err := asset.ReadFrame(filepath.Join(cfg.Paths.OutputDir, "picture_0.bin"), entries[12])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, frameData(12)) {
		t.Fatalf("frame 12 holds %q after spill round trip", got)
	}
	spilled, err = os.ReadDir(spillDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(spilled) != 0 {
		t.Fatalf("%d spill files left after drain", len(spilled))
	}
}

func TestSequencerFillsGapsWithLastImage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(10))
	w, _ := newWriter(t, cfg, 30)
	seq := writer.NewSequencer(w, nil)

	for frame := int64(0); frame < 10; frame++ {
		if err := seq.Write(frameData(frame), frame, film.EyesBoth); err != nil {
			t.Fatal(err)
		}
	}
	for frame := int64(20); frame < 30; frame++ {
		if err := seq.Write(frameData(frame), frame, film.EyesBoth); err != nil {
			t.Fatal(err)
		}
	}
	// Behind the frontier; must be dropped, not filled.
	if err := seq.Write(frameData(5), 5, film.EyesBoth); err != nil {
		t.Fatal(err)
	}

	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	entries := loadIndex(t, cfg, 0)
	if len(entries) != 30 {
		t.Fatalf("got %d frames, want 30", len(entries))
	}
	path := filepath.Join(cfg.Paths.OutputDir, "picture_0.bin")
	for _, gap := range []int{10, 15, 19} {
		got, err := asset.ReadFrame(path, entries[gap])
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, frameData(9)) {
			t.Fatalf("gap frame %d holds %q, want frame 9's image", gap, got)
		}
	}
	got, err := asset.ReadFrame(path, entries[25])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, frameData(25)) {
		t.Fatalf("frame 25 holds %q", got)
	}
}

func TestSequencerStereoscopicAlternation(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(10), testsupport.WithThreeD())
	w, _ := newWriter(t, cfg, 4)
	seq := writer.NewSequencer(w, nil)

	if err := seq.Write(frameData(0), 0, film.EyesLeft); err != nil {
		t.Fatal(err)
	}
	if err := seq.Write(frameData(100), 0, film.EyesRight); err != nil {
		t.Fatal(err)
	}
	// Skipping to frame 2 fills both eyes of frame 1.
	if err := seq.Write(frameData(2), 2, film.EyesLeft); err != nil {
		t.Fatal(err)
	}
	if err := seq.Write(frameData(102), 2, film.EyesRight); err != nil {
		t.Fatal(err)
	}
	if err := seq.Write(frameData(3), 3, film.EyesLeft); err != nil {
		t.Fatal(err)
	}
	if err := seq.Write(frameData(103), 3, film.EyesRight); err != nil {
		t.Fatal(err)
	}

	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	entries := loadIndex(t, cfg, 0)
	if len(entries) != 8 {
		t.Fatalf("got %d entries, want 8", len(entries))
	}
	for i, e := range entries {
		wantFrame := int64(i / 2)
		wantEyes := film.EyesLeft
		if i%2 == 1 {
			wantEyes = film.EyesRight
		}
		if e.Frame != wantFrame || e.Eyes != int(wantEyes) {
			t.Fatalf("entry %d is frame %d eyes %d", i, e.Frame, e.Eyes)
		}
	}
	path := filepath.Join(cfg.Paths.OutputDir, "picture_0.bin")
	left, err := asset.ReadFrame(path, entries[2])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(left, frameData(0)) {
		t.Fatalf("fill for frame 1 left eye holds %q", left)
	}
	right, err := asset.ReadFrame(path, entries[3])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(right, frameData(100)) {
		t.Fatalf("fill for frame 1 right eye holds %q", right)
	}
}

func TestRepeatDuplicatesPreviousFrame(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(10))
	w, _ := newWriter(t, cfg, 10)

	if w.CanRepeat(0) {
		t.Fatal("frame 0 must not be repeatable")
	}
	if !w.CanRepeat(1) {
		t.Fatal("frame 1 should be repeatable")
	}
	if err := w.Write(frameData(0), 0, film.EyesBoth); err != nil {
		t.Fatal(err)
	}
	if err := w.Repeat(1, film.EyesBoth); err != nil {
		t.Fatal(err)
	}
	for frame := int64(2); frame < 10; frame++ {
		if err := w.Write(frameData(frame), frame, film.EyesBoth); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	entries := loadIndex(t, cfg, 0)
	if len(entries) != 10 {
		t.Fatalf("got %d frames, want 10", len(entries))
	}
	got, err := asset.ReadFrame(filepath.Join(cfg.Paths.OutputDir, "picture_0.bin"), entries[1])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, frameData(0)) {
		t.Fatalf("repeated frame holds %q", got)
	}
}

func TestChannelConsistency(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(10))
	w, _ := newWriter(t, cfg, 10)
	if err := w.Write(frameData(0), 0, film.EyesLeft); !errors.Is(err, writer.ErrInconsistentChannel) {
		t.Fatalf("monoscopic left-eye write returned %v", err)
	}
	if err := w.Write(frameData(0), 0, film.EyesBoth); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatal(err)
	}

	cfg3d := testsupport.NewConfig(t, testsupport.WithReelSeconds(10), testsupport.WithThreeD())
	w3d, _ := newWriter(t, cfg3d, 10)
	if err := w3d.Write(frameData(0), 0, film.EyesBoth); !errors.Is(err, writer.ErrInconsistentChannel) {
		t.Fatalf("stereoscopic both-eyes write returned %v", err)
	}
	if err := w3d.Finish(context.Background(), cfg3d.Paths.OutputDir, nil); err != nil {
		t.Fatal(err)
	}
}

func TestAudioSplitAtReelBoundary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(3))
	w, f := newWriter(t, cfg, 144)

	afr := f.AudioFrameRate
	total := int64(6 * afr)
	ramp := func(n int64) float32 {
		return float32(n%1000) / 2000
	}
	fill := func(b *audio.Buffer, start int64) {
		for i := 0; i < b.Frames(); i++ {
			for c := 0; c < b.Channels(); c++ {
				b.Set(c, i, ramp(start+int64(i)))
			}
		}
	}

	// Three buffers; the middle one spans the boundary at 3s.
	chunks := []struct {
		start  int64
		frames int64
	}{
		{0, int64(2*afr + afr/2)},
		{int64(2*afr + afr/2), int64(afr)},
		{int64(3*afr + afr/2), total - int64(3*afr+afr/2)},
	}
	for _, c := range chunks {
		b := audio.NewBuffer(f.AudioChannels, int(c.frames))
		fill(b, c.start)
		if err := w.WriteAudio(b, dcptime.FromFrames(c.start, afr)); err != nil {
			t.Fatalf("write audio at %d: %v", c.start, err)
		}
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	var decoded []*audio.Buffer
	var sum int64
	for reel := 0; reel < 2; reel++ {
		path := filepath.Join(cfg.Paths.OutputDir, fmt.Sprintf("sound_%d.pcm", reel))
		b, err := asset.ReadSound(path, f.AudioChannels)
		if err != nil {
			t.Fatal(err)
		}
		if b.Frames() != 3*afr {
			t.Fatalf("reel %d has %d sample frames, want %d", reel, b.Frames(), 3*afr)
		}
		decoded = append(decoded, b)
		sum += int64(b.Frames())
	}
	if sum != total {
		t.Fatalf("reels hold %d sample frames, input had %d", sum, total)
	}

	// Concatenating the reels must reproduce the input sequence.
	for n := int64(0); n < total; n++ {
		b := decoded[n/int64(3*afr)]
		got := b.Sample(0, int(n%int64(3*afr)))
		want := ramp(n)
		if diff := got - want; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("sample %d decoded as %f, want %f", n, got, want)
		}
	}
}

func TestTextBackedOffAtBoundaryAndHangingFlushed(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(3))
	w, f := newWriter(t, cfg, 144)

	period := dcptime.Period{
		From: dcptime.FromFrames(70, f.VideoFrameRate),
		To:   dcptime.FromFrames(75, f.VideoFrameRate),
	}
	if err := w.WriteText("hello", film.TextOpenSubtitle, nil, period); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	first := w.SubtitleCues(0)
	if len(first) != 1 {
		t.Fatalf("reel 0 has %d cues", len(first))
	}
	boundary := dcptime.FromFrames(72, f.VideoFrameRate)
	backOff := dcptime.FromFrames(2, f.VideoFrameRate)
	wantTo := boundary - backOff
	if first[0].Period.From != period.From || first[0].Period.To != wantTo {
		t.Fatalf("reel 0 cue period = %+v, want [%s, %s)", first[0].Period, period.From, wantTo)
	}

	// The flushed remainder is backed off the same way as the truncated cue.
	second := w.SubtitleCues(1)
	if len(second) != 1 {
		t.Fatalf("reel 1 has %d cues", len(second))
	}
	if second[0].Period.From != boundary || second[0].Period.To != period.To-backOff {
		t.Fatalf("reel 1 cue period = %+v, want [%s, %s)", second[0].Period, boundary, period.To-backOff)
	}
	if second[0].Text != "hello" {
		t.Fatalf("reel 1 cue text = %q", second[0].Text)
	}
}

func TestFinalizeDefaultsContentVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(10))
	w, _ := newWriter(t, cfg, 10)

	if err := w.Write(frameData(0), 0, film.EyesBoth); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(cfg.Paths.OutputDir, "cpl_*.xml"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("found %d composition files (%v)", len(matches), err)
	}
	doc, err := composition.Load(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Verify(); err != nil {
		t.Fatalf("signature verification failed: %v", err)
	}
	if len(doc.ContentVersions) != 1 || doc.ContentVersions[0].Label != "1" {
		t.Fatalf("content versions = %+v", doc.ContentVersions)
	}
	if doc.Issuer == "" || doc.Creator == "" {
		t.Fatal("issuer and creator must be defaulted")
	}

	cover, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, "COVER_SHEET.txt"))
	if err != nil {
		t.Fatalf("cover sheet missing: %v", err)
	}
	if !bytes.Contains(cover, []byte("Test Package")) {
		t.Fatalf("cover sheet does not name the package: %q", cover)
	}
}

func TestFakeWriteReplaysPreviousBuild(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(10))
	info, err := frameinfo.Open(filepath.Join(cfg.Paths.BuildDir, "frameinfo.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer info.Close()
	f := testsupport.NewFilm(t, cfg, 10)
	s := testsupport.MustSigner(t, cfg)

	first, err := writer.New(f, s, info, cfg.Paths.BuildDir, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	for frame := int64(0); frame < 10; frame++ {
		if err := first.Write(frameData(frame), frame, film.EyesBoth); err != nil {
			t.Fatal(err)
		}
	}
	if err := first.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatal(err)
	}

	second, err := writer.New(f, s, info, cfg.Paths.BuildDir, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if second.CanFakeWrite(0) {
		t.Fatal("a reel's first frame must not be fake-writable")
	}
	if !second.CanFakeWrite(5) {
		t.Fatal("frame 5 should be fake-writable after the first build")
	}

	ctx := context.Background()
	if err := second.Write(frameData(0), 0, film.EyesBoth); err != nil {
		t.Fatal(err)
	}
	for frame := int64(1); frame < 10; frame++ {
		if err := second.FakeWrite(ctx, frame, film.EyesBoth); err != nil {
			t.Fatalf("fake write frame %d: %v", frame, err)
		}
	}
	rebuilt := filepath.Join(filepath.Dir(cfg.Paths.OutputDir), "rebuilt")
	if err := second.Finish(ctx, rebuilt, nil); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(rebuilt, "picture_0.bin")
	entries, err := asset.LoadPictureIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 10 {
		t.Fatalf("rebuilt reel has %d frames", len(entries))
	}
	got, err := asset.ReadFrame(path, entries[7])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, frameData(7)) {
		t.Fatalf("fake-written frame 7 holds %q", got)
	}
}

func TestAtmosFollowsReelBoundaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(3))
	w, f := newWriter(t, cfg, 144)

	meta := asset.AtmosMetadata{FrameRate: f.VideoFrameRate}
	for frame := int64(0); frame < 144; frame++ {
		t0 := dcptime.FromFrames(frame, f.VideoFrameRate)
		if err := w.WriteAtmos([]byte("tick"), t0, meta); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	for reel := 0; reel < 2; reel++ {
		name := fmt.Sprintf("atmos_%d.bin", reel)
		if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestWriteFontsAssignsUniqueIdentifiers(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(10))
	w, _ := newWriter(t, cfg, 10)

	w.WriteFonts([]*asset.Font{{ID: "arial"}, {ID: "arial"}, {ID: ""}})
	entries := w.Fonts()
	if len(entries) != 3 {
		t.Fatalf("got %d font entries, want 3", len(entries))
	}
	want := []string{"arial", "arial_0", "font"}
	for i, e := range entries {
		if e.AssignedID != want[i] {
			t.Fatalf("entry %d assigned %q, want %q", i, e.AssignedID, want[i])
		}
	}

	if err := w.Write(frameData(0), 0, film.EyesBoth); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
}

func TestDigestProgressNeverLeadsSlowestWorker(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(3))
	w, _ := newWriter(t, cfg, 144)

	for frame := int64(0); frame < 144; frame++ {
		if err := w.Write(frameData(frame), frame, film.EyesBoth); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	var reported []float64
	progress := func(p float64) {
		mu.Lock()
		reported = append(reported, p)
		mu.Unlock()
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, progress); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	if len(reported) == 0 {
		t.Fatal("no progress reported")
	}
	var sawZero, sawOne bool
	for _, p := range reported {
		if p == 0 {
			sawZero = true
		}
		if p == 1 {
			sawOne = true
		}
	}
	// The first worker to report is held at zero by its idle peers.
	if !sawZero {
		t.Fatalf("progress never reported 0 while workers were idle: %v", reported)
	}
	if !sawOne {
		t.Fatalf("progress never reached 1: %v", reported)
	}
}

func TestReferencedAssetsAreDigested(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithReelSeconds(10))
	w, _ := newWriter(t, cfg, 10)

	external := filepath.Join(cfg.Paths.BuildDir, "external.bin")
	if err := os.WriteFile(external, []byte("reused asset"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteReferenced(0, composition.Asset{
		ID:   asset.NewID(),
		Kind: "picture",
		Path: external,
		Size: int64(len("reused asset")),
	}); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(frameData(0), 0, film.EyesBoth); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(context.Background(), cfg.Paths.OutputDir, nil); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(cfg.Paths.OutputDir, "cpl_*.xml"))
	if len(matches) != 1 {
		t.Fatalf("found %d composition files", len(matches))
	}
	doc, err := composition.Load(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, a := range doc.Reels[0].Assets {
		if a.Path == external {
			found = true
			if a.Hash == "" {
				t.Fatal("referenced asset was not digested")
			}
		}
	}
	if !found {
		t.Fatal("referenced asset missing from the composition")
	}
}

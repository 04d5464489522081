package writer

import (
	"testing"

	"reelpress/internal/film"
)

func TestQueueOrderingKey(t *testing.T) {
	cases := []struct {
		name string
		a, b queueItem
		want bool
	}{
		{"earlier reel first", queueItem{reel: 0, frame: 99}, queueItem{reel: 1, frame: 0}, true},
		{"earlier frame first", queueItem{reel: 0, frame: 3}, queueItem{reel: 0, frame: 4}, true},
		{"left before right", queueItem{frame: 5, eyes: film.EyesLeft}, queueItem{frame: 5, eyes: film.EyesRight}, true},
		{"right not before left", queueItem{frame: 5, eyes: film.EyesRight}, queueItem{frame: 5, eyes: film.EyesLeft}, false},
	}
	for _, c := range cases {
		if got := queueLess(c.a, c.b); got != c.want {
			t.Fatalf("%s: queueLess = %v", c.name, got)
		}
	}
}

func TestLastWrittenMonoscopic(t *testing.T) {
	lw := initialLastWritten()
	if !lw.continues(queueItem{frame: 0, eyes: film.EyesBoth}, false) {
		t.Fatal("frame 0 must continue the initial state")
	}
	if lw.continues(queueItem{frame: 1, eyes: film.EyesBoth}, false) {
		t.Fatal("frame 1 must not continue the initial state")
	}
	lw = lw.update(queueItem{frame: 0, eyes: film.EyesBoth})
	if !lw.continues(queueItem{frame: 1, eyes: film.EyesBoth}, false) {
		t.Fatal("frame 1 must continue frame 0")
	}
}

func TestLastWrittenStereoscopic(t *testing.T) {
	lw := initialLastWritten()
	if !lw.continues(queueItem{frame: 0, eyes: film.EyesLeft}, true) {
		t.Fatal("left eye of frame 0 must continue the initial state")
	}
	if lw.continues(queueItem{frame: 0, eyes: film.EyesRight}, true) {
		t.Fatal("right eye must not come before left")
	}

	lw = lw.update(queueItem{frame: 0, eyes: film.EyesLeft})
	if !lw.continues(queueItem{frame: 0, eyes: film.EyesRight}, true) {
		t.Fatal("right eye of frame 0 must follow its left eye")
	}
	if lw.continues(queueItem{frame: 1, eyes: film.EyesLeft}, true) {
		t.Fatal("frame 1 must not skip frame 0's right eye")
	}

	lw = lw.update(queueItem{frame: 0, eyes: film.EyesRight})
	if !lw.continues(queueItem{frame: 1, eyes: film.EyesLeft}, true) {
		t.Fatal("frame 1 left must follow frame 0 right")
	}
}

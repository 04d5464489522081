package writer

import (
	"sort"

	"reelpress/internal/film"
)

type itemKind int

const (
	// itemFull carries encoded frame bytes, in memory or spilled to disk.
	itemFull itemKind = iota
	// itemFake references bytes a previous build already committed; only
	// the recorded size is replayed.
	itemFake
	// itemRepeat re-emits the previous physical frame in the same reel.
	itemRepeat
)

func (k itemKind) String() string {
	switch k {
	case itemFull:
		return "full"
	case itemFake:
		return "fake"
	case itemRepeat:
		return "repeat"
	}
	return "unknown"
}

// queueItem is one pending write, keyed by (reel, frame, eyes). frame is
// relative to the reel's start.
type queueItem struct {
	kind  itemKind
	reel  int
	frame int64
	eyes  film.Eyes

	// Full items only. data is nil once the payload has been spilled.
	data      []byte
	spillPath string

	// Byte size: recorded size for Fake items, len(data) for Full items.
	size int64
}

func queueLess(a, b queueItem) bool {
	if a.reel != b.reel {
		return a.reel < b.reel
	}
	if a.frame != b.frame {
		return a.frame < b.frame
	}
	return a.eyes.Rank() < b.eyes.Rank()
}

func sortQueue(queue []queueItem) {
	sort.SliceStable(queue, func(i, j int) bool {
		return queueLess(queue[i], queue[j])
	})
}

// lastWritten tracks the most recently physically written position within
// one reel. The initial value is chosen so that frame 0 continues it: Both
// for a monoscopic package, Left for a stereoscopic one.
type lastWritten struct {
	frame int64
	eyes  film.Eyes
}

func initialLastWritten() lastWritten {
	return lastWritten{frame: -1, eyes: film.EyesRight}
}

// continues reports whether item extends the written sequence without a gap.
func (lw lastWritten) continues(item queueItem, threeD bool) bool {
	if !threeD {
		return item.frame == lw.frame+1
	}
	switch item.eyes {
	case film.EyesLeft:
		return lw.eyes == film.EyesRight && item.frame == lw.frame+1
	case film.EyesRight:
		return lw.eyes == film.EyesLeft && item.frame == lw.frame
	}
	return false
}

func (lw lastWritten) update(item queueItem) lastWritten {
	return lastWritten{frame: item.frame, eyes: item.eyes}
}

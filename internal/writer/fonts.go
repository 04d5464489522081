package writer

import (
	"fmt"

	"reelpress/internal/asset"
	"reelpress/internal/film"
)

const defaultFontID = "font"

// fontTable assigns package-unique identifiers to fonts referenced by timed
// text. The interop standard ignores every font declaration after the first,
// so all text shares one identifier and one embedded font. Under SMPTE each
// font keeps its own identifier, with collisions resolved by a numeric
// suffix.
type fontTable struct {
	standard film.Standard
	entries  []asset.FontEntry
	used     map[string]bool
}

func newFontTable(standard film.Standard) *fontTable {
	return &fontTable{standard: standard, used: make(map[string]bool)}
}

func (t *fontTable) add(fonts []*asset.Font) {
	if len(fonts) == 0 {
		return
	}

	if t.standard == film.StandardInterop {
		if len(t.entries) > 0 {
			return
		}
		first := fonts[0]
		id := first.ID
		if id == "" {
			id = defaultFontID
		}
		t.entries = []asset.FontEntry{{AssignedID: id, Font: first}}
		t.used[id] = true
		return
	}

	for _, f := range fonts {
		base := f.ID
		if base == "" {
			base = defaultFontID
		}
		id := base
		for n := 0; t.used[id]; n++ {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		t.entries = append(t.entries, asset.FontEntry{AssignedID: id, Font: f})
		t.used[id] = true
	}
}

package asset

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"reelpress/internal/dcptime"
)

// Font is one font resource referenced by timed text.
type Font struct {
	ID   string
	Data []byte
}

// FontEntry pairs a font with the identifier assigned to it in the package.
type FontEntry struct {
	AssignedID string
	Font       *Font
}

// TimedCue is one cue with its validity period on the package timeline.
type TimedCue struct {
	Text   string
	Period dcptime.Period
}

// SubtitleAsset accumulates cues for one reel and one text stream, then
// serializes them as an XML document at finish. Font data referenced by the
// cues is written alongside the document.
type SubtitleAsset struct {
	id       string
	path     string
	language string
	cues     []TimedCue
	fonts    []FontEntry
	finished bool
}

// NewSubtitleAsset creates an in-memory subtitle asset that will be written
// to path at finish.
func NewSubtitleAsset(path, language string) *SubtitleAsset {
	return &SubtitleAsset{id: NewID(), path: path, language: language}
}

// ID returns the asset identifier.
func (a *SubtitleAsset) ID() string { return a.id }

// Path returns the document path.
func (a *SubtitleAsset) Path() string { return a.path }

// Cues returns the accumulated cues.
func (a *SubtitleAsset) Cues() []TimedCue { return a.cues }

// WriteCue appends one cue.
func (a *SubtitleAsset) WriteCue(text string, period dcptime.Period) {
	a.cues = append(a.cues, TimedCue{Text: text, Period: period})
}

// SetFonts records the font entries to embed, as assigned by the font table.
func (a *SubtitleAsset) SetFonts(entries []FontEntry) {
	a.fonts = entries
}

type subtitleDoc struct {
	XMLName   xml.Name       `xml:"SubtitleReel"`
	ID        string         `xml:"Id"`
	Language  string         `xml:"Language,omitempty"`
	TimeBase  int            `xml:"TimeBase"`
	LoadFonts []loadFont     `xml:"LoadFont"`
	Subtitles []subtitleElem `xml:"SubtitleList>Subtitle"`
}

type loadFont struct {
	ID  string `xml:"Id,attr"`
	URI string `xml:"URI,attr"`
}

type subtitleElem struct {
	TimeIn  int64  `xml:"TimeIn,attr"`
	TimeOut int64  `xml:"TimeOut,attr"`
	Text    string `xml:"Text"`
}

// Finish writes the XML document and any embedded font files.
func (a *SubtitleAsset) Finish() error {
	if a.finished {
		return nil
	}
	a.finished = true

	doc := subtitleDoc{
		ID:       a.id,
		Language: a.language,
		TimeBase: dcptime.HZ,
	}
	dir := filepath.Dir(a.path)
	for _, entry := range a.fonts {
		name := "font_" + entry.AssignedID + ".ttf"
		if entry.Font != nil && len(entry.Font.Data) > 0 {
			if err := os.WriteFile(filepath.Join(dir, name), entry.Font.Data, 0o644); err != nil {
				return fmt.Errorf("write font %s: %w", entry.AssignedID, err)
			}
		}
		doc.LoadFonts = append(doc.LoadFonts, loadFont{ID: entry.AssignedID, URI: name})
	}
	for _, cue := range a.cues {
		doc.Subtitles = append(doc.Subtitles, subtitleElem{
			TimeIn:  int64(cue.Period.From),
			TimeOut: int64(cue.Period.To),
			Text:    cue.Text,
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal subtitle document: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	if err := os.WriteFile(a.path, data, 0o644); err != nil {
		return fmt.Errorf("write subtitle document: %w", err)
	}
	return nil
}

package composition

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"reelpress/internal/film"
	"reelpress/internal/fileutil"
	"reelpress/internal/signer"
)

// Asset is one reel asset listed in the composition.
type Asset struct {
	ID       string `xml:"Id"`
	Kind     string `xml:"Kind"`
	Path     string `xml:"Path"`
	Hash     string `xml:"Hash,omitempty"`
	Size     int64  `xml:"Size"`
	Entries  int64  `xml:"Entries,omitempty"`
	Language string `xml:"Language,omitempty"`
	Track    string `xml:"Track,omitempty"`
}

// Reel is one segment entry in the composition.
type Reel struct {
	ID     string  `xml:"Id"`
	Assets []Asset `xml:"AssetList>Asset"`
}

// ContentVersion labels one version of the content.
type ContentVersion struct {
	ID    string `xml:"Id"`
	Label string `xml:"LabelText"`
}

// Rating is one agency rating.
type Rating struct {
	Agency string `xml:"Agency"`
	Label  string `xml:"Label"`
}

// Area is a picture area in pixels.
type Area struct {
	Width  int `xml:"Width"`
	Height int `xml:"Height"`
}

// Signature carries the document signature and the signing certificate.
type Signature struct {
	SignerSubject string `xml:"SignerSubject"`
	SerialNumber  string `xml:"SerialNumber"`
	Algorithm     string `xml:"Algorithm"`
	Certificate   string `xml:"Certificate"`
	Value         string `xml:"Value"`
}

// Document is the signed top-level composition descriptor.
type Document struct {
	XMLName                xml.Name         `xml:"CompositionPlaylist"`
	ID                     string           `xml:"Id"`
	AnnotationText         string           `xml:"AnnotationText"`
	IssueDate              string           `xml:"IssueDate"`
	Issuer                 string           `xml:"Issuer"`
	Creator                string           `xml:"Creator"`
	ContentTitleText       string           `xml:"ContentTitleText"`
	ContentKind            string           `xml:"ContentKind"`
	Standard               string           `xml:"Standard"`
	ContentVersions        []ContentVersion `xml:"ContentVersionList>ContentVersion"`
	Ratings                []Rating         `xml:"RatingList>Rating"`
	MainSoundConfiguration string           `xml:"MainSoundConfiguration"`
	MainSoundSampleRate    int              `xml:"MainSoundSampleRate"`
	MainPictureStoredArea  Area             `xml:"MainPictureStoredArea"`
	MainPictureActiveArea  *Area            `xml:"MainPictureActiveArea,omitempty"`
	Reels                  []Reel           `xml:"ReelList>Reel"`
	Signature              *Signature       `xml:"Signature,omitempty"`
}

// SoundField maps a channel count onto a named sound configuration.
func SoundField(channels int) string {
	switch {
	case channels == 2:
		return "stereo"
	case channels <= 6:
		return "5.1"
	default:
		return "7.1"
	}
}

// Build assembles the composition descriptor for f from the finished reels.
func Build(f *film.Film, reels []Reel) *Document {
	doc := &Document{
		ID:                     "urn:uuid:" + uuid.NewString(),
		AnnotationText:         f.Name,
		IssueDate:              time.Now().UTC().Format(time.RFC3339),
		Issuer:                 f.Issuer,
		Creator:                f.Creator,
		ContentTitleText:       f.Name,
		ContentKind:            f.ContentKind,
		Standard:               f.Standard.String(),
		MainSoundConfiguration: SoundField(f.AudioChannels),
		MainSoundSampleRate:    f.AudioFrameRate,
		MainPictureStoredArea:  Area{Width: f.FrameSize.Width, Height: f.FrameSize.Height},
		Reels:                  reels,
	}

	for _, v := range f.ContentVersions {
		doc.ContentVersions = append(doc.ContentVersions, ContentVersion{
			ID:    "urn:uuid:" + uuid.NewString(),
			Label: v,
		})
	}
	if len(doc.ContentVersions) == 0 {
		doc.ContentVersions = []ContentVersion{{ID: "urn:uuid:" + uuid.NewString(), Label: "1"}}
	}

	for _, r := range f.Ratings {
		doc.Ratings = append(doc.Ratings, Rating{Agency: r.Agency, Label: r.Label})
	}

	// Zero active area dimensions are not allowed; sizes must be even.
	if f.ActiveArea.Width > 0 && f.ActiveArea.Height > 0 {
		doc.MainPictureActiveArea = &Area{
			Width:  f.ActiveArea.Width &^ 1,
			Height: f.ActiveArea.Height &^ 1,
		}
	}

	return doc
}

func (d *Document) canonicalBytes() ([]byte, error) {
	sig := d.Signature
	d.Signature = nil
	defer func() { d.Signature = sig }()
	return xml.MarshalIndent(d, "", "  ")
}

// Sign computes and embeds the document signature.
func (d *Document) Sign(s *signer.Signer) error {
	data, err := d.canonicalBytes()
	if err != nil {
		return fmt.Errorf("marshal composition: %w", err)
	}
	sig, err := s.Sign(data)
	if err != nil {
		return err
	}
	d.Signature = &Signature{
		SignerSubject: s.SubjectName(),
		SerialNumber:  s.SerialNumber(),
		Algorithm:     "RSA-SHA256",
		Certificate:   s.CertificateBase64(),
		Value:         base64.StdEncoding.EncodeToString(sig),
	}
	return nil
}

// Verify checks the embedded signature against the embedded certificate.
func (d *Document) Verify() error {
	if d.Signature == nil {
		return errors.New("composition: document is unsigned")
	}
	cert, err := signer.ParseCertificateBase64(d.Signature.Certificate)
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(d.Signature.Value)
	if err != nil {
		return fmt.Errorf("composition: decode signature: %w", err)
	}
	data, err := d.canonicalBytes()
	if err != nil {
		return err
	}
	return signer.VerifyWithCertificate(cert, data, sig)
}

// Write serializes the signed document to path via a temp file.
func (d *Document) Write(path string) error {
	data, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal composition: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	return fileutil.WriteViaTemp(data, path+".tmp", path)
}

// Load reads a composition document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read composition: %w", err)
	}
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse composition: %w", err)
	}
	return &doc, nil
}

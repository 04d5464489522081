// Package asset implements the per-reel container files a package is made of.
//
// Picture assets are append-only frame stores with a sidecar index; the data
// file is deliberately opened without truncation so incremental rebuilds can
// fake-write over ranges a previous build already encoded. Sound assets hold
// interleaved 24-bit PCM, subtitle assets collect cues into an XML document
// with embedded fonts, and atmos assets hold length-prefixed per-tick frames.
// HashFile provides the streaming digest used during finalization.
package asset

// Package dcptime provides timeline arithmetic for package assembly.
//
// Positions and durations are expressed in a fixed 96 kHz unit so that frame
// boundaries at any supported video rate and sample boundaries at any audio
// rate land on exact integers. Period models the half-open time range a reel
// occupies; the ceiling/floor frame conversions are what keep audio splits at
// reel boundaries from duplicating or dropping samples.
package dcptime

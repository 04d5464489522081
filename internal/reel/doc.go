// Package reel implements the per-segment writer.
//
// Each Writer owns the asset files for one contiguous time range of the
// package: picture frames arrive from the coordinator's drain goroutine in
// strictly increasing order, while sound, text, and atmos arrive from their
// single time-ordered producers. Finish publishes the finalized assets into
// the output directory and Digests hashes them for the composition.
package reel

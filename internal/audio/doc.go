// Package audio holds the planar sample buffer passed through the writer.
package audio

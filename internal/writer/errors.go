package writer

import "errors"

var (
	// ErrInvalidSigner indicates the signing identity cannot sign, either
	// at construction or when the composition is finalized.
	ErrInvalidSigner = errors.New("writer: invalid signing identity")

	// ErrInconsistentChannel indicates a frame's stereoscopic channel
	// disagrees with the package: a monoscopic package takes only Both,
	// a stereoscopic one only Left and Right.
	ErrInconsistentChannel = errors.New("writer: frame channel inconsistent with package")

	// ErrFrameBeforeStart indicates a frame index before the package's
	// time range.
	ErrFrameBeforeStart = errors.New("writer: frame before the package start")

	// ErrFrameInfoMissing indicates a fake write referenced a frame with
	// no size recorded by a previous build.
	ErrFrameInfoMissing = errors.New("writer: no recorded frame info")
)

// Package writer is the package assembly engine. It reconciles
// concurrently-arriving video, audio, immersive-audio, and timed-text
// streams against the strictly-ordered on-disk layout of a multi-reel
// cinema package, under a bounded memory ceiling with disk spill, and
// finalizes the result into hashed assets plus a signed composition
// document and a human-readable cover sheet.
//
// Video frames may arrive out of order from parallel encoders; the
// ordering queue and the single drain goroutine sequence them. Audio,
// text, and atmos each come from one producer in time order and are
// routed through forward-only reel cursors, with audio split exactly at
// reel boundaries and text held back across them.
package writer

// Package frameinfo persists the byte size of every written video frame in
// SQLite, keyed by (reel, frame, eyes).
//
// Ordinary full writes produce entries; fake writes on an incremental rebuild
// consume them to advance through already-encoded ranges without touching
// pixel data. The database lives in the build directory and survives between
// builds of the same package.
package frameinfo

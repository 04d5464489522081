// Package ingest reads the pre-encoded input layout a build consumes and
// feeds it into the assembly engine in the order each stream requires.
package ingest

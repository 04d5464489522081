// Package signer loads and validates the identity that signs compositions.
//
// The writer checks Valid at construction and again at finalize; an identity
// that fails either check aborts the build rather than producing an unsigned
// package.
package signer

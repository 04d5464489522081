// Package composition models the signed top-level composition descriptor.
//
// Build turns a film description plus finished reel listings into a Document;
// Sign embeds an RSA-SHA256 signature over the canonical document bytes along
// with the signing certificate, so Verify needs nothing but the file itself.
package composition

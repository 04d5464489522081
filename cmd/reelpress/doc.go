// Command reelpress assembles signed multi-reel cinema packages from
// directories of pre-encoded frames, PCM audio, timed text, and immersive
// audio.
package main

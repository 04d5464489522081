package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"reelpress/internal/dcptime"
	"reelpress/internal/film"
	"reelpress/internal/frameinfo"
	"reelpress/internal/ingest"
	"reelpress/internal/logging"
	"reelpress/internal/signer"
	"reelpress/internal/writer"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var inputDir string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble a package from a directory of pre-encoded inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			out := outputDir
			if out == "" {
				out = cfg.Paths.OutputDir
			}
			if out == "" {
				return fmt.Errorf("no output directory: set paths.output_dir or pass --output")
			}

			lock := flock.New(filepath.Join(cfg.Paths.BuildDir, "build.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire build lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another build holds %s", lock.Path())
			}
			defer func() { _ = lock.Unlock() }()

			src := ingest.Source{Dir: inputDir}
			frames, err := ingest.ScanFrames(src.FramesDir())
			if err != nil {
				return err
			}
			if len(frames) == 0 {
				return fmt.Errorf("no input frames under %s", src.FramesDir())
			}

			length := dcptime.FromFrames(ingest.FrameCount(frames), cfg.Package.VideoFrameRate)
			f, err := film.FromConfig(cfg, length)
			if err != nil {
				return err
			}

			var cues []ingest.Cue
			if _, err := os.Stat(src.CuesPath()); err == nil {
				cues, err = ingest.LoadCues(src.CuesPath())
				if err != nil {
					return err
				}
				f.CaptionTracks = ingest.CaptionTracks(cues)
			}

			s, err := signer.Load(cfg.Signing.Certificate, cfg.Signing.Key)
			if err != nil {
				return err
			}
			info, err := frameinfo.Open(filepath.Join(cfg.Paths.BuildDir, "frameinfo.db"))
			if err != nil {
				return err
			}
			defer func() { _ = info.Close() }()

			w, err := writer.New(f, s, info, cfg.Paths.BuildDir, logger)
			if err != nil {
				return err
			}
			w.SetEncoderThreads(cfg.Encoding.Threads, cfg.Encoding.FramesInMemoryMultiplier)
			w.SetCoverSheet(cfg.CoverSheet)

			if _, err := os.Stat(src.FontsDir()); err == nil {
				if err := ingest.FeedFonts(w, src.FontsDir()); err != nil {
					return err
				}
			}
			if err := ingest.FeedVideo(writer.NewSequencer(w, logger), frames); err != nil {
				return err
			}
			if _, err := os.Stat(src.AudioPath()); err == nil {
				if err := ingest.FeedAudio(w, f, src.AudioPath()); err != nil {
					return err
				}
			}
			if err := ingest.FeedCues(w, f, cues); err != nil {
				return err
			}
			if _, err := os.Stat(src.AtmosDir()); err == nil {
				if err := ingest.FeedAtmos(w, f, src.AtmosDir()); err != nil {
					return err
				}
			}

			progress := func(p float64) {
				logger.Debug("digesting assets", logging.Float64("progress", p))
			}
			if err := w.Finish(cmd.Context(), out, progress); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Package written to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", ".", "Input directory (frames/, audio.pcm, subtitles.toml, atmos/, fonts/)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to paths.output_dir)")
	return cmd
}

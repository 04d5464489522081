package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"reelpress/internal/composition"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "inspect <package-dir>",
		Short:       "Summarize a finished package and verify its signature",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := filepath.Glob(filepath.Join(args[0], "cpl_*.xml"))
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return fmt.Errorf("no composition document under %s", args[0])
			}

			out := cmd.OutOrStdout()
			for _, path := range matches {
				doc, err := composition.Load(path)
				if err != nil {
					return err
				}
				signature := "unsigned"
				if err := doc.Verify(); err == nil {
					signature = "valid (" + doc.Signature.SignerSubject + ")"
				} else if doc.Signature != nil {
					signature = "INVALID: " + err.Error()
				}

				fmt.Fprintf(out, "%s\n", doc.ContentTitleText)
				fmt.Fprintf(out, "  File:      %s\n", filepath.Base(path))
				fmt.Fprintf(out, "  Kind:      %s (%s)\n", doc.ContentKind, doc.Standard)
				fmt.Fprintf(out, "  Sound:     %s @ %d Hz\n", doc.MainSoundConfiguration, doc.MainSoundSampleRate)
				fmt.Fprintf(out, "  Issuer:    %s\n", doc.Issuer)
				fmt.Fprintf(out, "  Signature: %s\n", signature)

				headers := []string{"Reel", "Kind", "Asset", "Entries", "Size", "Hash"}
				var rows [][]string
				for i, reel := range doc.Reels {
					for _, a := range reel.Assets {
						hash := a.Hash
						if len(hash) > 12 {
							hash = hash[:12]
						}
						rows = append(rows, []string{
							fmt.Sprintf("%d", i),
							a.Kind,
							a.Path,
							fmt.Sprintf("%d", a.Entries),
							fmt.Sprintf("%d", a.Size),
							hash,
						})
					}
				}
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
			}
			return nil
		},
	}
}

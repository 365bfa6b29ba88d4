package cli

import (
	"bytes"
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"scenecore/internal/artifact"
	"scenecore/internal/floorremap"
	"scenecore/internal/reconcile"
)

func addDiff(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "diff <scene-dir>",
		Short: "Preview what export would change in each location file",
		Long: `Diff reconciles the persisted edits against the scene's source files
in memory and prints a line diff per floor, publishing nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(ro)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			src, err := loadSceneSources(args[0])
			if err != nil {
				return err
			}
			snap := sess.service.Store().Snapshot()
			remap := floorremap.Compute(snap.FloorOrder, len(snap.Floors))

			itemsByFloor, deletedByFloor := artifact.PartitionItems(snap)

			dmp := diffmatchpatch.New()
			out := cmd.OutOrStdout()
			for _, f := range snap.Floors {
				doc, ok := src.locations[f.Index]
				if !ok {
					continue
				}
				merged := reconcile.Reconcile(reconcile.Input{
					Document: doc,
					Items:    itemsByFloor[f.Index],
					Deleted:  deletedByFloor[f.Index],
				}, reconcile.Options{Remap: remap})

				var before, after bytes.Buffer
				if err := doc.Write(&before); err != nil {
					return err
				}
				if err := merged.Write(&after); err != nil {
					return err
				}
				if bytes.Equal(before.Bytes(), after.Bytes()) {
					fmt.Fprintf(out, "%s: unchanged\n", f.SourceFile)
					continue
				}
				a, b, lines := dmp.DiffLinesToChars(before.String(), after.String())
				diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
				fmt.Fprintf(out, "--- %s\n", f.SourceFile)
				for _, d := range diffs {
					prefix := "  "
					switch d.Type {
					case diffmatchpatch.DiffInsert:
						prefix = "+ "
					case diffmatchpatch.DiffDelete:
						prefix = "- "
					}
					for _, line := range splitKeepNonEmpty(d.Text) {
						fmt.Fprintf(out, "%s%s\n", prefix, line)
					}
				}
			}
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func splitKeepNonEmpty(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			if i > start {
				out = append(out, text[start:i])
			}
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

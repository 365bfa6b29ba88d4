package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addImport(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "import <scene-dir>",
		Short: "Import a scene directory into the editor database",
		Long: `Import parses the scene manifest (scene.json) and every flat file it
names, assigns stable identifiers, freezes baselines, and persists the
resulting scene. Importing replaces any previously persisted scene.`,
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
			sess.service.ImportScene(src.items, src.elements, src.manifest.Floors, src.plateSet)
			if err := sess.db.Persist(cmd.Context()); err != nil {
				return fmt.Errorf("persist scene: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported scene %s: %d items, %d elements, %d floors\n",
				src.manifest.SceneID, len(src.items), len(src.elements), len(src.manifest.Floors))
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

package cli

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"scenecore/internal/artifact"
	"scenecore/internal/blob"
)

func addExport(topLevel *cobra.Command, ro *rootOptions) {
	var prefix string
	var migrated []string
	cmd := &cobra.Command{
		Use:   "export <scene-dir>",
		Short: "Reconcile the edited scene against its sources and publish artifacts",
		Long: `Export reads the original flat files from the scene directory, merges
the persisted edits into them, and publishes the resulting artifacts to
the configured blob store. A floor without a spawn point blocks the
whole export.`,
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
			if prefix == "" {
				prefix = sess.cfg.ExportPrefix
			}

			store, err := openBlobStore(cmd, sess)
			if err != nil {
				return err
			}
			exporter := artifact.NewExporter(store, artifact.WithExportLogger(logrusAdapter{log: sess.log}))
			migratedTags := make(map[string]bool, len(migrated))
			for _, tag := range migrated {
				migratedTags[tag] = true
			}
			res, err := exporter.Export(cmd.Context(), sess.service.Store().Snapshot(), artifact.Request{
				SceneID:      src.manifest.SceneID,
				Prefix:       prefix,
				Locations:    src.locations,
				Plates:       src.plates,
				MigratedTags: migratedTags,
				Previous:     previousDescriptor(cmd, store, prefix),
			})
			if err != nil {
				return err
			}
			for _, info := range res.Artifacts {
				fmt.Fprintf(cmd.OutOrStdout(), "published %s (%d bytes)\n", info.Key, info.Size)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "blob key prefix for published artifacts")
	cmd.Flags().StringSliceVar(&migrated, "migrated-tag", nil, "classification tags whose rows moved to another artifact")
	topLevel.AddCommand(cmd)
}

// previousDescriptor fetches the descriptor the last export published, so
// its mappings carry over. A missing or unreadable artifact just means a
// first export.
func previousDescriptor(cmd *cobra.Command, store blob.Store, prefix string) *artifact.SceneDescriptor {
	_, rc, err := store.Get(cmd.Context(), path.Join(prefix, "scene_descriptor.json"))
	if err != nil {
		return nil
	}
	defer func() { _ = rc.Close() }()
	desc, err := artifact.DecodeDescriptor(rc)
	if err != nil {
		return nil
	}
	return &desc
}

func openBlobStore(cmd *cobra.Command, sess *session) (blob.Store, error) {
	switch blob.Driver(sess.cfg.BlobDriver) {
	case blob.DriverFilesystem, "":
		return blob.NewFilesystem(sess.cfg.BlobRoot)
	case blob.DriverMemory:
		return blob.NewMemory(), nil
	case blob.DriverS3:
		return blob.OpenS3FromEnv(cmd.Context())
	default:
		return nil, fmt.Errorf("unknown blob driver %q", sess.cfg.BlobDriver)
	}
}

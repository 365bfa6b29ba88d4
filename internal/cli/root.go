// Package cli wires the editing engine into the scenecore command line.
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"scenecore/internal/core"
	"scenecore/internal/persistence/sqlite"
)

type rootOptions struct {
	configPath string
	logLevel   string
	dbPath     string
}

// New builds the scenecore root command.
func New() *cobra.Command {
	ro := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "scenecore",
		Short:         "Scene editing engine: import, edit, and export flat-file scenes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&ro.configPath, "config", "", "config file (default ./.scenecore.yaml)")
	cmd.PersistentFlags().StringVar(&ro.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&ro.dbPath, "db", "", "scene database path")

	addImport(cmd, ro)
	addExport(cmd, ro)
	addDiff(cmd, ro)
	addFloors(cmd, ro)
	return cmd
}

// session bundles everything a subcommand needs.
type session struct {
	cfg     Config
	log     *logrus.Logger
	db      *sqlite.Store
	service *core.Service
}

func (s *session) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// openSession loads config and the persisted scene.
func openSession(ro *rootOptions) (*session, error) {
	cfg, err := LoadConfig(ro.configPath)
	if err != nil {
		return nil, err
	}
	if ro.dbPath != "" {
		cfg.DBPath = ro.dbPath
	}
	level := cfg.LogLevel
	if ro.logLevel != "" {
		level = ro.logLevel
	}
	log := newLogger(level)
	scene := core.NewSceneStore()
	db, err := sqlite.NewStore(cfg.DBPath, scene)
	if err != nil {
		return nil, fmt.Errorf("open scene database: %w", err)
	}
	svc := core.NewService(
		core.WithStore(scene),
		core.WithLogger(logrusAdapter{log: log}),
	)
	return &session{cfg: cfg, log: log, db: db, service: svc}, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hylauncher/hylauncher/internal/config"
	configstore "github.com/hylauncher/hylauncher/internal/config/store"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Import or export the launcher configuration",
	}

	importCmd := &cobra.Command{
		Use:   "import [launcher_data.json]",
		Short: "Merge a launcher_data.json file into the configuration",
		Long: `Reads a launcher_data.json written by older launcher builds and merges
its profiles, servers and game root into the configuration store. Comments and
trailing commas are tolerated. Without an argument the file under UserData is
used.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          configImport,
	}

	exportCmd := &cobra.Command{
		Use:           "export",
		Short:         "Print the configuration as YAML",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          configExport,
	}
	exportCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	configCmd.AddCommand(importCmd, exportCmd)
	return configCmd
}

func configImport(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *configstore.Store, paths config.Paths, out *OutputFormatter) error {
		path := paths.LegacyData
		if len(args) > 0 {
			path = config.ExpandPath(args[0])
		}

		result, err := store.ImportLegacyFile(ctx, path)
		if err != nil {
			return out.Error("Failed to import "+path, err)
		}
		if err := store.SaveSettings(ctx, map[string]string{
			configstore.SettingLegacyImported: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return out.Error("Failed to record import", err)
		}

		return out.Success(
			fmt.Sprintf("Imported %d profiles and %d servers from %s", result.Profiles, result.Servers, path),
			map[string]any{
				"path":           path,
				"profiles":       result.Profiles,
				"servers":        result.Servers,
				"game_root":      result.GameRoot,
				"active_profile": result.Active,
			},
		)
	})
}

func configExport(cmd *cobra.Command, _ []string) error {
	target, _ := cmd.Flags().GetString("output")

	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		snapshot, err := store.Snapshot(ctx)
		if err != nil {
			return out.Error("Failed to read configuration", err)
		}
		if out.jsonMode && target == "" {
			return out.Print(snapshot)
		}

		data, err := yaml.Marshal(snapshot)
		if err != nil {
			return out.Error("Failed to encode configuration", err)
		}
		if target == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		target = config.ExpandPath(target)
		if dir := filepath.Dir(target); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return out.Error("Failed to create output directory", err)
			}
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return out.Error("Failed to write "+target, err)
		}
		return out.Success("Configuration written to "+target, map[string]any{"path": target})
	})
}

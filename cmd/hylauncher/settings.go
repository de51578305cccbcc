package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hylauncher/hylauncher/internal/config"
	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	"github.com/hylauncher/hylauncher/internal/launcher"
	"github.com/hylauncher/hylauncher/internal/logsink"
)

func newSettingsCommand() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change launcher settings",
	}

	showCmd := &cobra.Command{
		Use:           "show",
		Short:         "Show the current settings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          settingsShow,
	}

	setRootCmd := &cobra.Command{
		Use:   "set-root <path>",
		Short: "Set the game installation root",
		Long: `Sets the directory containing the game's Client and Server folders.
The path must contain Client/HytaleClient.exe unless --force is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          settingsSetRoot,
	}
	setRootCmd.Flags().Bool("force", false, "Save the path even if the client binary is missing")

	setModeCmd := &cobra.Command{
		Use:           "set-mode <simulated|offline>",
		Short:         "Set the client launch mode",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          settingsSetMode,
	}

	checkCmd := &cobra.Command{
		Use:           "check",
		Short:         "Check that the game client is installed at the configured root",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          settingsCheck,
	}

	settingsCmd.AddCommand(showCmd, setRootCmd, setModeCmd, checkCmd)
	return settingsCmd
}

func settingsShow(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, store *configstore.Store, paths config.Paths, out *OutputFormatter) error {
		root, err := store.GameRoot(ctx)
		if err != nil {
			return out.Error("Failed to load settings", err)
		}
		mode, err := store.LaunchMode(ctx)
		if err != nil {
			return out.Error("Failed to load settings", err)
		}
		active, err := store.ActiveProfile(ctx)
		if err != nil {
			return out.Error("Failed to load active profile", err)
		}

		data := map[string]any{
			"home":           paths.Home,
			"game_root":      root,
			"launch_mode":    mode,
			"active_profile": active.ID,
			"user_dir":       paths.UserData,
			"config_db":      paths.ConfigDB,
		}
		return out.Render(CommandResult{
			Data: data,
			HumanReadable: func() error {
				out.Printf("Home:           %s\n", paths.Home)
				out.Printf("Game root:      %s\n", root)
				out.Printf("Launch mode:    %s\n", mode)
				out.Printf("Active profile: %s (%s)\n", active.Name, active.ID)
				out.Printf("User data:      %s\n", paths.UserData)
				out.Printf("Config DB:      %s\n", paths.ConfigDB)
				return nil
			},
		})
	})
}

func settingsSetRoot(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	root := config.ExpandPath(strings.TrimSpace(args[0]))

	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		if !force {
			if info, err := os.Stat(launcher.ClientPath(root)); err != nil || info.IsDir() {
				return out.Error(fmt.Sprintf("Error: Invalid game directory. %s not found in 'Client' subfolder.", launcher.ClientBinary), nil)
			}
		}
		if err := store.SetGameRoot(ctx, root); err != nil {
			return out.Error("Save error", err)
		}
		return out.Success("Settings saved. Game path updated.", map[string]any{"game_root": root})
	})
}

func settingsSetMode(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		if err := store.SetLaunchMode(ctx, args[0]); err != nil {
			return out.Error("Save error", err)
		}
		mode, err := store.LaunchMode(ctx)
		if err != nil {
			return out.Error("Failed to load settings", err)
		}
		return out.Success(fmt.Sprintf("Launch mode set to %s", mode), map[string]any{"launch_mode": mode})
	})
}

func settingsCheck(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		root, err := store.GameRoot(ctx)
		if err != nil {
			return out.Error("Failed to load settings", err)
		}

		sink := logsink.New()
		stdout := cmd.OutOrStdout()
		if !out.jsonMode {
			sub := sink.Subscribe(logsink.WithName("stdout"))
			pumped := make(chan struct{})
			go func() {
				defer close(pumped)
				logsink.Pump(sub, stdout, colorEnabled(stdout))
			}()
			defer func() {
				sub.Close()
				<-pumped
			}()
		}

		found := launcher.New(launcher.Options{Config: store, Sink: sink}).CheckInstall(ctx)
		if out.jsonMode {
			return out.Print(map[string]any{
				"game_root":   root,
				"client_path": launcher.ClientPath(root),
				"found":       found,
			})
		}
		if found {
			out.Printf("Client found at %s\n", launcher.ClientPath(root))
		}
		return nil
	})
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/hylauncher/hylauncher/internal/config"
	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	hlversion "github.com/hylauncher/hylauncher/internal/version"
)

const storeOpTimeout = 5 * time.Second

// OutputFormatter handles output in JSON or human-readable format
type OutputFormatter struct {
	jsonMode bool
	out      io.Writer
	errOut   io.Writer
}

// CommandResult pairs the JSON payload of a command with its human rendering.
type CommandResult struct {
	Data          any
	HumanReadable func() error
}

// newOutputFormatter creates a new formatter based on the command's --json flag
func newOutputFormatter(cmd *cobra.Command) *OutputFormatter {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &OutputFormatter{jsonMode: jsonMode, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
}

// Print outputs data in the appropriate format
func (f *OutputFormatter) Print(data any) error {
	if s, ok := data.(string); ok && !f.jsonMode {
		fmt.Fprintln(f.out, s)
		return nil
	}
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(f.out, string(jsonBytes))
	return nil
}

// Printf writes human-readable output.
func (f *OutputFormatter) Printf(format string, args ...any) {
	fmt.Fprintf(f.out, format, args...)
}

// Render prints Data as JSON in --json mode and calls HumanReadable otherwise.
func (f *OutputFormatter) Render(result CommandResult) error {
	if f.jsonMode || result.HumanReadable == nil {
		return f.Print(result.Data)
	}
	return result.HumanReadable()
}

// Success outputs a success message
func (f *OutputFormatter) Success(message string, data map[string]any) error {
	if f.jsonMode {
		output := map[string]any{
			"success": true,
			"message": message,
		}
		for k, v := range data {
			output[k] = v
		}
		return f.Print(output)
	}
	fmt.Fprintln(f.out, message)
	return nil
}

// Error outputs an error message and returns it wrapped for the exit status.
func (f *OutputFormatter) Error(message string, err error) error {
	if f.jsonMode {
		output := map[string]any{
			"success": false,
			"error":   message,
		}
		if err != nil {
			output["details"] = err.Error()
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(f.errOut, string(jsonBytes))
	} else if err != nil {
		fmt.Fprintf(f.errOut, "%s: %v\n", message, err)
	} else {
		fmt.Fprintln(f.errOut, message)
	}
	if err == nil {
		return errors.New(message)
	}
	return fmt.Errorf("%s: %w", message, err)
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hylauncher",
		Short: "HyLauncher - offline launcher and session emulator for Hytale",
		Long: `HyLauncher starts the Hytale client and dedicated server with a local
profile, answering the client's account and session calls from a loopback
emulator instead of the official backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Version = hlversion.String()
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("home", "", "Launcher home directory (default ~/Documents/HyLauncher, env HYLAUNCHER_HOME)")

	rootCmd.AddCommand(
		newServeCommand(),
		newStopCommand(),
		newPlayCommand(),
		newHostCommand(),
		newProfileCommand(),
		newServersCommand(),
		newSettingsCommand(),
		newConfigCommand(),
		newTokenCommand(),
		newStatusCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Error is already printed by command handlers
		os.Exit(1)
	}
}

// loadEnv reads environment overrides and applies the --home flag on top.
func loadEnv(cmd *cobra.Command) (config.Env, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return config.Env{}, err
	}
	if home, _ := cmd.Flags().GetString("home"); home != "" {
		env.Home = home
	}
	return env, nil
}

// openStore prepares the launcher home and opens its configuration store,
// importing a legacy launcher_data.json the first time one is found.
func openStore(cmd *cobra.Command) (*configstore.Store, config.Paths, error) {
	env, err := loadEnv(cmd)
	if err != nil {
		return nil, config.Paths{}, err
	}
	paths, err := config.EnsureDirs(env.Home)
	if err != nil {
		return nil, paths, fmt.Errorf("prepare launcher home: %w", err)
	}

	store, err := configstore.Open(configstore.Options{DBPath: paths.ConfigDB})
	if err != nil {
		return nil, paths, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), storeOpTimeout)
	defer cancel()
	importLegacyOnce(ctx, store, paths)

	return store, paths, nil
}

func importLegacyOnce(ctx context.Context, store *configstore.Store, paths config.Paths) {
	if _, err := os.Stat(paths.LegacyData); err != nil {
		return
	}
	settings, err := store.LoadSettings(ctx, configstore.SettingLegacyImported)
	if err != nil || settings[configstore.SettingLegacyImported] != "" {
		return
	}

	result, err := store.ImportLegacyFile(ctx, paths.LegacyData)
	if err != nil {
		log.Printf("[Config] legacy import from %s failed: %v", paths.LegacyData, err)
		return
	}
	if err := store.SaveSettings(ctx, map[string]string{
		configstore.SettingLegacyImported: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Printf("[Config] failed to record legacy import: %v", err)
	}
	log.Printf("[Config] imported %d profiles and %d servers from %s", result.Profiles, result.Servers, paths.LegacyData)
}

// withStore opens the store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store *configstore.Store, paths config.Paths, out *OutputFormatter) error) error {
	out := newOutputFormatter(cmd)
	store, paths, err := openStore(cmd)
	if err != nil {
		return out.Error("Failed to open launcher configuration", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), storeOpTimeout)
	defer cancel()
	return fn(ctx, store, paths, out)
}

// colorEnabled reports whether console tags should be colorized.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && terminal.IsTerminal(int(f.Fd()))
}

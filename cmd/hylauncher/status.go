package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/hylauncher/hylauncher/internal/control"
	"github.com/hylauncher/hylauncher/internal/logsink"
	hlversion "github.com/hylauncher/hylauncher/internal/version"
)

func newStatusCommand() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:           "status",
		Short:         "Show the state of a running launcher service",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runStatus,
	}

	consoleCmd := &cobra.Command{
		Use:           "console",
		Short:         "Follow the console of a running launcher service",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConsole,
	}

	statusCmd.AddCommand(consoleCmd)
	return statusCmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := newOutputFormatter(cmd)
	env, err := loadEnv(cmd)
	if err != nil {
		return out.Error("Failed to read environment", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), controlProbeTimeout)
	defer cancel()
	status, err := control.NewClient(env.ControlAddr).Status(ctx)
	if err != nil {
		return out.Error("Launcher service unavailable at "+env.ControlAddr, err)
	}

	return out.Render(CommandResult{
		Data: status,
		HumanReadable: func() error {
			out.Printf("Service:  %s (%s)\n", hlversion.FormatVersion(status.Version), env.ControlAddr)
			if emu := status.Emulator; emu != nil {
				if emu.Error != "" {
					out.Printf("Emulator: %s on %s (%s)\n", emu.State, emu.Address, emu.Error)
				} else {
					out.Printf("Emulator: %s on %s\n", emu.State, emu.Address)
				}
			}
			if p := status.ActiveProfile; p != nil {
				out.Printf("Profile:  %s (%s, %s)\n", p.Name, p.Username, p.UUID)
			}
			if w := hlversion.CheckVersionMismatch(status.Version); w != "" {
				out.Printf("%s\n", w)
			}
			return nil
		},
	})
}

func runConsole(cmd *cobra.Command, _ []string) error {
	out := newOutputFormatter(cmd)
	env, err := loadEnv(cmd)
	if err != nil {
		return out.Error("Failed to read environment", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	stdout := cmd.OutOrStdout()
	color := colorEnabled(stdout)
	err = control.NewClient(env.ControlAddr).Console(ctx, func(rec logsink.Record) {
		if out.jsonMode {
			_ = out.Print(rec)
			return
		}
		out.Printf("%s\n", logsink.Format(rec, color))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return out.Error("Console stream ended", err)
	}
	return nil
}

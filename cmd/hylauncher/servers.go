package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hylauncher/hylauncher/internal/config"
	configstore "github.com/hylauncher/hylauncher/internal/config/store"
)

func newServersCommand() *cobra.Command {
	serversCmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage saved multiplayer servers",
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List saved servers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serversList,
	}

	addCmd := &cobra.Command{
		Use:           "add <name> <address>",
		Short:         "Save a server",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serversAdd,
	}

	removeCmd := &cobra.Command{
		Use:           "remove <index>",
		Short:         "Remove a saved server by its list index",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serversRemove,
	}

	joinCmd := &cobra.Command{
		Use:           "join <index>",
		Short:         "Launch the client and connect to a saved server",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serversJoin,
	}
	joinCmd.Flags().Bool("offline", false, "Launch in offline mode for this run only")
	joinCmd.Flags().Bool("pty", false, "Run the client on a pseudo terminal (Unix only)")

	serversCmd.AddCommand(listCmd, addCmd, removeCmd, joinCmd)
	return serversCmd
}

func parseServerIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid server index %q", arg)
	}
	return index, nil
}

func serversList(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		servers, err := store.Servers(ctx)
		if err != nil {
			return out.Error("Failed to list servers", err)
		}
		if servers == nil {
			servers = []configstore.ServerEntry{}
		}

		return out.Render(CommandResult{
			Data: map[string]any{"servers": servers},
			HumanReadable: func() error {
				if len(servers) == 0 {
					out.Printf("No saved servers\n")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "INDEX\tNAME\tADDRESS")
				for i, s := range servers {
					fmt.Fprintf(w, "%d\t%s\t%s\n", i, s.Name, s.Address)
				}
				return w.Flush()
			},
		})
	})
}

func serversAdd(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		entry := configstore.ServerEntry{Name: args[0], Address: args[1]}
		if err := store.AddServer(ctx, entry); err != nil {
			return out.Error("Failed to save server", err)
		}
		return out.Success(fmt.Sprintf("Saved server %s (%s)", entry.Name, entry.Address), map[string]any{"server": entry})
	})
}

func serversRemove(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		index, err := parseServerIndex(args[0])
		if err != nil {
			return out.Error("Failed to remove server", err)
		}
		if err := store.RemoveServer(ctx, index); err != nil {
			return out.Error("Failed to remove server", err)
		}
		return out.Success(fmt.Sprintf("Removed server %d", index), map[string]any{"index": index})
	})
}

func serversJoin(cmd *cobra.Command, args []string) error {
	var address string
	err := withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		index, err := parseServerIndex(args[0])
		if err != nil {
			return out.Error("Failed to join server", err)
		}
		servers, err := store.Servers(ctx)
		if err != nil {
			return out.Error("Failed to list servers", err)
		}
		if index >= len(servers) {
			return out.Error("Failed to join server", configstore.NotFoundError{Entity: "server", Key: args[0]})
		}
		address = servers[index].Address
		return nil
	})
	if err != nil {
		return err
	}
	return runClientForeground(cmd, address)
}

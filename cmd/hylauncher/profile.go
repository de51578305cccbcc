package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hylauncher/hylauncher/internal/config"
	configstore "github.com/hylauncher/hylauncher/internal/config/store"
)

func newProfileCommand() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage player profiles",
	}

	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List profiles",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          profileList,
	}

	createCmd := &cobra.Command{
		Use:           "create",
		Short:         "Create a profile",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          profileCreate,
	}
	createCmd.Flags().String("name", "", "Display name (default \"New Profile <n>\")")
	createCmd.Flags().String("username", "", "In-game username (default NewPlayer)")
	createCmd.Flags().String("uuid", "", "Player uuid (default random)")
	createCmd.Flags().Bool("activate", true, "Make the new profile active (--activate=false to keep the current one)")

	useCmd := &cobra.Command{
		Use:           "use <id-or-name>",
		Short:         "Switch the active profile",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          profileUse,
	}

	editCmd := &cobra.Command{
		Use:           "edit [id-or-name]",
		Short:         "Edit a profile (default: the active one)",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          profileEdit,
	}
	editCmd.Flags().String("name", "", "New display name")
	editCmd.Flags().String("username", "", "New in-game username")
	editCmd.Flags().String("uuid", "", "New player uuid")
	editCmd.Flags().StringToString("avatar", nil, "Avatar attributes as key=value pairs")

	deleteCmd := &cobra.Command{
		Use:           "delete <id-or-name>",
		Short:         "Delete a profile",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          profileDelete,
	}

	regenCmd := &cobra.Command{
		Use:           "regen-uuid [id-or-name]",
		Short:         "Assign a fresh random uuid (default: the active profile)",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          profileRegenUUID,
	}

	profileCmd.AddCommand(listCmd, createCmd, useCmd, editCmd, deleteCmd, regenCmd)
	return profileCmd
}

// resolveProfile looks a profile up by id, then by display name. An empty
// ref selects the active profile.
func resolveProfile(ctx context.Context, store *configstore.Store, ref string) (configstore.Profile, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return store.ActiveProfile(ctx)
	}
	profile, err := store.GetProfile(ctx, ref)
	if err == nil || !configstore.IsNotFound(err) {
		return profile, err
	}
	return store.FindProfileByName(ctx, ref)
}

func profileList(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		profiles, err := store.Profiles(ctx)
		if err != nil {
			return out.Error("Failed to list profiles", err)
		}
		active, err := store.ActiveProfile(ctx)
		if err != nil {
			return out.Error("Failed to load active profile", err)
		}

		return out.Render(CommandResult{
			Data: map[string]any{"profiles": profiles, "active": active.ID},
			HumanReadable: func() error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "\tID\tNAME\tUSERNAME\tUUID")
				for _, p := range profiles {
					marker := ""
					if p.ID == active.ID {
						marker = "*"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, p.ID, p.Name, p.Username, p.UUID)
				}
				return w.Flush()
			},
		})
	})
}

func profileCreate(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	username, _ := cmd.Flags().GetString("username")
	playerUUID, _ := cmd.Flags().GetString("uuid")
	activate, _ := cmd.Flags().GetBool("activate")

	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		profile, err := store.CreateProfile(ctx, configstore.Profile{
			Name:     strings.TrimSpace(name),
			Username: strings.TrimSpace(username),
			UUID:     strings.TrimSpace(playerUUID),
		})
		if err != nil {
			return out.Error("Failed to create profile", err)
		}
		if activate {
			if err := store.ActivateProfile(ctx, profile.ID); err != nil {
				return out.Error("Failed to activate profile", err)
			}
		}

		return out.Success(fmt.Sprintf("Created profile %q (%s)", profile.Name, profile.ID), map[string]any{
			"profile": profile,
			"active":  activate,
		})
	})
}

func profileUse(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		profile, err := resolveProfile(ctx, store, args[0])
		if err != nil {
			return out.Error("Profile not found", err)
		}
		if err := store.ActivateProfile(ctx, profile.ID); err != nil {
			return out.Error("Failed to activate profile", err)
		}
		return out.Success(fmt.Sprintf("Active profile: %s (%s)", profile.Name, profile.Username), map[string]any{
			"profile": profile,
		})
	})
}

func profileEdit(cmd *cobra.Command, args []string) error {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	flags := cmd.Flags()

	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		profile, err := resolveProfile(ctx, store, ref)
		if err != nil {
			return out.Error("Profile not found", err)
		}

		changed := false
		if flags.Changed("name") {
			profile.Name, _ = flags.GetString("name")
			profile.Name = strings.TrimSpace(profile.Name)
			changed = true
		}
		if flags.Changed("username") {
			profile.Username, _ = flags.GetString("username")
			profile.Username = strings.TrimSpace(profile.Username)
			changed = true
		}
		if flags.Changed("uuid") {
			profile.UUID, _ = flags.GetString("uuid")
			profile.UUID = strings.TrimSpace(profile.UUID)
			changed = true
		}
		if flags.Changed("avatar") {
			avatar, _ := flags.GetStringToString("avatar")
			if profile.AvatarData == nil {
				profile.AvatarData = map[string]any{}
			}
			for k, v := range avatar {
				profile.AvatarData[k] = v
			}
			changed = true
		}
		if !changed {
			return out.Error("Nothing to change; pass --name, --username, --uuid or --avatar", nil)
		}
		if profile.Name == "" || profile.Username == "" || profile.UUID == "" {
			return out.Error("Name, username and uuid must not be empty", nil)
		}

		if err := store.UpdateProfile(ctx, profile); err != nil {
			return out.Error("Save error", err)
		}
		return out.Success("Changes applied and profile updated.", map[string]any{"profile": profile})
	})
}

func profileDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		profile, err := resolveProfile(ctx, store, args[0])
		if err != nil {
			return out.Error("Profile not found", err)
		}
		if err := store.DeleteProfile(ctx, profile.ID); err != nil {
			if errors.Is(err, configstore.ErrLastProfile) {
				return out.Error("Cannot delete the last profile", nil)
			}
			return out.Error("Failed to delete profile", err)
		}
		return out.Success(fmt.Sprintf("Deleted profile %q", profile.Name), map[string]any{"id": profile.ID})
	})
}

func profileRegenUUID(cmd *cobra.Command, args []string) error {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}

	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		profile, err := resolveProfile(ctx, store, ref)
		if err != nil {
			return out.Error("Profile not found", err)
		}
		profile.UUID = uuid.NewString()
		if err := store.UpdateProfile(ctx, profile); err != nil {
			return out.Error("Save error", err)
		}
		return out.Success(fmt.Sprintf("New uuid for %s: %s", profile.Name, profile.UUID), map[string]any{"profile": profile})
	})
}

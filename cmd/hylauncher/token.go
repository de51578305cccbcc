package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hylauncher/hylauncher/internal/config"
	configstore "github.com/hylauncher/hylauncher/internal/config/store"
	"github.com/hylauncher/hylauncher/internal/token"
)

func newTokenCommand() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Print the identity token minted for the active profile",
		Long: `Prints the identity token the client receives in simulated mode. With
--decode the claims are printed instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          tokenShow,
	}
	tokenCmd.Flags().Bool("decode", false, "Print the decoded claims")

	inspectCmd := &cobra.Command{
		Use:           "inspect <token>",
		Short:         "Decode a token and print its claims",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          tokenInspect,
	}

	tokenCmd.AddCommand(inspectCmd)
	return tokenCmd
}

func printClaims(out *OutputFormatter, claims token.Claims) error {
	return out.Render(CommandResult{
		Data: claims,
		HumanReadable: func() error {
			out.Printf("sub:   %s\n", claims.Sub)
			out.Printf("name:  %s\n", claims.Name)
			out.Printf("scope: %s\n", claims.Scope)
			return nil
		},
	})
}

func tokenShow(cmd *cobra.Command, _ []string) error {
	decode, _ := cmd.Flags().GetBool("decode")

	return withStore(cmd, func(ctx context.Context, store *configstore.Store, _ config.Paths, out *OutputFormatter) error {
		profile, err := store.ActiveProfile(ctx)
		if err != nil {
			return out.Error("Failed to load active profile", err)
		}
		if decode {
			return printClaims(out, token.ClaimsFor(profile))
		}

		tok := token.Mint(profile)
		return out.Render(CommandResult{
			Data: map[string]any{"profile": profile.ID, "token": tok},
			HumanReadable: func() error {
				out.Printf("%s\n", tok)
				return nil
			},
		})
	})
}

func tokenInspect(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	claims, err := token.Decode(strings.TrimSpace(args[0]))
	if err != nil {
		return out.Error("Invalid token", err)
	}
	return printClaims(out, claims)
}

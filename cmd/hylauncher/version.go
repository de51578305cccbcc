package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/hylauncher/hylauncher/internal/control"
	hlversion "github.com/hylauncher/hylauncher/internal/version"
)

const controlProbeTimeout = 3 * time.Second

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Show client and service versions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runVersion,
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := newOutputFormatter(cmd)
	clientVersion := hlversion.String()

	var serviceVersion string
	var serviceReachable bool
	var serviceErr error
	env, err := loadEnv(cmd)
	if err == nil {
		ctx, cancel := context.WithTimeout(cmd.Context(), controlProbeTimeout)
		defer cancel()
		status, statusErr := control.NewClient(env.ControlAddr).Status(ctx)
		if statusErr == nil {
			serviceReachable = true
			serviceVersion = status.Version
		} else {
			serviceErr = statusErr
		}
	} else {
		serviceErr = err
	}

	if out.jsonMode {
		data := map[string]any{
			"client": clientVersion,
		}
		if serviceReachable {
			if serviceVersion != "" {
				data["service"] = serviceVersion
			} else {
				data["service"] = "unknown"
			}
			if w := hlversion.CheckVersionMismatch(serviceVersion); w != "" {
				data["mismatch"] = true
				data["warning"] = w
			}
		} else {
			data["service"] = nil
			if serviceErr != nil {
				data["service_error"] = serviceErr.Error()
			}
		}
		return out.Print(data)
	}

	out.Printf("Client: %s\n", hlversion.FormatVersion(clientVersion))
	if serviceReachable {
		if serviceVersion != "" {
			out.Printf("Service: %s\n", hlversion.FormatVersion(serviceVersion))
		} else {
			out.Printf("Service: running (version unknown)\n")
		}
		if w := hlversion.CheckVersionMismatch(serviceVersion); w != "" {
			out.Printf("%s\n", w)
		}
	} else {
		out.Printf("Service: unavailable (%v)\n", serviceErr)
	}
	return nil
}

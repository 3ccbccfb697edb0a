package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	chiTransport "github.com/TheVirusNVGM/modcurator/internal/transport/chi"
)

// newRetrieveCmd creates the one-shot retrieve command.
func newRetrieveCmd(flags *globalFlags) *cobra.Command {
	var requestPath string

	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Run one retrieval request and print the result as JSON",
		Long: `Read a retrieval request (the POST /v1/retrieve body) from --request
or stdin, run it against the configured catalog and print the ranked
candidates as JSON on stdout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readRequest(cmd, requestPath)
			if err != nil {
				return err
			}
			req, err := chiTransport.DecodeRetrieveRequest(bytes.NewReader(body))
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), flags, func(ctx context.Context, a *app) error {
				outcome, err := a.retrieval.Retrieve(ctx, req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), chiTransport.NewRetrieveResponse(&outcome))
			})
		},
	}

	cmd.Flags().StringVar(&requestPath, "request", "-", "Request JSON file ('-' reads stdin)")

	return cmd
}

// newResolveCmd creates the one-shot resolve command.
func newResolveCmd(flags *globalFlags) *cobra.Command {
	var requestPath string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve dependencies for a mod selection and print the result as JSON",
		Long: `Read a resolve request (the POST /v1/resolve body) from --request
or stdin. Mods named by id are looked up in the configured catalog.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readRequest(cmd, requestPath)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), flags, func(ctx context.Context, a *app) error {
				selected, p, unknown, err := chiTransport.DecodeResolveRequest(ctx, bytes.NewReader(body), a.catalog)
				if err != nil {
					return err
				}
				res, err := a.resolver.Resolve(ctx, selected, p)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), chiTransport.NewResolveResponse(&res, unknown))
			})
		},
	}

	cmd.Flags().StringVar(&requestPath, "request", "-", "Request JSON file ('-' reads stdin)")

	return cmd
}

// withApp loads the config, builds the app, runs fn and releases everything.
func withApp(ctx context.Context, flags *globalFlags, fn func(context.Context, *app) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, env, err := flags.load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, env)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

// readRequest reads a JSON file, or stdin for "-".
func readRequest(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		body, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read request from stdin: %w", err)
		}
		return body, nil
	}
	body, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return body, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

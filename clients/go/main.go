// hookctl - command line client for hookstore
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eldtechnologies/hookstore/clients/go/hookstore"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var baseURL string

	root := &cobra.Command{
		Use:          "hookctl",
		Short:        "Command line client for hookstore",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "url", envOr("HOOKSTORE_URL", "http://localhost:8000"), "service base URL")

	client := func() *hookstore.Client {
		return hookstore.NewClient(baseURL, []byte(os.Getenv("WEBHOOK_SECRET")))
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "send [file]",
			Short: "Sign and post a JSON body (stdin if no file)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				body, err := readBody(cmd, args)
				if err != nil {
					return err
				}
				if err := client().SendRaw(cmd.Context(), body); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			},
		},
		newListCmd(client),
		&cobra.Command{
			Use:   "stats",
			Short: "Show message statistics",
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := client().Stats(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), st)
			},
		},
		&cobra.Command{
			Use:   "ready",
			Short: "Exit non-zero unless the service is ready",
			RunE: func(cmd *cobra.Command, args []string) error {
				ready, err := client().Ready(cmd.Context())
				if err != nil {
					return err
				}
				if !ready {
					return fmt.Errorf("service not ready")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ready")
				return nil
			},
		},
	)

	return root
}

func newListCmd(client func() *hookstore.Client) *cobra.Command {
	var opts hookstore.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			page, err := client().Messages(ctx, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (1-100)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")
	cmd.Flags().StringVar(&opts.From, "from", "", "exact sender")
	cmd.Flags().StringVar(&opts.Since, "since", "", "only messages with ts >= since")
	cmd.Flags().StringVar(&opts.Q, "q", "", "case-insensitive text search")
	return cmd
}

func readBody(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(cmd.InOrStdin())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

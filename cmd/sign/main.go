package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/eldtechnologies/hookstore/internal/crypto"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var secret string

	root := &cobra.Command{
		Use:   "sign [file]",
		Short: "Print the X-Signature header for a request body",
		Long:  "Reads the body from file, or stdin if no file is given, and prints the HMAC-SHA256 signature header.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("secret required: pass --secret or set WEBHOOK_SECRET")
			}

			var (
				body []byte
				err  error
			)
			if len(args) == 1 {
				body, err = os.ReadFile(args[0])
			} else {
				body, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", crypto.SignatureHeader, crypto.SignHMAC(body, []byte(secret)))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&secret, "secret", os.Getenv("WEBHOOK_SECRET"), "shared webhook secret")

	root.AddCommand(newMessageCmd(&secret))
	return root
}

// newMessageCmd builds a test message body with a fresh ULID message_id
// and the current time, and prints it followed by its signature header.
func newMessageCmd(secret *string) *cobra.Command {
	var from, to, text string

	cmd := &cobra.Command{
		Use:   "message",
		Short: "Generate a signed test message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if *secret == "" {
				return fmt.Errorf("secret required: pass --secret or set WEBHOOK_SECRET")
			}

			payload := map[string]string{
				"message_id": ulid.Make().String(),
				"from":       from,
				"to":         to,
				"ts":         time.Now().UTC().Format("2006-01-02T15:04:05Z"),
			}
			if text != "" {
				payload["text"] = text
			}

			body, err := json.Marshal(payload)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, string(body))
			fmt.Fprintf(out, "%s: %s\n", crypto.SignatureHeader, crypto.SignHMAC(body, []byte(*secret)))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "+10000000000", "sender, E.164")
	cmd.Flags().StringVar(&to, "to", "+10000000001", "recipient, E.164")
	cmd.Flags().StringVar(&text, "text", "", "message text")
	return cmd
}

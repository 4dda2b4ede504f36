// Command tba issues one-off authenticated GET requests against The Blue
// Alliance API v3 and prints the raw response body.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samvad-hq/tba-sync/internal/config"
	"github.com/samvad-hq/tba-sync/pkg/tba"
	"github.com/spf13/cobra"
)

// cliOptions holds the persistent flags shared by every subcommand.
type cliOptions struct {
	BaseURL string
	AuthKey string
	Timeout time.Duration
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flag defaults come from cfg.
func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &cliOptions{}
	if cfg != nil {
		opts.BaseURL = cfg.TBABaseURL
		opts.AuthKey = cfg.TBAAuthKey
		opts.Timeout = cfg.TBATimeout
	}

	rootCmd := &cobra.Command{
		Use:   "tba",
		Short: "Query The Blue Alliance API v3",
		Long: `Issue authenticated GET requests against The Blue Alliance API v3.

The auth key is read from TBA_AUTH_KEY (or configs/.env) unless --auth-key is set.

Example:
  tba get team/frc254
  tba get status --if-modified-since "Wed, 21 Oct 2015 07:28:00 GMT"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", opts.BaseURL, "API base URL")
	rootCmd.PersistentFlags().StringVar(&opts.AuthKey, "auth-key", opts.AuthKey, "API auth key (X-TBA-Auth-Key)")
	rootCmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Request timeout")

	rootCmd.AddCommand(newGetCmd(opts))
	return rootCmd
}

func newGetCmd(opts *cliOptions) *cobra.Command {
	var (
		ifModifiedSince string
		headers         []string
	)

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET a resource path and print the raw body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tba.New(tba.Config{
				BaseURL: opts.BaseURL,
				Keys:    tba.StaticKey(opts.AuthKey),
				Timeout: opts.Timeout,
			})
			if err != nil {
				return err
			}

			reqOpts := []tba.RequestOption{tba.IfModifiedSince(ifModifiedSince)}
			for _, h := range headers {
				key, value, err := parseHeaderFlag(h)
				if err != nil {
					return err
				}
				reqOpts = append(reqOpts, tba.WithHeader(key, value))
			}

			var body string
			meta, err := client.Get(cmd.Context(), strings.TrimPrefix(args[0], "/"), &body, reqOpts...)
			if err != nil {
				if errors.Is(err, tba.ErrAuthTokenMissing) {
					return fmt.Errorf("%w (set TBA_AUTH_KEY or --auth-key)", err)
				}
				return err
			}

			if meta.LastModified != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Last-Modified: %s\n", meta.LastModified)
			}
			if meta.NotModified {
				fmt.Fprintln(cmd.ErrOrStderr(), "not modified")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), body)
			return nil
		},
	}

	cmd.Flags().StringVar(&ifModifiedSince, "if-modified-since", "", "Send If-Modified-Since with this Last-Modified value")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra request header as key=value (repeatable)")
	return cmd
}

// parseHeaderFlag splits a key=value header flag.
func parseHeaderFlag(raw string) (string, string, error) {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid header %q: expected key=value", raw)
	}
	return key, strings.TrimSpace(value), nil
}

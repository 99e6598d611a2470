// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Command ratingctl drives the rating prompt flow against a local store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AccelByte/extend-dynamic-rating/internal/bootstrap"
	"github.com/AccelByte/extend-dynamic-rating/internal/config"
	"github.com/AccelByte/extend-dynamic-rating/pkg/policy"
	"github.com/AccelByte/extend-dynamic-rating/pkg/prompt"
)

const (
	defaultStore     = config.StoreFile
	defaultStorePath = "rating.json"
)

type options struct {
	store      string
	path       string
	policyFile string
	namespace  string
	user       string
	policy     string
	verbose    bool
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "ratingctl",
		Short:         "Inspect and drive rating prompt state",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logrus.SetLevel(logrus.WarnLevel)
			if opts.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.store, "store", defaultStore, "preference store: file, sqlite or memory")
	flags.StringVar(&opts.path, "path", defaultStorePath, "store file for the file and sqlite stores")
	flags.StringVar(&opts.policyFile, "policy-file", "", "policy file (yaml or toml); empty uses the default policy")
	flags.StringVar(&opts.namespace, "namespace", "", "user namespace")
	flags.StringVar(&opts.user, "user", "local", "user ID")
	flags.StringVar(&opts.policy, "policy", policy.DefaultPolicyID, "policy ID")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newLaunchCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newRespondCmd(opts))
	rootCmd.AddCommand(newStateCmd(opts))
	rootCmd.AddCommand(newResetCmd(opts))
	rootCmd.AddCommand(newPoliciesCmd(opts))

	return rootCmd
}

func newLaunchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Record an app launch and print the prompt decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd.Context(), opts, func(ctx context.Context, m *prompt.Manager) error {
				d, err := m.StartSession(ctx, opts.request())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), d)
			})
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Print the prompt decision without recording a launch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd.Context(), opts, func(ctx context.Context, m *prompt.Manager) error {
				d, err := m.Check(ctx, opts.request())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), d)
			})
		},
	}
}

func newRespondCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "respond <rated|feedback|remind|dismiss|rating> [value]",
		Short: "Record the user's answer to a prompt",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseResponse(args)
			if err != nil {
				return err
			}
			return withManager(cmd.Context(), opts, func(ctx context.Context, m *prompt.Manager) error {
				result, err := m.RecordResponse(ctx, opts.request(), in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newStateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the stored state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd.Context(), opts, func(ctx context.Context, m *prompt.Manager) error {
				s, err := m.State(ctx, opts.request())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), s)
			})
		},
	}
}

func newResetCmd(opts *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the stored state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd.Context(), opts, func(ctx context.Context, m *prompt.Manager) error {
				if all {
					if err := m.Purge(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "reset every user and policy")
					return nil
				}
				if err := m.Reset(ctx, opts.request()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reset %s for policy %s\n", opts.user, opts.policy)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "wipe the state of every user and policy")
	return cmd
}

func newPoliciesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List the enabled policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := bootstrap.InitPolicies(opts.policyFile)
			if err != nil {
				return err
			}
			out := make([]policy.PolicyConfig, 0, registry.Count())
			for _, p := range registry.GetAll() {
				out = append(out, p.Config())
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func (o *options) request() prompt.Request {
	return prompt.Request{Namespace: o.namespace, UserID: o.user, PolicyID: o.policy}
}

func (o *options) config() (*config.Config, error) {
	cfg := &config.Config{Store: o.store}
	switch o.store {
	case config.StoreFile:
		cfg.FileStorePath = o.path
	case config.StoreSQLite:
		cfg.SQLitePath = o.path
	case config.StoreMemory:
	default:
		return nil, fmt.Errorf("unsupported store %q", o.store)
	}
	return cfg, nil
}

func withManager(ctx context.Context, opts *options, fn func(context.Context, *prompt.Manager) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.config()
	if err != nil {
		return err
	}
	store, err := bootstrap.InitStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logrus.Errorf("failed to close store: %v", cerr)
		}
	}()

	registry, err := bootstrap.InitPolicies(opts.policyFile)
	if err != nil {
		return err
	}
	manager, err := prompt.NewManager(store.Preferences, registry, prompt.ManagerConfig{})
	if err != nil {
		return err
	}
	return fn(ctx, manager)
}

func parseResponse(args []string) (prompt.ResponseInput, error) {
	in := prompt.ResponseInput{Kind: prompt.ResponseKind(args[0])}
	if in.Kind != prompt.ResponseRating {
		if len(args) > 1 {
			return in, fmt.Errorf("%s takes no value", in.Kind)
		}
		return in, nil
	}

	if len(args) < 2 {
		return in, fmt.Errorf("rating requires a value")
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return in, fmt.Errorf("invalid rating %q: %w", args[1], err)
	}
	in.Rating = value
	return in, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

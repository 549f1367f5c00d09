// Package main provides the spelunk CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/richinex/spelunk/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	provider string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "spelunk",
		Short: "Two-phase agent drilldown into code components",
		Long: `Spelunk explores a code component in two phases:

- Scout: an autonomous tool-calling loop gathers evidence from the sources
- Drill: a strategy-routed synthesis turns the Scout conclusion into a
  validated navigation layer

Responses are cached per (component, drilldown path) with a TTL.`,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "openai", "LLM provider (openai, anthropic, gemini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(drillCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func drillCmd() *cobra.Command {
	var title string
	var pathKeys []string
	var nodeTypes []string

	cmd := &cobra.Command{
		Use:   "drill [component-id]",
		Short: "Run a drilldown for a component",
		Long: `Run one Scout/Drill cycle for a component and print the resulting
navigation layer as JSON.

The --path and --node-type flags describe the drilldown taken so far, root
first. Omit them for a root-level breakdown:

  spelunk drill billing-service
  spelunk drill billing-service --path invoicing --node-type capability`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{Provider: provider, Verbose: verbose}
			return cli.Drill(context.Background(), args[0], title, pathKeys, nodeTypes, opts)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title for the component")
	cmd.Flags().StringArrayVar(&pathKeys, "path", nil, "Breadcrumb node key (repeatable, root first)")
	cmd.Flags().StringArrayVar(&nodeTypes, "node-type", nil, "Node type for the matching --path entry (repeatable)")

	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired cache records across all components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.SweepCache(cli.Options{Provider: provider, Verbose: verbose})
		},
	}

	var clearPath []string
	clear := &cobra.Command{
		Use:   "clear [component-id]",
		Short: "Remove cache records for a component",
		Long: `Remove cache records for a component. With --path, only the record for
that drilldown path is removed:

  spelunk cache clear billing-service
  spelunk cache clear billing-service --path invoicing --path ledger`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ClearCache(args[0], clearPath, cli.Options{Provider: provider, Verbose: verbose})
		},
	}
	clear.Flags().StringArrayVar(&clearPath, "path", nil, "Breadcrumb node key of the path to clear (repeatable, root first)")

	cmd.AddCommand(sweep)
	cmd.AddCommand(clear)
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [component-id]",
		Short: "Show recent drilldown runs",
		Long:  "Show recent drilldown runs. Omit the component id to list runs across all components.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			componentID := ""
			if len(args) == 1 {
				componentID = args[0]
			}
			return cli.History(context.Background(), componentID, limit, cli.Options{Provider: provider, Verbose: verbose})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

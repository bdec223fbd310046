// Copyright © 2020 Jonathan Whitaker <jonathan@whitaker.io>

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pkgqa [flags] <repository> [atoms...]",
	Short: "pkgqa scans a package repository for quality issues",
	Long: `pkgqa walks a package repository, narrows it down to the
packages selected by the given atoms (or every package, if none are
given), and runs the configured checks against them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pkgqa.yaml)")

	rootCmd.Flags().StringSliceP("checks", "c", nil, "checks to run (default: every registered check)")
	rootCmd.Flags().StringSlice("disable", nil, "checks to disable")
	rootCmd.Flags().Bool("list-checks", false, "list every registered check and exit")
	rootCmd.Flags().BoolP("xml", "x", false, "write results as XML instead of the default line format")
	rootCmd.Flags().String("reporter", "", "reporter destination: line, grouped, ndjson, xml, stream, batch, null, http, kafka, pubsub, sqs")
	rootCmd.Flags().StringSlice("whitelist", nil, "only scan packages matching these patterns")
	rootCmd.Flags().StringSlice("blacklist", nil, "never scan packages matching these patterns")
	rootCmd.Flags().String("scope", "", "scope token (repo, cat, pkg, ver); it is validated but not applied to checks or packages")
	rootCmd.Flags().IntP("verbosity", "v", 0, "verbosity; 0 for short descriptions, higher for long ones")
	rootCmd.Flags().Bool("debug", false, "abort the run on the first non-metadata stage error")
	rootCmd.Flags().StringSlice("stable-arches", nil, "arches unstable-only treats as the stable set")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

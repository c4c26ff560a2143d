// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"os"

	"github.com/ksentinel/ksentinel/pkg/defaults"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/ksentinel/ksentinel/pkg/option"
	"github.com/ksentinel/ksentinel/pkg/version"

	gops "github.com/google/gops/agent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	log = logger.GetLogger()
)

func readAndSetFlags() {
	if err := option.ReadAndSetFlags(); err != nil {
		log.WithError(err).Fatal("Failed to parse command line flags")
	}
	// Logging should always be bootstrapped first.
	if err := logger.SetupLogging(option.Config.LogOpts, option.Config.Debug); err != nil {
		log.Fatal(err)
	}
}

func startGops() {
	if option.Config.GopsAddr == "" {
		return
	}
	log.WithField("addr", option.Config.GopsAddr).Info("Starting gops server")
	if err := gops.Listen(gops.Options{
		Addr:                   option.Config.GopsAddr,
		ReuseSocketAddrAndPort: true,
	}); err != nil {
		log.WithError(err).Fatal("Failed to start gops")
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version.ReadBuildInfo().Print(cmd.OutOrStdout())
		},
	}
}

func execute() error {
	rootCmd := &cobra.Command{
		Use:   "ksentinel",
		Short: "Run the ksentinel host sensor",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			readAndSetFlags()
			startGops()

			if err := ksentinelExecute(); err != nil {
				log.WithError(err).Fatal("Failed to start ksentinel")
			}
		},
	}

	cobra.OnInitialize(func() {
		readConfigSettings(defaults.DefaultConfDir)
	})

	flags := rootCmd.PersistentFlags()
	option.AddFlags(flags)
	if err := viper.BindPFlags(flags); err != nil {
		return err
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newSelftestCmd(),
		newResolveCmd(),
	)
	return rootCmd.Execute()
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

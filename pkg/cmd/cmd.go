// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/mediavault/pkg/app"
	"github.com/yeisme/mediavault/pkg/configs"
)

var (
	cfgPath string
	debug   bool

	rootCmd = &cobra.Command{
		Use:     "mediavault",
		Short:   "A file manager and CMS service core",
		Version: configs.AppVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
)

func runServe() error {
	a := app.NewApp(cfgPath)
	defer a.Close() //nolint:errcheck

	return a.Run()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "print verbose debug output")

	rootCmd.AddCommand(serveCmd)

	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
}

// Copyright © 2026 The ti99-dskimg-lib Authors

package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var debug bool

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "ti99fs",
	Short: "Operate on TI-99/4A disk images and their contents",
	Long: `ti99fs is a commandline tool for working with TI-99/4A disk
images: listing, reading, writing, renaming and deleting files, and
checking and repairing filesystem consistency.`,
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print a stack trace alongside errors")
}

// initConfig reads ~/.ti99fsrc, if present, for persistent defaults
// (default geometry preset, default safe-delete policy). A missing
// config file is not an error.
func initConfig() {
	viper.SetConfigName(".ti99fsrc")
	viper.AddConfigPath("$HOME")
	viper.SetEnvPrefix("TI99FS")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// Execute adds all child commands to the root command and parses
// flags. It's called by main.main, once.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		if debug {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, errors.Cause(err))
		}
		os.Exit(1)
	}
}

// defaultPreset returns the configured default geometry preset for
// format when --preset isn't given.
func defaultPreset() string {
	if p := viper.GetString("default_preset"); p != "" {
		return p
	}
	return "SSSD40"
}

// defaultSafeDelete returns the configured default for whether rm
// zeroes data sectors before freeing them.
func defaultSafeDelete() bool {
	if viper.IsSet("safe_delete") {
		return viper.GetBool("safe_delete")
	}
	return true
}

/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/gneiss/params"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string
var optVerbosity int
var optDatadir string

// enrichConfig is shared by every command that enriches or queries fossils.
var enrichConfig = params.DefaultEnrichConfig()

var enrichFlags = pflag.NewFlagSet("enrich", pflag.ContinueOnError)

// envKeyReplacer maps flag names to env names, eg. enrich.max-points to GNEISS_ENRICH_MAX_POINTS.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gneiss",
	Short: "Geology and fossils along your rides",
	Long: `Gneiss reads TCX and GPX activity files, looks up the bedrock geology
beneath the route, and finds fossil occurrences in the formations you rode over.

Configuration is read from $HOME/.gneiss/config.yaml (or --config),
then GNEISS_* environment variables, then flags.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gneiss/config.yaml)")
	pFlags.IntVar(&optVerbosity, "verbosity", int(slog.LevelInfo), "slog level: -4 debug, 0 info, 4 warn, 8 error")
	pFlags.StringVar(&optDatadir, "datadir", params.DefaultDatadirRoot, "Root directory for rides and the geology cache")

	enrichFlags.IntVar(&enrichConfig.MaxQueryPoints, "enrich.max-points", enrichConfig.MaxQueryPoints,
		"Maximum geology lookups per ride")
	enrichFlags.DurationVar(&enrichConfig.Delay, "enrich.delay", enrichConfig.Delay,
		"Pause between geology lookups")
	enrichFlags.IntVar(&enrichConfig.CellLevel, "enrich.cell-level", enrichConfig.CellLevel,
		"S2 cell level geology lookups are cached at")
	enrichFlags.StringVar(&enrichConfig.MacrostratBaseURL, "enrich.macrostrat-url", enrichConfig.MacrostratBaseURL,
		"Geologic units endpoint")
	enrichFlags.StringVar(&enrichConfig.PBDBBaseURL, "enrich.pbdb-url", enrichConfig.PBDBBaseURL,
		"Fossil occurrences endpoint")
	enrichFlags.IntVar(&enrichConfig.PBDBLimit, "enrich.pbdb-limit", enrichConfig.PBDBLimit,
		"Maximum fossil records per query")
	enrichFlags.DurationVar(&enrichConfig.HTTPTimeout, "enrich.timeout", enrichConfig.HTTPTimeout,
		"HTTP timeout for the geology and fossil services")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	v := viper.GetViper()
	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)
		v.AddConfigPath(filepath.Join(home, ".gneiss"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}
	v.SetEnvPrefix("GNEISS")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}
	applyConfig(v, rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		applyConfig(v, c.Flags())
	}

	dir, err := homedir.Expand(optDatadir)
	cobra.CheckErr(err)
	optDatadir = dir
}

// applyConfig sets each flag not given on the command line from v.
func applyConfig(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := f.Value.Set(v.GetString(f.Name)); err != nil {
			slog.Warn("Invalid config value", "key", f.Name, "error", err)
		}
	})
}

func setDefaultSlog(cmd *cobra.Command, args []string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(optVerbosity),
	})))
}

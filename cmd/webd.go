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
	"context"
	"log"
	"log/slog"

	"github.com/rotblauer/gneiss/common"
	"github.com/rotblauer/gneiss/daemon/webd"
	"github.com/rotblauer/gneiss/params"
	"github.com/spf13/cobra"
)

var webdConfig = params.DefaultWebDaemonConfig()

// webdCmd represents the webd command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long: `Serves ride uploads, enrichment, and fossil lookups over HTTP.

Enrichment progress is broadcast on the /ws websocket.
Set GNEISS_TOKEN to require a token for uploads.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		slog.Info("webd.Run")

		webdConfig.DataDir = optDatadir
		webdConfig.Enrich = enrichConfig
		server, err := webd.NewWebDaemon(webdConfig, nil)
		if err != nil {
			log.Fatalln(err)
		}

		ctx, cancel := common.InterruptibleContext(context.Background())
		defer cancel()
		if err := server.Run(ctx); err != nil {
			log.Fatalln(err)
		}
		slog.Info("webd stopped")
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	flags := webdCmd.Flags()
	flags.StringVar(&webdConfig.Network, "network", webdConfig.Network, "Network to listen on")
	flags.StringVar(&webdConfig.Address, "address", webdConfig.Address, "HTTP address to listen on")
	flags.Int64Var(&webdConfig.MaxUploadBytes, "max-upload-bytes", webdConfig.MaxUploadBytes, "Largest accepted upload")
	flags.AddFlagSet(enrichFlags)
}

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
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/rotblauer/gneiss/api"
	"github.com/rotblauer/gneiss/catdb/s3store"
	"github.com/rotblauer/gneiss/common"
	"github.com/rotblauer/gneiss/events"
	"github.com/rotblauer/gneiss/params"
	"github.com/rotblauer/gneiss/parse"
	"github.com/rotblauer/gneiss/rgeo"
	"github.com/rotblauer/gneiss/types"
	"github.com/rotblauer/gneiss/types/units"
	"github.com/spf13/cobra"
)

var optColorMode string
var optUnits string
var optOut string
var optGeocode bool
var optS3 bool
var optDensity bool

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich FILE",
	Short: "Enrich a ride with geology and store it",
	Long: `Enrich parses a TCX or GPX file, looks up the geology along the route,
fills gaps, and stores the enriched ride under the data directory.

The ride summary is printed to stdout. With --out the enriched GeoJSON
FeatureCollection is written to a file ("-" for stdout).

Examples:

  gneiss enrich morning-ride.tcx
  gneiss enrich --units imperial --color-mode lithology --out ride.geojson lunch.gpx
  AWS_BUCKETNAME=my-rides gneiss enrich --s3 ride.gpx
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		mode, err := units.ParseColorMode(optColorMode)
		if err != nil {
			log.Fatalln(err)
		}
		u, err := units.ParseUnits(optUnits)
		if err != nil {
			log.Fatalln(err)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalln(err)
		}

		ctx, cancel := common.InterruptibleContext(context.Background())
		defer cancel()

		rides, closer, err := api.Open(optDatadir, enrichConfig)
		if err != nil {
			log.Fatalln(err)
		}
		defer closer()

		if optGeocode {
			if err := rgeo.Init(); err != nil && !errors.Is(err, rgeo.ErrAlreadyInitialized) {
				log.Fatalln(err)
			}
			rides.Geocoder, _ = rgeo.R()
		}
		if optS3 {
			rides.S3 = s3store.New(params.AWS_BUCKETNAME)
		}

		stopProgress := logProgress()
		ride, err := rides.Import(ctx, args[0], data)
		stopProgress()
		if err != nil {
			var perr *parse.ParseError
			if errors.As(err, &perr) {
				fmt.Fprintln(os.Stderr, perr.Error())
				os.Exit(2)
			}
			log.Fatalln(err)
		}

		summary := ride.Summary
		fmt.Printf("%s %s\n%s\n", ride.ID, ride.Name, summary.String(u))

		if optDensity {
			density, _, err := rides.Density(ctx, ride.ID)
			if err != nil {
				log.Fatalln(err)
			}
			for _, d := range density {
				fmt.Printf("fossils: %d at %.1f %s\n", d.Count,
					units.ConvertDistance(d.Distance, u), units.DistanceLabel(u))
			}
		}

		if optOut != "" {
			b, err := types.ToFeatureCollection(ride.Points, mode, u).MarshalJSON()
			if err != nil {
				log.Fatalln(err)
			}
			if optOut == "-" {
				_, err = os.Stdout.Write(append(b, '\n'))
			} else {
				err = os.WriteFile(optOut, b, 0644)
			}
			if err != nil {
				log.Fatalln(err)
			}
		}
	},
}

// logProgress logs enrichment progress at every tenth of the lookups.
func logProgress() (stop func()) {
	ch := make(chan events.Progress, 16)
	sub := events.EnrichProgressFeed.Subscribe(ch)
	done := make(chan struct{})
	go func() {
		defer close(done)
		last := -1
		for {
			select {
			case p := <-ch:
				if tenth := p.Done * 10 / p.Total; tenth != last || p.Done == p.Total {
					last = tenth
					slog.Info("Enriching", "done", p.Done, "total", p.Total)
				}
			case <-sub.Err():
				return
			}
		}
	}()
	return func() {
		sub.Unsubscribe()
		<-done
	}
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	flags := enrichCmd.Flags()
	flags.StringVar(&optColorMode, "color-mode", string(units.ColorModeAge), "Feature color mode: age|lithology")
	flags.StringVar(&optUnits, "units", string(units.Metric), "Display units: metric|imperial")
	flags.StringVarP(&optOut, "out", "o", "", "Write the enriched GeoJSON to this file (- for stdout)")
	flags.BoolVar(&optGeocode, "geocode", false, "Reverse geocode the ride start (slow to initialize)")
	flags.BoolVar(&optS3, "s3", false, "Export the enriched ride to the AWS_BUCKETNAME bucket")
	flags.BoolVar(&optDensity, "density", false, "Query fossils for each formation and print density markers")
	flags.AddFlagSet(enrichFlags)
}

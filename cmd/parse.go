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
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/gneiss/types"
	"github.com/rotblauer/gneiss/types/units"
	"github.com/spf13/cobra"
)

var optParseGeoJSON bool

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Parse activity files without enriching them",
	Long: `Parse reads TCX or GPX files and prints the point count, distance and duration
of each. With --geojson each ride is printed as a GeoJSON LineString feature instead.

Files that fail to parse are reported and the command exits non-zero.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		u, err := units.ParseUnits(optUnits)
		if err != nil {
			log.Fatalln(err)
		}
		failed := 0
		for _, name := range args {
			data, err := os.ReadFile(name)
			if err != nil {
				log.Fatalln(err)
			}
			tps, err := types.DecodeActivity(name, data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
				failed++
				continue
			}
			if optParseGeoJSON {
				b, err := types.ToLineFeature(tps, types.RideName(name)).MarshalJSON()
				if err != nil {
					log.Fatalln(err)
				}
				fmt.Println(string(b))
				continue
			}
			fmt.Printf("%s: %s points, %s %s, %s\n", name, humanize.Comma(int64(len(tps))),
				humanize.FtoaWithDigits(units.ConvertDistance(tps.TotalDistance(), u), 2),
				units.DistanceLabel(u), tps.Duration())
		}
		if failed > 0 {
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVar(&optParseGeoJSON, "geojson", false, "Print each ride as a GeoJSON LineString feature")
	parseCmd.Flags().StringVar(&optUnits, "units", string(units.Metric), "Display units: metric|imperial")
}

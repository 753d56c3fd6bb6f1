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
	"encoding/json"
	"log"
	"os"

	"github.com/rotblauer/gneiss/api"
	"github.com/rotblauer/gneiss/common"
	"github.com/rotblauer/gneiss/fossil"
	"github.com/spf13/cobra"
)

var optFossilRide string
var optFossilPoint int
var optFossilLat, optFossilLon float64
var optFossilAgeStart, optFossilAgeEnd float64
var optFossilFormation string
var optFossilKingdom string
var optFossilBuffer float64

// fossilsCmd represents the fossils command
var fossilsCmd = &cobra.Command{
	Use:   "fossils",
	Short: "Find fossil occurrences near a point",
	Long: `Fossils queries the paleobiology database around a point and age range,
or around one point of a stored ride, and prints the occurrences as JSON lines.

Examples:

  gneiss fossils --lat 39.75 --lon -105.2 --age-start 323 --age-end 299 --formation Fountain
  gneiss fossils --ride 3f2a9c0d1e4b5a67 --point 120 --kingdom plant
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		kingdom, err := fossil.ParseKingdom(optFossilKingdom)
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

		var occs []fossil.Occurrence
		if optFossilRide != "" {
			occs, err = rides.FossilsAt(ctx, optFossilRide, optFossilPoint, kingdom)
			if err != nil {
				log.Fatalln(err)
			}
		} else {
			if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
				log.Fatalln("--lat and --lon are required without --ride")
			}
			q := fossil.BuildQuery(optFossilLat, optFossilLon, optFossilAgeStart, optFossilAgeEnd,
				fossil.WithFormation(optFossilFormation), fossil.WithBuffer(optFossilBuffer))
			occs = rides.FossilsNear(ctx, q, kingdom)
		}

		enc := json.NewEncoder(os.Stdout)
		for _, o := range occs {
			if err := enc.Encode(o); err != nil {
				log.Fatalln(err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(fossilsCmd)

	flags := fossilsCmd.Flags()
	flags.StringVar(&optFossilRide, "ride", "", "Stored ride id")
	flags.IntVar(&optFossilPoint, "point", 0, "Point index within the ride")
	flags.Float64Var(&optFossilLat, "lat", 0, "Latitude")
	flags.Float64Var(&optFossilLon, "lon", 0, "Longitude")
	flags.Float64Var(&optFossilAgeStart, "age-start", 0, "Older bound of the age range, Ma")
	flags.Float64Var(&optFossilAgeEnd, "age-end", 0, "Younger bound of the age range, Ma")
	flags.StringVar(&optFossilFormation, "formation", "", "Formation name filter")
	flags.StringVar(&optFossilKingdom, "kingdom", string(fossil.KingdomAll), "Vertebrate|Invertebrate|Plant|All")
	flags.Float64Var(&optFossilBuffer, "buffer", fossil.DefaultBufferDeg, "Half-width of the query box, degrees")
	flags.AddFlagSet(enrichFlags)
}

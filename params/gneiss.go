package params

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

func init() {
	metrics.Enabled = true
}

const (
	RidesDir = "rides"

	EnrichedGZFileName = "enriched.geojson.gz"
	SummaryFileName    = "summary.json"
	GeologyDBName      = "geology.db"
)

var DefaultDatadirRoot = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, ".gneiss")
}()

var DefaultGZipCompressionLevel = gzip.BestCompression

// AWS_BUCKETNAME is the bucket enriched rides are exported to.
// Empty disables export.
var AWS_BUCKETNAME = os.Getenv("AWS_BUCKETNAME")

var (
	// CacheFossilTTL bounds how long a fossil response is reused,
	// including cached failures.
	CacheFossilTTL      = 1 * time.Hour
	CacheFossilCapacity = uint64(1_000)

	// CacheGeologySize is the in-memory geology cell memo size.
	CacheGeologySize = 10_000

	CacheRecentRides = 32
)

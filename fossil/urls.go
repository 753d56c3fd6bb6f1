package fossil

import (
	"net/url"
	"strings"
)

const (
	imageSearchBase  = "https://duckduckgo.com/"
	basicTaxonInfo   = "https://paleobiodb.org/classic/basicTaxonInfo"
	imageSearchTerms = "fossil specimen"
)

// ImageSearchURL builds an image search link for specimens of taxon,
// narrowed by formation when given.
func ImageSearchURL(taxon, formation string) string {
	parts := []string{taxon}
	if formation != "" {
		parts = append(parts, formation)
	}
	parts = append(parts, imageSearchTerms)
	return imageSearchBase + "?q=" + url.QueryEscape(strings.Join(parts, " ")) + "&iax=images&ia=images"
}

// FallbackURL links the taxon page by name on the paleobiology database.
func FallbackURL(taxon string) string {
	return basicTaxonInfo + "?taxon_name=" + url.QueryEscape(taxon)
}

// TaxonURL links the taxon page by number.
func TaxonURL(taxonNo string) string {
	return basicTaxonInfo + "?taxon_no=" + url.QueryEscape(taxonNo)
}

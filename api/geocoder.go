// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package api

import "strings"

// Geocoder resolves the city/postcode query parameters accepted by
// GET /v1/artists into a geohash prefix Searcher can filter on. City
// and postcode are alternative ways to name the same kind of filter;
// postcode, being more specific, wins when both are given.
type Geocoder interface {
	GeohashPrefix(city, postcode string) (string, error)
}

// StaticGeocoder resolves city/postcode to a geohash prefix through a
// fixed, in-memory lookup table, normalizing input case and
// whitespace. This is a placeholder for the "postcode-to-geohash
// mapping" the query contract calls for: a real deployment would swap
// it for a managed geocoding API or a bulk postcode database, behind
// the same Geocoder interface.
type StaticGeocoder struct {
	// PostcodeOutcodes maps an outcode (the postcode's first
	// component, e.g. "SW1A" from "SW1A 1AA") to a geohash prefix.
	PostcodeOutcodes map[string]string
	// Cities maps a lowercased city name to a geohash prefix.
	Cities map[string]string
}

// NewStaticGeocoder returns a StaticGeocoder seeded with a small set of
// well-known UK cities, sufficient to exercise the filter end to end.
// Unknown input resolves to an empty prefix rather than an error,
// since an unrecognized location is a valid (if useless) filter, not
// a malformed request.
func NewStaticGeocoder() *StaticGeocoder {
	return &StaticGeocoder{
		Cities: map[string]string{
			"london":     "gcpv",
			"manchester": "gcw2",
			"birmingham": "gcq3",
			"leeds":      "gcwb",
			"glasgow":    "gcvx",
			"bristol":    "gcj4",
		},
		PostcodeOutcodes: map[string]string{
			"SW1A": "gcpvj",
			"M1":   "gcw2b",
			"B1":   "gcq3e",
			"LS1":  "gcwbp",
			"G1":   "gcvxm",
			"BS1":  "gcj4r",
		},
	}
}

// GeohashPrefix implements Geocoder.
func (g *StaticGeocoder) GeohashPrefix(city, postcode string) (string, error) {
	if postcode != "" {
		if prefix, ok := g.PostcodeOutcodes[outcode(postcode)]; ok {
			return prefix, nil
		}
	}
	if city != "" {
		if prefix, ok := g.Cities[strings.ToLower(strings.TrimSpace(city))]; ok {
			return prefix, nil
		}
	}
	return "", nil
}

// outcode extracts the outward code from a UK postcode ("SW1A 1AA" or
// "sw1a1aa" both yield "SW1A"): everything up to the final digit-letter
// boundary that precedes the 3-character inward code, upper-cased.
func outcode(postcode string) string {
	trimmed := strings.ToUpper(strings.ReplaceAll(postcode, " ", ""))
	if len(trimmed) <= 3 {
		return trimmed
	}
	return trimmed[:len(trimmed)-3]
}

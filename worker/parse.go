// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package worker

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tattoodirectory/catalog/catalog"
)

// ParsedArtist is the normalized record extracted from a studio or
// artist page, before it is assigned an id and merged into the catalog.
type ParsedArtist struct {
	Name          string
	ContactHandle string
	PortfolioURL  string
	Styles        []string
	Images        []catalog.PortfolioImage

	// Lat/Lon are the studio's coordinates, when the page publishes
	// them, used to derive the catalog record's geohash (spec §3, §4.1).
	Lat, Lon  float64
	HasLatLon bool
}

// Empty reports whether parsing yielded no usable data, the spec's
// `Empty` classification (not an error, but still a recorded attempt).
func (p ParsedArtist) Empty() bool {
	return p.Name == "" && len(p.Images) == 0
}

// ParseArtistPage extracts a ParsedArtist from an HTML document body.
// It looks for a conventional meta-tag shape:
//
//	<meta name="artist-name" content="..."> (likewise contact-handle,
//	    portfolio-url, styles, latitude, longitude)
//	<img data-portfolio src=... data-style="...,...">
//
// Real studio sites vary widely; this is the normalization layer's
// minimal contract, with site-specific adapters composing on top by
// pre-transforming the body before it reaches ParseArtistPage.
func ParseArtistPage(body []byte) (ParsedArtist, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ParsedArtist{}, err
	}

	var parsed ParsedArtist
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				name, content := attr(n, "name"), attr(n, "content")
				switch name {
				case "artist-name":
					parsed.Name = content
				case "contact-handle":
					parsed.ContactHandle = content
				case "portfolio-url":
					parsed.PortfolioURL = content
				case "styles":
					parsed.Styles = splitAndTrim(content, ",")
				case "latitude":
					if v, err := strconv.ParseFloat(content, 64); err == nil {
						parsed.Lat, parsed.HasLatLon = v, true
					}
				case "longitude":
					if v, err := strconv.ParseFloat(content, 64); err == nil {
						parsed.Lon = v
					}
				}
			case "img":
				marked := false
				for _, a := range n.Attr {
					marked = marked || a.Key == "data-portfolio"
				}
				if src := attr(n, "src"); marked && src != "" {
					parsed.Images = append(parsed.Images, catalog.PortfolioImage{
						SourceURL: src,
						Styles:    splitAndTrim(attr(n, "data-style"), ","),
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return parsed, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func splitAndTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

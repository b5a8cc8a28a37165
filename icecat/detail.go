// Package icecat contains everything that understands the Icecat feed
// format: the streaming index reader, the per-item detail document model,
// and the remote fetcher.
package icecat

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Icecat language ids used throughout the feed.
const (
	LangEN = "1"
	LangDE = "4"
)

// DetailDoc is a parsed per-item detail document.
type DetailDoc struct {
	XMLName xml.Name      `xml:"ICECAT-interface"`
	Product DetailProduct `xml:"Product"`
}

// DetailProduct is the single product element at the document root.
type DetailProduct struct {
	Title         string                 `xml:"Title,attr"`
	HighPic       string                 `xml:"HighPic,attr"`
	Descriptions  []ProductDescription   `xml:"ProductDescription"`
	FeatureGroups []CategoryFeatureGroup `xml:"CategoryFeatureGroup"`
	Features      []ProductFeature       `xml:"ProductFeature"`
	Related       []ProductRelated       `xml:"ProductRelated"`
}

// ProductDescription carries the language-tagged descriptive texts.
type ProductDescription struct {
	LangID       string `xml:"langid,attr"`
	ShortDesc    string `xml:"ShortDesc,attr"`
	LongDesc     string `xml:"LongDesc,attr"`
	WarrantyInfo string `xml:"WarrantyInfo,attr"`
}

// CategoryFeatureGroup declares an attribute group with localized names.
type CategoryFeatureGroup struct {
	ID    string          `xml:"ID,attr"`
	Names []LocalizedName `xml:"FeatureGroup>Name"`
}

// ProductFeature is one attribute entry: raw value, owning group reference
// and the attribute definition with localized names and units.
type ProductFeature struct {
	Value   string     `xml:"Value,attr"`
	GroupID string     `xml:"CategoryFeatureGroup_ID,attr"`
	Feature FeatureRef `xml:"Feature"`
}

// FeatureRef identifies the attribute definition referenced by an entry.
type FeatureRef struct {
	ID    string          `xml:"ID,attr"`
	Names []LocalizedName `xml:"Name"`
	Signs []Sign          `xml:"Measure>Signs>Sign"`
}

// LocalizedName is a language-tagged display name attribute.
type LocalizedName struct {
	LangID string `xml:"langid,attr"`
	Value  string `xml:"Value,attr"`
}

// Sign is a language-tagged unit text ("GHz", "Zoll", ...).
type Sign struct {
	LangID string `xml:"langid,attr"`
	Value  string `xml:",chardata"`
}

// ProductRelated lists references to related catalog items.
type ProductRelated struct {
	Products []RelatedRef `xml:"Product"`
}

// RelatedRef is one related catalog item id.
type RelatedRef struct {
	ID string `xml:"ID,attr"`
}

// ParseDetail decodes a cached detail document. The decoder accepts any
// charset the document declares; cached documents are UTF-8 already but
// older cache entries may still carry their original declaration.
func ParseDetail(data []byte) (*DetailDoc, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var doc DetailDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("icecat: parse detail document: %w", err)
	}
	return &doc, nil
}

// ParseDetailFrom is ParseDetail over a reader.
func ParseDetailFrom(r io.Reader) (*DetailDoc, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("icecat: read detail document: %w", err)
	}
	return ParseDetail(data)
}

// Description returns the description node for the given language id, or nil.
func (p *DetailProduct) Description(langID string) *ProductDescription {
	for i := range p.Descriptions {
		if p.Descriptions[i].LangID == langID {
			return &p.Descriptions[i]
		}
	}
	return nil
}

// RelatedItemIDs flattens the related-item references into external ids.
func (p *DetailProduct) RelatedItemIDs() []string {
	var ids []string
	for _, rel := range p.Related {
		for _, ref := range rel.Products {
			if ref.ID != "" {
				ids = append(ids, ref.ID)
			}
		}
	}
	return ids
}

// NameIn returns the name for an exact language id, or "" when absent.
func NameIn(names []LocalizedName, langID string) string {
	for _, n := range names {
		if n.LangID == langID {
			return n.Value
		}
	}
	return ""
}

// NameFallback resolves a display name along the feed's fallback chain:
// each requested language in order, then the first available one.
func NameFallback(names []LocalizedName, langIDs ...string) string {
	for _, lang := range langIDs {
		if v := NameIn(names, lang); v != "" {
			return v
		}
	}
	if len(names) > 0 {
		return names[0].Value
	}
	return ""
}

// SignIn returns the unit text for an exact language id, or "" when absent.
func SignIn(signs []Sign, langID string) string {
	for _, s := range signs {
		if s.LangID == langID {
			return s.Value
		}
	}
	return ""
}

// SignFallback resolves a unit text along the same fallback chain as names.
func SignFallback(signs []Sign, langIDs ...string) string {
	for _, lang := range langIDs {
		if v := SignIn(signs, lang); v != "" {
			return v
		}
	}
	if len(signs) > 0 {
		return signs[0].Value
	}
	return ""
}

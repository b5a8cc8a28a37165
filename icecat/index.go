package icecat

import (
	"encoding/xml"
	"io"

	"golang.org/x/net/html/charset"

	"icecat-sync/models"
	"icecat-sync/utils"
)

// indexEntry mirrors one <file .../> element of the master index.
type indexEntry struct {
	Path          string `xml:"path,attr"`
	CatalogItemID string `xml:"Product_ID,attr"`
	Updated       string `xml:"Updated,attr"`
	Quality       string `xml:"Quality,attr"`
	SupplierID    string `xml:"Supplier_id,attr"`
	ProdID        string `xml:"Prod_ID,attr"`
	CategoryID    string `xml:"Catid,attr"`
	OnMarket      string `xml:"On_Market,attr"`
	ModelName     string `xml:"Model_Name,attr"`
	ProductView   string `xml:"Product_View,attr"`
}

// MetadataUpserter is the ledger write the index reader needs.
type MetadataUpserter interface {
	UpsertMetadata(rec *models.MetadataRecord) error
}

// IndexReader streams the master index and upserts one ledger record per
// entry matching the configured supplier. The index is far too large to
// materialize, so it is consumed token by token.
type IndexReader struct {
	supplierID string
	logger     *utils.Logger
}

// NewIndexReader creates an IndexReader filtering on the given supplier id.
func NewIndexReader(supplierID string, logger *utils.Logger) *IndexReader {
	return &IndexReader{supplierID: supplierID, logger: logger}
}

// Read consumes the index document and upserts matching entries into the
// ledger. Per-entry upsert failures are logged and collected; they never
// abort the pass. The returned outcomes cover matched entries only.
func (ir *IndexReader) Read(r io.Reader, ledger MetadataUpserter) ([]models.Outcome, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var outcomes []models.Outcome

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return outcomes, err
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "file" {
			continue
		}

		var entry indexEntry
		if err := dec.DecodeElement(&entry, &se); err != nil {
			ir.logger.Warn("[index] Skipping malformed entry: %v", err)
			continue
		}

		if entry.SupplierID != ir.supplierID {
			continue
		}

		rec := &models.MetadataRecord{
			CatalogItemID:   entry.CatalogItemID,
			Path:            entry.Path,
			ProdID:          entry.ProdID,
			SupplierID:      entry.SupplierID,
			CategoryID:      entry.CategoryID,
			Quality:         entry.Quality,
			MarketStatus:    entry.OnMarket,
			ModelName:       entry.ModelName,
			ProductView:     entry.ProductView,
			IcecatUpdatedAt: entry.Updated,
		}

		outcome := models.Outcome{Stage: "index", Key: entry.CatalogItemID}
		if err := ledger.UpsertMetadata(rec); err != nil {
			ir.logger.Error("[index] Metadatum %s could not be saved: %v", entry.ProdID, err)
			outcome.Err = err
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

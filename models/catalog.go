package models

import (
	"database/sql"
	"time"
)

// Attribute datatypes, inferred from the first raw value seen for an
// attribute id and never changed afterwards.
const (
	DatatypeFlag    = "flag"
	DatatypeNumeric = "numeric"
	DatatypeTextual = "textual"
)

// MetadataRecord is one ledger entry tracking a single Icecat catalog item.
// CatalogItemID is the external id and is unique across records. A record
// may exist without a linked product; ProductID is set later by the linker.
type MetadataRecord struct {
	ID              int64
	CatalogItemID   string
	Path            string
	ProdID          string // external article number
	SupplierID      string
	CategoryID      string
	Quality         string
	MarketStatus    string
	ModelName       string
	ProductView     string
	IcecatUpdatedAt string // source-reported timestamp, stored verbatim
	ProductID       sql.NullInt64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Product is the slice of the host application's product entity this
// subsystem reads and writes. The host owns its lifecycle.
type Product struct {
	ID                int64
	ArticleNumber     string
	CategoryID        string
	DescriptionDE     string
	DescriptionEN     string
	LongDescriptionDE string
	LongDescriptionEN string
	WarrantyDE        string
	WarrantyEN        string
	ImageName         string // non-empty means an image is already attached
}

// AttributeGroup is a named grouping of attributes ("Display", "Power", ...).
// Created on first encounter and never updated afterwards, even when a later
// document carries a different name for the same external id.
type AttributeGroup struct {
	ID       int64
	IcecatID string
	NameDE   string
	NameEN   string
	Position int
}

// Attribute is a named, typed attribute definition. Datatype is fixed when
// the row is first created.
type Attribute struct {
	ID       int64
	IcecatID string
	NameDE   string
	NameEN   string
	Position int
	Datatype string
}

// AttributeValue holds one attribute's value for one product. Identity is
// (group, attribute, product, datatype); GroupID is 0 when the document
// referenced a group id that was never declared.
type AttributeValue struct {
	ID          int64
	GroupID     int64
	AttributeID int64
	ProductID   int64
	Datatype    string

	Flag    bool    // flag
	Amount  float64 // numeric
	TitleDE string  // textual
	TitleEN string
	UnitDE  string // numeric and textual
	UnitEN  string
}

// ImageFile pairs downloaded image bytes with their original file name.
type ImageFile struct {
	Name string
	Data []byte
}

// Outcome is the per-item result of one step in a best-effort batch. A nil
// Err means the item succeeded; Skipped marks deliberate no-ops (already
// cached, image already present) so they are not counted as failures.
type Outcome struct {
	Stage   string
	Key     string
	Err     error
	Skipped bool
}

// SyncReport aggregates the outcomes of a full synchronization run.
type SyncReport struct {
	TotalByStage   map[string]int
	FailedByStage  map[string]int
	SkippedByStage map[string]int
	Failures       []Outcome
}

package storage

import (
	"time"

	"icecat-sync/models"
)

// MetadataStore is the ledger: one record per catalog item.
type MetadataStore interface {
	UpsertMetadata(rec *models.MetadataRecord) error
	MetadataByArticleNumber(articleNumber string) ([]*models.MetadataRecord, error)
	MetadataByItemIDs(itemIDs []string) ([]*models.MetadataRecord, error)
	LinkedMetadata(updatedSince time.Time) ([]*models.MetadataRecord, error)
	LinkMetadataProduct(metadataID, productID int64) error
}

// ProductStore is the slice of the host application's product persistence
// this subsystem consumes.
type ProductStore interface {
	ProductsWithoutMetadata() ([]*models.Product, error)
	AllProducts() ([]*models.Product, error)
	ProductByID(id int64) (*models.Product, error)
	// UpdateProductTexts rewrites long description and warranty texts;
	// short descriptions only when includeShort is set (first import).
	UpdateProductTexts(p *models.Product, includeShort bool) error
	// AttachProductImage stores image bytes and name without triggering
	// any host-side validation.
	AttachProductImage(productID int64, img *models.ImageFile) error
	// ReplaceProductRelations swaps the product's relation edges for the
	// given same-category and cross-category product ids.
	ReplaceProductRelations(productID int64, sameCategory, crossCategory []int64) error
}

// SchemaStore holds the typed attribute schema: groups, attributes, values.
type SchemaStore interface {
	// EnsureAttributeGroup creates the group if its external id is unseen
	// and returns the stored row either way. First writer wins; the name
	// is never updated afterwards.
	EnsureAttributeGroup(g *models.AttributeGroup) (*models.AttributeGroup, error)
	// AttributeGroupByIcecatID returns (nil, nil) when the id is unknown.
	AttributeGroupByIcecatID(icecatID string) (*models.AttributeGroup, error)
	// EnsureAttribute creates the attribute if its external id is unseen
	// and returns the stored row; the stored datatype always wins.
	EnsureAttribute(a *models.Attribute) (*models.Attribute, error)
	DeleteValuesForProduct(productID int64) error
	SaveValue(v *models.AttributeValue) error
}

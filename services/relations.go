package services

import (
	"icecat-sync/icecat"
	"icecat-sync/models"
	"icecat-sync/storage"
	"icecat-sync/utils"
)

// RelationBuilder derives the product relation graph from a cached detail
// document. Edges to items in the same category become product relations,
// everything else supply relations. Both edge sets are rebuilt from scratch
// on each pass.
type RelationBuilder struct {
	metadata storage.MetadataStore
	products storage.ProductStore
	cache    *storage.DocumentCache
	logger   *utils.Logger
}

// NewRelationBuilder creates a RelationBuilder over the given stores.
func NewRelationBuilder(metadata storage.MetadataStore, products storage.ProductStore,
	cache *storage.DocumentCache, logger *utils.Logger) *RelationBuilder {
	return &RelationBuilder{metadata: metadata, products: products, cache: cache, logger: logger}
}

// Build reads the document's related-item references, resolves each through
// the ledger to a linked product, classifies the edge by category, and swaps
// the product's relation sets. Unresolvable references are silently skipped;
// partial relation graphs are expected. A write failure is logged, not
// raised.
func (rb *RelationBuilder) Build(rec *models.MetadataRecord, target *models.Product) error {
	data, err := rb.cache.Read(rec.CatalogItemID)
	if err != nil {
		rb.logger.Error("[relations] File not available for item %s: %v", rec.CatalogItemID, err)
		return err
	}

	doc, err := icecat.ParseDetail(data)
	if err != nil {
		rb.logger.Error("[relations] Item %s: %v", rec.CatalogItemID, err)
		return err
	}

	if target == nil {
		if !rec.ProductID.Valid {
			return ErrNoLinkedProduct
		}
		target, err = rb.products.ProductByID(rec.ProductID.Int64)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrNoLinkedProduct
		}
	}

	itemIDs := doc.Product.RelatedItemIDs()
	related, err := rb.metadata.MetadataByItemIDs(itemIDs)
	if err != nil {
		return err
	}

	var sameCategory, crossCategory []int64
	for _, relRec := range related {
		if !relRec.ProductID.Valid || relRec.ProductID.Int64 <= 0 {
			continue
		}
		if relRec.CategoryID == rec.CategoryID {
			sameCategory = append(sameCategory, relRec.ProductID.Int64)
		} else {
			crossCategory = append(crossCategory, relRec.ProductID.Int64)
		}
	}

	if err := rb.products.ReplaceProductRelations(target.ID, sameCategory, crossCategory); err != nil {
		rb.logger.Error("[relations] Product %d could not be updated: %v", target.ID, err)
	}
	return nil
}

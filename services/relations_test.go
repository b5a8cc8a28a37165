package services

import (
	"database/sql"
	"testing"

	"icecat-sync/models"
)

func TestRelationClassification(t *testing.T) {
	metadata := &fakeMetadataStore{}
	// same category as the target record
	metadata.records = append(metadata.records, &models.MetadataRecord{
		ID: 2, CatalogItemID: "43", CategoryID: "151",
		ProductID: sql.NullInt64{Int64: 20, Valid: true},
	})
	// different category
	metadata.records = append(metadata.records, &models.MetadataRecord{
		ID: 3, CatalogItemID: "44", CategoryID: "999",
		ProductID: sql.NullInt64{Int64: 30, Valid: true},
	})
	// item 45 is not in the ledger at all: silently skipped

	product := &models.Product{ID: 10, CategoryID: "151"}
	products := newFakeProductStore(product)
	cache := testCache(t, "42", testDetailDoc)

	rb := NewRelationBuilder(metadata, products, cache, newTestLogger())
	if err := rb.Build(testRecord("42", 10), product); err != nil {
		t.Fatalf("Build: %v", err)
	}

	same := products.sameEdges[10]
	cross := products.crossEdges[10]
	if len(same) != 1 || same[0] != 20 {
		t.Errorf("same-category edges = %v; want [20]", same)
	}
	if len(cross) != 1 || cross[0] != 30 {
		t.Errorf("cross-category edges = %v; want [30]", cross)
	}
}

func TestRelationSkipsUnlinkedRecords(t *testing.T) {
	metadata := &fakeMetadataStore{}
	// in the ledger but never linked to a product
	metadata.records = append(metadata.records, &models.MetadataRecord{
		ID: 2, CatalogItemID: "43", CategoryID: "151",
	})

	product := &models.Product{ID: 10, CategoryID: "151"}
	products := newFakeProductStore(product)
	cache := testCache(t, "42", testDetailDoc)

	rb := NewRelationBuilder(metadata, products, cache, newTestLogger())
	if err := rb.Build(testRecord("42", 10), product); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(products.sameEdges[10]) != 0 || len(products.crossEdges[10]) != 0 {
		t.Errorf("unlinked references must not produce edges: %v / %v",
			products.sameEdges[10], products.crossEdges[10])
	}
}

func TestRelationRebuildClearsOldEdges(t *testing.T) {
	metadata := &fakeMetadataStore{}
	product := &models.Product{ID: 10, CategoryID: "151"}
	products := newFakeProductStore(product)
	products.sameEdges[10] = []int64{111}
	products.crossEdges[10] = []int64{222}
	cache := testCache(t, "42", testDetailDoc)

	rb := NewRelationBuilder(metadata, products, cache, newTestLogger())
	if err := rb.Build(testRecord("42", 10), product); err != nil {
		t.Fatalf("Build: %v", err)
	}

	// no resolvable references in the ledger: both edge sets end up empty
	if len(products.sameEdges[10]) != 0 || len(products.crossEdges[10]) != 0 {
		t.Errorf("old edges survived the rebuild: %v / %v",
			products.sameEdges[10], products.crossEdges[10])
	}
}

func TestRelationMissingDocument(t *testing.T) {
	cache := testCache(t, "42", "")
	rb := NewRelationBuilder(&fakeMetadataStore{}, newFakeProductStore(), cache, newTestLogger())

	if err := rb.Build(testRecord("42", 10), &models.Product{ID: 10}); err == nil {
		t.Error("expected an error for a missing document")
	}
}

package services

import (
	"testing"

	"icecat-sync/models"
)

func TestLinkLinksAllMatchingRecords(t *testing.T) {
	metadata := &fakeMetadataStore{}
	// two catalog variants share one article number
	metadata.records = append(metadata.records,
		&models.MetadataRecord{ID: 1, CatalogItemID: "42", ProdID: "ABC-1"},
		&models.MetadataRecord{ID: 2, CatalogItemID: "43", ProdID: "ABC-1"},
		&models.MetadataRecord{ID: 3, CatalogItemID: "44", ProdID: "XYZ-9"},
	)
	products := newFakeProductStore(&models.Product{ID: 10, ArticleNumber: "ABC-1"})

	linker := NewLinker(metadata, products, newTestLogger())
	outcomes, err := linker.Link(true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}

	for _, rec := range metadata.records {
		switch rec.ProdID {
		case "ABC-1":
			if !rec.ProductID.Valid || rec.ProductID.Int64 != 10 {
				t.Errorf("record %s not linked: %+v", rec.CatalogItemID, rec.ProductID)
			}
		default:
			if rec.ProductID.Valid {
				t.Errorf("record %s linked unexpectedly", rec.CatalogItemID)
			}
		}
	}
}

func TestLinkZeroMatchesIsSkipped(t *testing.T) {
	products := newFakeProductStore(&models.Product{ID: 10, ArticleNumber: "NOPE-1"})

	linker := NewLinker(&fakeMetadataStore{}, products, newTestLogger())
	outcomes, err := linker.Link(true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].Skipped || outcomes[0].Err != nil {
		t.Errorf("expected one skipped outcome, got %+v", outcomes)
	}
}

func TestLinkOnlyMissingSelection(t *testing.T) {
	metadata := &fakeMetadataStore{}
	metadata.records = append(metadata.records,
		&models.MetadataRecord{ID: 1, CatalogItemID: "42", ProdID: "ABC-1"},
		&models.MetadataRecord{ID: 2, CatalogItemID: "43", ProdID: "DEF-2"},
	)

	linked := &models.Product{ID: 10, ArticleNumber: "ABC-1"}
	unlinked := &models.Product{ID: 11, ArticleNumber: "DEF-2"}
	products := newFakeProductStore(linked, unlinked)
	products.linked[linked.ID] = true

	linker := NewLinker(metadata, products, newTestLogger())
	outcomes, err := linker.Link(true)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	if len(outcomes) != 1 || outcomes[0].Key != "DEF-2" {
		t.Errorf("onlyMissing should process the unlinked product only, got %+v", outcomes)
	}

	outcomes, err = linker.Link(false)
	if err != nil {
		t.Fatalf("Link all: %v", err)
	}
	if len(outcomes) != 2 {
		t.Errorf("expected both products in the full pass, got %d", len(outcomes))
	}
}

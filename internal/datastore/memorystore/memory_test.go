package memorystore

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"document-retrieval-gateway/models"
	"document-retrieval-gateway/services"
)

func newStore() *Store {
	return New(services.NewChunker(1000, 200))
}

func TestUpsertAssignsIDs(t *testing.T) {
	store := newStore()

	ids, err := store.Upsert(context.Background(), []models.Document{
		{Text: "first document about go services"},
		{ID: "fixed-id", Text: "second document about http routing"},
	}, 0, 0)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}
	if ids[0] == "" {
		t.Fatal("missing generated id")
	}
	if ids[1] != "fixed-id" {
		t.Fatalf("supplied id not kept: %q", ids[1])
	}
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
}

func TestUpsertReplacesExistingDocument(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	if _, err := store.Upsert(ctx, []models.Document{{ID: "d1", Text: "original text about cats"}}, 0, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := store.Upsert(ctx, []models.Document{{ID: "d1", Text: "replacement text about dogs"}}, 0, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}

	results, err := store.Query(ctx, []models.Query{{Query: "cats"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results[0].Results) != 0 {
		t.Fatalf("old chunks still queryable: %+v", results[0].Results)
	}
}

func TestQueryRanksAndLimits(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	if _, err := store.Upsert(ctx, []models.Document{
		{ID: "a", Text: "kubernetes cluster networking and ingress"},
		{ID: "b", Text: "kubernetes deployment basics"},
		{ID: "c", Text: "cooking recipes for pasta"},
	}, 0, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := store.Query(ctx, []models.Query{{Query: "kubernetes networking ingress", TopK: 2}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	got := results[0].Results
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].DocumentID != "a" {
		t.Fatalf("best match = %q, want a", got[0].DocumentID)
	}
	if got[0].Score < got[1].Score {
		t.Fatalf("results not ranked: %f < %f", got[0].Score, got[1].Score)
	}
}

func TestQueryHonorsMetadataFilter(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	if _, err := store.Upsert(ctx, []models.Document{
		{ID: "a", Text: "shared topic report", Metadata: models.DocumentMetadata{Author: "alice", Source: models.SourceFile}},
		{ID: "b", Text: "shared topic report", Metadata: models.DocumentMetadata{Author: "bob", Source: models.SourceEmail}},
	}, 0, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := store.Query(ctx, []models.Query{{
		Query:  "shared topic",
		Filter: &models.DocumentMetadataFilter{Author: "alice"},
	}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	got := results[0].Results
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].Metadata.Author != "alice" {
		t.Fatalf("filter leaked: %+v", got[0].Metadata)
	}
}

func TestQueryResultsInQueryOrder(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	if _, err := store.Upsert(ctx, []models.Document{{Text: "alpha beta gamma"}}, 0, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := store.Query(ctx, []models.Query{{Query: "alpha"}, {Query: "gamma"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 || results[0].Query != "alpha" || results[1].Query != "gamma" {
		t.Fatalf("results out of order: %+v", results)
	}
}

func TestQueryNoMatchesMarshalsEmptyList(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	if _, err := store.Upsert(ctx, []models.Document{{Text: "totally unrelated content"}}, 0, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := store.Query(ctx, []models.Query{{Query: "zzzzz"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if results[0].Results == nil {
		t.Fatal("no-match results slice is nil")
	}

	data, err := json.Marshal(results[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"results":[]`) {
		t.Fatalf("no-match results marshal as %s, want empty list", data)
	}
}

func TestDeleteByIDs(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	if _, err := store.Upsert(ctx, []models.Document{
		{ID: "keep", Text: "kept document"},
		{ID: "drop", Text: "dropped document"},
	}, 0, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	ok, err := store.Delete(ctx, []string{"drop"}, nil, false)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
}

func TestDeleteByFilter(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	if _, err := store.Upsert(ctx, []models.Document{
		{ID: "a", Text: "by alice", Metadata: models.DocumentMetadata{Author: "alice"}},
		{ID: "b", Text: "by bob", Metadata: models.DocumentMetadata{Author: "bob"}},
	}, 0, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	ok, err := store.Delete(ctx, nil, &models.DocumentMetadataFilter{Author: "alice"}, false)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
}

func TestDeleteAll(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	if _, err := store.Upsert(ctx, []models.Document{{Text: "one"}, {Text: "two"}}, 0, 0); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	ok, err := store.Delete(ctx, nil, nil, true)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	if store.Len() != 0 {
		t.Fatalf("Len = %d, want 0", store.Len())
	}
}

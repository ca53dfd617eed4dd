package database

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func insertTestItem(t *testing.T, db *DB, contentType, name string) int64 {
	t.Helper()
	id, err := db.InsertItem(contentType, "/data/files/"+name, name, 100, 42,
		ptr("go, sqlite"), ptr("A test item."), ptr("technology"))
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}
	return id
}

func TestInsertAndGetItem(t *testing.T) {
	db := openTestDB(t)
	id := insertTestItem(t, db, "documents", "report.pdf")
	if id == 0 {
		t.Fatal("expected non-zero item ID")
	}

	item, err := db.GetItemByID(id)
	if err != nil {
		t.Fatalf("GetItemByID: %v", err)
	}
	if item == nil {
		t.Fatal("expected item, got nil")
	}
	if item.ContentType != "documents" || item.OriginalName != "report.pdf" {
		t.Errorf("unexpected item: %+v", item)
	}
	if item.GitHubPublished {
		t.Error("new item should not be published")
	}
	if item.Tags == nil || *item.Tags != "go, sqlite" {
		t.Errorf("unexpected tags: %v", item.Tags)
	}
}

func TestGetItemByIDNotFound(t *testing.T) {
	db := openTestDB(t)
	item, err := db.GetItemByID(999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item != nil {
		t.Error("expected nil for missing item")
	}
}

func TestListByCategory(t *testing.T) {
	db := openTestDB(t)
	insertTestItem(t, db, "notes", "note_1.txt")
	insertTestItem(t, db, "notes", "note_2.txt")
	insertTestItem(t, db, "images", "photo.jpg")

	notes, err := db.ListByCategory("notes")
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	// Newest first: second insert before first.
	if notes[0].OriginalName != "note_2.txt" {
		t.Errorf("expected newest first, got %q", notes[0].OriginalName)
	}
}

func TestSearchItems(t *testing.T) {
	db := openTestDB(t)
	db.InsertItem("notes", "/f/a", "grocery list", 1, 42, ptr("food, shopping"), ptr("Weekly groceries."), ptr("personal"))
	db.InsertItem("documents", "/f/b", "tax-return.pdf", 2, 42, ptr("finance"), ptr("Annual tax filing."), ptr("finance"))

	byTag, err := db.SearchItems("shopping")
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if len(byTag) != 1 || byTag[0].OriginalName != "grocery list" {
		t.Errorf("search by tag: %v", byTag)
	}

	byName, _ := db.SearchItems("TAX-RETURN")
	if len(byName) != 1 {
		t.Errorf("expected case-insensitive name match, got %d results", len(byName))
	}

	byTopic, _ := db.SearchItems("finance")
	if len(byTopic) != 1 {
		t.Errorf("expected 1 topic match, got %d", len(byTopic))
	}

	none, _ := db.SearchItems("nonexistent")
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestFilterByDate(t *testing.T) {
	db := openTestDB(t)
	insertTestItem(t, db, "notes", "today.txt")

	today := time.Now().UTC().Format("2006-01-02")
	items, err := db.FilterByDate(today)
	if err != nil {
		t.Fatalf("FilterByDate: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item for today, got %d", len(items))
	}

	past, _ := db.FilterByDate("1999-01-01")
	if len(past) != 0 {
		t.Errorf("expected no items for 1999, got %d", len(past))
	}
}

func TestPublishStatusLifecycle(t *testing.T) {
	db := openTestDB(t)
	id := insertTestItem(t, db, "notes", "note.txt")

	unpublished, err := db.GetUnpublished(10)
	if err != nil {
		t.Fatalf("GetUnpublished: %v", err)
	}
	if len(unpublished) != 1 {
		t.Fatalf("expected 1 unpublished item, got %d", len(unpublished))
	}

	if err := db.UpdatePublishStatus(id, "https://github.com/alice/archive/blob/main/notes/note.md"); err != nil {
		t.Fatalf("UpdatePublishStatus: %v", err)
	}

	item, _ := db.GetItemByID(id)
	if !item.GitHubPublished {
		t.Error("expected published flag set")
	}
	if item.GitHubURL == nil || *item.GitHubURL == "" {
		t.Error("expected github url set")
	}

	unpublished, _ = db.GetUnpublished(10)
	if len(unpublished) != 0 {
		t.Errorf("expected 0 unpublished items, got %d", len(unpublished))
	}
}

func TestUpdateAIFields(t *testing.T) {
	db := openTestDB(t)
	id := insertTestItem(t, db, "links", "https://example.com")

	if err := db.UpdateAIFields(id, ptr("web, article"), nil, ptr("technology")); err != nil {
		t.Fatalf("UpdateAIFields: %v", err)
	}

	item, _ := db.GetItemByID(id)
	if item.Tags == nil || *item.Tags != "web, article" {
		t.Errorf("tags not updated: %v", item.Tags)
	}
	// Nil argument must not clobber the existing summary.
	if item.Summary == nil || *item.Summary != "A test item." {
		t.Errorf("summary should be untouched: %v", item.Summary)
	}
}

func TestInsertAndQueryDecisions(t *testing.T) {
	db := openTestDB(t)
	itemID := insertTestItem(t, db, "notes", "note.txt")
	msgID := int64(100)

	did, err := db.InsertDecision("github_publish_decision",
		"Content type: notes\nHas trigger: true",
		"1. publish_to_github\n2. store_locally_only",
		"publish_to_github", "Explicit publish trigger detected.", "high",
		&itemID, &msgID)
	if err != nil {
		t.Fatalf("InsertDecision: %v", err)
	}
	if did == 0 {
		t.Fatal("expected non-zero decision ID")
	}

	db.InsertDecision("github_publish_decision", "ctx", "opts",
		"store_locally_only", "No publish trigger present.", "high", &itemID, &msgID)

	decisions, err := db.GetDecisionsForItem(itemID)
	if err != nil {
		t.Fatalf("GetDecisionsForItem: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0].Recommendation != "store_locally_only" {
		t.Errorf("expected newest decision first, got %q", decisions[0].Recommendation)
	}

	recent, _ := db.GetRecentDecisions(1)
	if len(recent) != 1 {
		t.Errorf("expected limit respected, got %d", len(recent))
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	insertTestItem(t, db, "notes", "a.txt")
	insertTestItem(t, db, "notes", "b.txt")
	id := insertTestItem(t, db, "images", "c.jpg")
	db.UpdatePublishStatus(id, "https://example.com/c")
	db.InsertDecision("github_publish_decision", "c", "o", "publish_to_github", "r", "high", &id, nil)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalItems != 3 {
		t.Errorf("total items = %d", stats.TotalItems)
	}
	if stats.PublishedItems != 1 {
		t.Errorf("published items = %d", stats.PublishedItems)
	}
	if stats.ItemsByType["notes"] != 2 {
		t.Errorf("notes count = %d", stats.ItemsByType["notes"])
	}
	if stats.TotalDecisions != 1 {
		t.Errorf("decisions = %d", stats.TotalDecisions)
	}
}

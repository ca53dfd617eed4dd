package githubapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeRepo simulates the GitHub contents API over an in-memory file map.
type fakeRepo struct {
	mu      sync.Mutex
	files   map[string]fakeFile // path -> file
	puts    []string            // paths in PUT order
	failAll int                 // non-404 status to return for every request
}

type fakeFile struct {
	sha     string
	content string
}

func (f *fakeRepo) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.failAll != 0 {
			http.Error(w, "forced failure", f.failAll)
			return
		}

		const prefix = "/repos/alice/archive/contents/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, prefix)

		switch r.Method {
		case "GET":
			if file, ok := f.files[path]; ok {
				json.NewEncoder(w).Encode(map[string]any{
					"path": path, "sha": file.sha,
					"html_url": "https://github.com/alice/archive/blob/main/" + path,
				})
				return
			}
			// Folder probe: any file under the prefix means the folder exists.
			for p := range f.files {
				if strings.HasPrefix(p, path+"/") {
					json.NewEncoder(w).Encode([]map[string]any{{"path": p}})
					return
				}
			}
			http.NotFound(w, r)
		case "PUT":
			var body struct {
				Message string `json:"message"`
				Content string `json:"content"`
				SHA     string `json:"sha"`
			}
			json.NewDecoder(r.Body).Decode(&body)

			existing, exists := f.files[path]
			if exists && body.SHA != existing.sha {
				http.Error(w, "sha mismatch", http.StatusConflict)
				return
			}
			if !exists && body.SHA != "" {
				http.Error(w, "sha for new file", http.StatusUnprocessableEntity)
				return
			}

			decoded, _ := base64.StdEncoding.DecodeString(body.Content)
			f.files[path] = fakeFile{sha: fmt.Sprintf("sha-%d", len(f.puts)), content: string(decoded)}
			f.puts = append(f.puts, path)

			status := http.StatusCreated
			if exists {
				status = http.StatusOK
			}
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"content": map[string]any{
					"path": path, "sha": f.files[path].sha,
					"html_url": "https://github.com/alice/archive/blob/main/" + path,
				},
			})
		default:
			http.Error(w, "method", http.StatusMethodNotAllowed)
		}
	}
}

func newTestClient(t *testing.T, repo *fakeRepo) *Client {
	t.Helper()
	ts := httptest.NewServer(repo.handler(t))
	t.Cleanup(ts.Close)
	c := NewClient(ts.URL, "alice/archive", "test-token")
	c.client = ts.Client()
	return c
}

func TestPublishTextCreatesWithAncestors(t *testing.T) {
	repo := &fakeRepo{files: map[string]fakeFile{}}
	c := newTestClient(t, repo)

	url, err := c.PublishText(context.Background(), "notes/technology", "go-notes.md", "# Go Notes", "Add notes on Go")
	if err != nil {
		t.Fatalf("PublishText: %v", err)
	}
	if !strings.HasSuffix(url, "notes/technology/go-notes.md") {
		t.Errorf("url = %q", url)
	}

	// Ancestors created root to leaf, each exactly once, before the file.
	want := []string{"notes/.gitkeep", "notes/technology/.gitkeep", "notes/technology/go-notes.md"}
	if len(repo.puts) != len(want) {
		t.Fatalf("puts = %v", repo.puts)
	}
	for i, p := range want {
		if repo.puts[i] != p {
			t.Errorf("put[%d] = %q, want %q", i, repo.puts[i], p)
		}
	}
}

func TestPublishTextUpdatesExisting(t *testing.T) {
	repo := &fakeRepo{files: map[string]fakeFile{}}
	c := newTestClient(t, repo)

	if _, err := c.PublishText(context.Background(), "notes/go", "a.md", "v1", "Add a"); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	createdPuts := len(repo.puts)

	if _, err := c.PublishText(context.Background(), "notes/go", "a.md", "v2", "Update a"); err != nil {
		t.Fatalf("second publish: %v", err)
	}

	// Second publish is a single update, no new folders, no duplicate file.
	if len(repo.puts) != createdPuts+1 {
		t.Errorf("puts after update = %v", repo.puts)
	}
	if repo.files["notes/go/a.md"].content != "v2" {
		t.Errorf("content = %q, want v2", repo.files["notes/go/a.md"].content)
	}
}

func TestPublishBinaryRoundTrips(t *testing.T) {
	repo := &fakeRepo{files: map[string]fakeFile{}}
	c := newTestClient(t, repo)

	data := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01}
	if _, err := c.PublishBinary(context.Background(), "pictures/art", "p.png", data, "Add raw file: p.png"); err != nil {
		t.Fatalf("PublishBinary: %v", err)
	}
	if repo.files["pictures/art/p.png"].content != string(data) {
		t.Error("binary content corrupted in transit")
	}
}

func TestGetContentsNotFound(t *testing.T) {
	repo := &fakeRepo{files: map[string]fakeFile{}}
	c := newTestClient(t, repo)

	_, err := c.GetContents(context.Background(), "missing/file.md")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOtherFailuresPropagate(t *testing.T) {
	repo := &fakeRepo{files: map[string]fakeFile{}, failAll: http.StatusUnauthorized}
	c := newTestClient(t, repo)

	_, err := c.PublishText(context.Background(), "notes", "a.md", "x", "m")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("auth failure must not be classified as not-found")
	}
}

func TestEnsureCategoryFolders(t *testing.T) {
	repo := &fakeRepo{files: map[string]fakeFile{
		"notes/.gitkeep": {sha: "existing"},
	}}
	c := newTestClient(t, repo)

	if err := c.EnsureCategoryFolders(context.Background()); err != nil {
		t.Fatalf("EnsureCategoryFolders: %v", err)
	}

	for _, folder := range []string{"pictures", "documents", "audios", "links"} {
		if _, ok := repo.files[folder+"/.gitkeep"]; !ok {
			t.Errorf("folder %s not bootstrapped", folder)
		}
	}
	// Pre-existing notes folder must not be touched.
	for _, p := range repo.puts {
		if p == "notes/.gitkeep" {
			t.Error("existing folder recreated")
		}
	}
}

func TestEnsureCategoryFoldersIdempotent(t *testing.T) {
	repo := &fakeRepo{files: map[string]fakeFile{}}
	c := newTestClient(t, repo)

	if err := c.EnsureCategoryFolders(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	created := len(repo.puts)
	if err := c.EnsureCategoryFolders(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(repo.puts) != created {
		t.Errorf("second run created folders: %v", repo.puts[created:])
	}
}

func TestCategoryFolderMapping(t *testing.T) {
	if CategoryFolders["images"] != "pictures" {
		t.Errorf("images -> %q", CategoryFolders["images"])
	}
	for _, cat := range []string{"documents", "links", "notes"} {
		if CategoryFolders[cat] != cat {
			t.Errorf("%s -> %q", cat, CategoryFolders[cat])
		}
	}
}

package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/umunnaprecious2-prog/brain-box/internal/classify"
	"github.com/umunnaprecious2-prog/brain-box/internal/database"
	"github.com/umunnaprecious2-prog/brain-box/internal/decide"
	"github.com/umunnaprecious2-prog/brain-box/internal/pipeline"
)

// fakeTelegram simulates the Bot API endpoints the bot touches.
type fakeTelegram struct {
	mu       sync.Mutex
	sent     []string // sendMessage texts in order
	fileData []byte
}

func (f *fakeTelegram) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			r.ParseForm()
			f.sent = append(f.sent, r.Form.Get("text"))
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{}})
		case strings.HasSuffix(r.URL.Path, "/getFile"):
			json.NewEncoder(w).Encode(map[string]any{
				"ok": true, "result": map[string]any{"file_path": "documents/file_1.pdf"},
			})
		case strings.Contains(r.URL.Path, "/file/bot"):
			w.Write(f.fileData)
		default:
			json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "unknown method"})
		}
	}
}

func (f *fakeTelegram) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// fakeProcessor records pipeline calls and returns a canned result.
type fakeProcessor struct {
	inbound []pipeline.Inbound
	result  *pipeline.Result
	pubURL  string
	pubErr  error
}

func (p *fakeProcessor) Process(_ context.Context, in pipeline.Inbound) (*pipeline.Result, error) {
	p.inbound = append(p.inbound, in)
	if p.result != nil {
		return p.result, nil
	}
	return &pipeline.Result{
		Category: "notes",
		Analysis: classify.Result{Tags: []string{"notes"}, Summary: "A note.", Topic: "general"},
		Decision: decide.Result{Recommendation: decide.RecommendStore},
		Status:   pipeline.StatusStored,
	}, nil
}

func (p *fakeProcessor) PublishItem(context.Context, *database.ContentItem) (string, error) {
	return p.pubURL, p.pubErr
}

func newTestBot(t *testing.T, proc *fakeProcessor) (*Bot, *fakeTelegram, *database.DB) {
	t.Helper()
	tg := &fakeTelegram{fileData: []byte("%PDF-1.4 test")}
	ts := httptest.NewServer(tg.handler())
	t.Cleanup(ts.Close)

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	b := &Bot{
		api:           NewAPI("test-token", ts.URL),
		db:            db,
		pipe:          proc,
		allowedUserID: 42,
		pollTimeout:   1,
	}
	return b, tg, db
}

func message(userID int64, text string) *Message {
	return &Message{MessageID: 1, From: &User{ID: userID}, Chat: Chat{ID: userID}, Text: text}
}

func TestUnauthorizedUserRejected(t *testing.T) {
	proc := &fakeProcessor{}
	b, tg, _ := newTestBot(t, proc)

	b.handleMessage(context.Background(), message(999, "some note"))

	if len(proc.inbound) != 0 {
		t.Error("pipeline invoked for unauthorized user")
	}
	msgs := tg.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "private bot") {
		t.Errorf("replies = %v", msgs)
	}
}

func TestTextNoteProcessed(t *testing.T) {
	proc := &fakeProcessor{}
	b, tg, _ := newTestBot(t, proc)

	b.handleMessage(context.Background(), message(42, "remember the milk"))

	if len(proc.inbound) != 1 {
		t.Fatalf("pipeline calls = %d", len(proc.inbound))
	}
	if proc.inbound[0].Text != "remember the milk" {
		t.Errorf("inbound text = %q", proc.inbound[0].Text)
	}
	msgs := tg.messages()
	if len(msgs) == 0 || !strings.Contains(msgs[len(msgs)-1], "Saved notes.") {
		t.Errorf("replies = %v", msgs)
	}
}

func TestDocumentDownloadedAndProcessed(t *testing.T) {
	proc := &fakeProcessor{}
	b, tg, _ := newTestBot(t, proc)

	b.handleMessage(context.Background(), &Message{
		MessageID: 5,
		From:      &User{ID: 42},
		Chat:      Chat{ID: 42},
		Caption:   "#github keep this",
		Document:  &Document{FileID: "abc", FileName: "report.pdf", MimeType: "application/pdf"},
	})

	if len(proc.inbound) != 1 {
		t.Fatalf("pipeline calls = %d", len(proc.inbound))
	}
	in := proc.inbound[0]
	if in.OriginalName != "report.pdf" || in.Text != "#github keep this" {
		t.Errorf("inbound = %+v", in)
	}
	if string(in.Data) != "%PDF-1.4 test" {
		t.Errorf("downloaded data = %q", in.Data)
	}
	msgs := tg.messages()
	if len(msgs) < 2 || !strings.Contains(msgs[0], "Received documents: report.pdf") {
		t.Errorf("replies = %v", msgs)
	}
}

func TestPublishedResultAnnouncesURL(t *testing.T) {
	proc := &fakeProcessor{result: &pipeline.Result{
		Category:  "notes",
		Analysis:  classify.Result{Tags: []string{"go"}, Summary: "Go tips.", Topic: "golang"},
		Decision:  decide.Result{Recommendation: decide.RecommendPublish},
		Status:    pipeline.StatusPublished,
		GitHubURL: "https://github.com/alice/archive/blob/main/notes/golang/tips.md",
	}}
	b, tg, _ := newTestBot(t, proc)

	b.handleMessage(context.Background(), message(42, "#github go tips"))

	msgs := tg.messages()
	last := msgs[len(msgs)-1]
	if !strings.Contains(last, "Published to GitHub: https://github.com/alice/archive") {
		t.Errorf("final reply = %q", last)
	}
}

func TestPublishFailureAnnounced(t *testing.T) {
	proc := &fakeProcessor{result: &pipeline.Result{
		Category: "notes",
		Analysis: classify.Result{Tags: []string{"go"}, Summary: "Go tips.", Topic: "golang"},
		Status:   pipeline.StatusPublishFailed,
	}}
	b, tg, _ := newTestBot(t, proc)

	b.handleMessage(context.Background(), message(42, "#github go tips"))

	msgs := tg.messages()
	last := msgs[len(msgs)-1]
	if !strings.Contains(last, "GitHub publishing failed. Content is saved locally.") {
		t.Errorf("final reply = %q", last)
	}
}

func TestListCommandValidation(t *testing.T) {
	proc := &fakeProcessor{}
	b, tg, _ := newTestBot(t, proc)

	b.handleMessage(context.Background(), message(42, "/list"))
	b.handleMessage(context.Background(), message(42, "/list videos"))
	b.handleMessage(context.Background(), message(42, "/list notes"))

	msgs := tg.messages()
	if len(msgs) != 3 {
		t.Fatalf("replies = %v", msgs)
	}
	if !strings.Contains(msgs[0], "Usage: /list") {
		t.Errorf("missing args reply = %q", msgs[0])
	}
	if !strings.Contains(msgs[1], "Invalid type") {
		t.Errorf("invalid type reply = %q", msgs[1])
	}
	if !strings.Contains(msgs[2], "No notes found.") {
		t.Errorf("empty list reply = %q", msgs[2])
	}
}

func TestListShowsStoredItems(t *testing.T) {
	proc := &fakeProcessor{}
	b, tg, db := newTestBot(t, proc)

	tags, summary, topic := "go, tooling", "Build caching notes.", "golang"
	if _, err := db.InsertItem("notes", "/tmp/x.txt", "caching.txt", 1, 42, &tags, &summary, &topic); err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	b.handleMessage(context.Background(), message(42, "/list notes"))

	msgs := tg.messages()
	last := msgs[len(msgs)-1]
	if !strings.Contains(last, "caching.txt") || !strings.Contains(last, "go, tooling") {
		t.Errorf("list reply = %q", last)
	}
}

func TestSearchCommand(t *testing.T) {
	proc := &fakeProcessor{}
	b, tg, db := newTestBot(t, proc)

	tags, summary, topic := "kubernetes", "Debugging pods.", "devops"
	db.InsertItem("notes", "/tmp/k.txt", "k8s.txt", 2, 42, &tags, &summary, &topic)

	b.handleMessage(context.Background(), message(42, "/search kubernetes"))
	b.handleMessage(context.Background(), message(42, "/search nonexistentterm"))

	msgs := tg.messages()
	if !strings.Contains(msgs[0], "k8s.txt") {
		t.Errorf("hit reply = %q", msgs[0])
	}
	if !strings.Contains(msgs[1], "No results") {
		t.Errorf("miss reply = %q", msgs[1])
	}
}

func TestDateCommandValidation(t *testing.T) {
	proc := &fakeProcessor{}
	b, tg, _ := newTestBot(t, proc)

	b.handleMessage(context.Background(), message(42, "/date not-a-date"))

	msgs := tg.messages()
	if !strings.Contains(msgs[0], "Invalid date format") {
		t.Errorf("reply = %q", msgs[0])
	}
}

func TestPublishCommandNoItems(t *testing.T) {
	proc := &fakeProcessor{}
	b, tg, _ := newTestBot(t, proc)

	b.handleMessage(context.Background(), message(42, "/publish"))

	msgs := tg.messages()
	if !strings.Contains(msgs[0], "No unpublished items found.") {
		t.Errorf("reply = %q", msgs[0])
	}
}

func TestPublishCommandPublishes(t *testing.T) {
	proc := &fakeProcessor{pubURL: "https://github.com/alice/archive/blob/main/notes/general/note.md"}
	b, tg, db := newTestBot(t, proc)

	tags, summary, topic := "misc", "A note.", "general"
	db.InsertItem("notes", "/tmp/n.txt", "note.txt", 3, 42, &tags, &summary, &topic)

	b.handleMessage(context.Background(), message(42, "/publish"))

	msgs := tg.messages()
	last := msgs[len(msgs)-1]
	if !strings.Contains(last, "Published to GitHub: https://github.com/alice/archive") {
		t.Errorf("reply = %q", last)
	}
}

func TestUnknownCommand(t *testing.T) {
	proc := &fakeProcessor{}
	b, tg, _ := newTestBot(t, proc)

	b.handleMessage(context.Background(), message(42, "/frobnicate"))

	msgs := tg.messages()
	if !strings.Contains(msgs[0], "Unknown command") {
		t.Errorf("reply = %q", msgs[0])
	}
}

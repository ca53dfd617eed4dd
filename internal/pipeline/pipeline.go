package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/umunnaprecious2-prog/brain-box/internal/classify"
	"github.com/umunnaprecious2-prog/brain-box/internal/config"
	"github.com/umunnaprecious2-prog/brain-box/internal/database"
	"github.com/umunnaprecious2-prog/brain-box/internal/decide"
	"github.com/umunnaprecious2-prog/brain-box/internal/detect"
	"github.com/umunnaprecious2-prog/brain-box/internal/extract"
	"github.com/umunnaprecious2-prog/brain-box/internal/githubapi"
	"github.com/umunnaprecious2-prog/brain-box/internal/llm"
	"github.com/umunnaprecious2-prog/brain-box/internal/restructure"
	"github.com/umunnaprecious2-prog/brain-box/internal/storage"
)

// Processing outcomes. A failed publish never rolls back local state:
// the item and its decision rows stand and the item stays unpublished.
const (
	StatusStored        = "stored"
	StatusPublished     = "published"
	StatusPublishFailed = "publish_failed"
)

var (
	triggerRe = regexp.MustCompile(`(?i)#github\b`)
	urlRe     = regexp.MustCompile(`https?://\S+`)
)

// Inbound is one submission entering the pipeline. Data is set for
// file and photo submissions; Text carries the message text or caption.
type Inbound struct {
	OriginalName string
	MimeType     string
	Data         []byte
	Text         string
	MessageID    int64
	UserID       int64
}

// Result describes what the pipeline did with a submission.
type Result struct {
	ItemID    int64
	Category  string
	FilePath  string
	Analysis  classify.Result
	Decision  decide.Result
	Status    string
	GitHubURL string
	Err       error
}

// Pipeline runs submissions through detection, extraction, analysis,
// the publish decision and, when warranted, GitHub publishing.
type Pipeline struct {
	cfg          *config.Config
	db           *database.DB
	store        *storage.Store
	extractor    *extract.Extractor
	analyzer     *classify.Analyzer
	engine       *decide.Engine
	restructurer *restructure.Restructurer
	publisher    githubapi.Publisher
}

// New creates a pipeline wired from config. The LLM provider may come
// back nil (nothing configured or reachable); every AI stage degrades
// to its deterministic fallback in that case. The publisher is nil
// when no GitHub token is set, which fails publish attempts without
// touching stored content.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	l := cfg.LLM
	provider := llm.CreateProvider(l.Provider, l.Model, l.OllamaURL, l.OpenAIModel, l.APIKeyEnv)

	var publisher githubapi.Publisher
	if token := cfg.GitHubToken(); token != "" && cfg.GitHub.Repo != "" {
		publisher = githubapi.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Repo, token)
	}

	return &Pipeline{
		cfg:          cfg,
		db:           db,
		store:        storage.NewStore(cfg.GetDataDir()),
		extractor:    extract.NewExtractor(15 * time.Second),
		analyzer:     classify.NewAnalyzer(provider, l.MaxTokens),
		engine:       decide.NewEngine(provider, l.MaxTokens),
		restructurer: restructure.NewRestructurer(provider, l.MaxTokens),
		publisher:    publisher,
	}
}

// HasTrigger reports whether text contains an explicit publish trigger.
func HasTrigger(text string) bool {
	return triggerRe.MatchString(text)
}

// Process runs one submission end to end. The returned Result always
// carries a stored item; Err is set only for publish failures.
func (p *Pipeline) Process(ctx context.Context, in Inbound) (*Result, error) {
	runID := uuid.NewString()[:8]
	hasTrigger := HasTrigger(in.Text)

	category, data, rawURL, name := p.classifyInbound(in)
	log.Printf("[%s] Processing %s submission from user %d (trigger=%v)", runID, category, in.UserID, hasTrigger)

	// Raw bytes land on disk before extraction or any AI call, so a
	// crash mid-analysis never loses the submission.
	filePath, err := p.store.SaveFile(category, "general", in.MessageID, name, data)
	if err != nil {
		return nil, fmt.Errorf("saving content: %w", err)
	}

	text := p.extractor.Text(category, data, rawURL)
	if text == "" {
		// Images and undecodable documents fall back to the caption.
		text = strings.TrimSpace(triggerRe.ReplaceAllString(in.Text, ""))
	}
	analysis := p.analyzer.Analyze(ctx, text, category)

	tags := classify.TagString(analysis.Tags)
	itemID, err := p.db.InsertItem(category, filePath, name, in.MessageID, in.UserID, &tags, &analysis.Summary, &analysis.Topic)
	if err != nil {
		return nil, fmt.Errorf("recording content item: %w", err)
	}

	decisionIn := decide.Input{
		Category:   category,
		HasTrigger: hasTrigger,
		Tags:       analysis.Tags,
		Summary:    analysis.Summary,
		Topic:      analysis.Topic,
	}
	decision := p.engine.Decide(ctx, decisionIn)

	messageID := in.MessageID
	if _, err := p.db.InsertDecision(
		decide.DecisionName, decide.ContextText(decisionIn), decide.Options,
		decision.Recommendation, decision.Rationale, decision.Confidence,
		&itemID, &messageID,
	); err != nil {
		return nil, fmt.Errorf("recording decision: %w", err)
	}
	log.Printf("[%s] Decision: %s (%s confidence)", runID, decision.Recommendation, decision.Confidence)

	r := &Result{
		ItemID:   itemID,
		Category: category,
		FilePath: filePath,
		Analysis: analysis,
		Decision: decision,
		Status:   StatusStored,
	}
	if decision.Recommendation != decide.RecommendPublish {
		return r, nil
	}

	url, err := p.publish(ctx, category, name, text, data, analysis)
	if err != nil {
		log.Printf("[%s] Publish failed, content kept locally: %v", runID, err)
		r.Status = StatusPublishFailed
		r.Err = err
		return r, nil
	}

	if err := p.db.UpdatePublishStatus(itemID, url); err != nil {
		return nil, fmt.Errorf("recording publish status: %w", err)
	}
	r.Status = StatusPublished
	r.GitHubURL = url
	log.Printf("[%s] Published to %s", runID, url)
	return r, nil
}

// PublishItem pushes an already stored item to GitHub, reusing its
// persisted analysis. Used by the /publish command and the CLI.
func (p *Pipeline) PublishItem(ctx context.Context, item *database.ContentItem) (string, error) {
	var (
		data []byte
		text string
	)
	if raw, err := os.ReadFile(item.FilePath); err == nil {
		data = raw
		switch item.ContentType {
		case detect.CategoryNotes, detect.CategoryLinks:
			text = strings.ToValidUTF8(string(raw), "")
		case detect.CategoryDocuments:
			text = p.extractor.Text(item.ContentType, raw, "")
		}
	}
	if text == "" && item.Summary != nil {
		text = *item.Summary
	}

	analysis := classify.Result{Summary: "", Topic: "general"}
	if item.Tags != nil {
		analysis.Tags = strings.Split(*item.Tags, ", ")
	}
	if item.Summary != nil {
		analysis.Summary = *item.Summary
	}
	if item.Topic != nil && *item.Topic != "" {
		analysis.Topic = *item.Topic
	}

	url, err := p.publish(ctx, item.ContentType, item.OriginalName, text, data, analysis)
	if err != nil {
		return "", err
	}
	if err := p.db.UpdatePublishStatus(item.ID, url); err != nil {
		return "", fmt.Errorf("recording publish status: %w", err)
	}
	return url, nil
}

// classifyInbound determines the category and the raw payload. File
// and photo submissions go by filename and MIME type; text messages
// are links when they contain a URL and notes otherwise.
func (p *Pipeline) classifyInbound(in Inbound) (category string, data []byte, rawURL, name string) {
	if len(in.Data) > 0 {
		name = in.OriginalName
		if name == "" {
			name = "file"
		}
		return detect.ContentType(name, in.MimeType), in.Data, "", name
	}

	text := strings.TrimSpace(triggerRe.ReplaceAllString(in.Text, ""))
	if url := urlRe.FindString(text); url != "" {
		name = llm.Truncate(url, 100)
		return detect.CategoryLinks, []byte(text), url, name
	}
	return detect.CategoryNotes, []byte(text), "", "note.txt"
}

// publish restructures the content and pushes it to the archive
// repository. Images and documents additionally get their raw bytes
// published next to the generated markdown.
func (p *Pipeline) publish(ctx context.Context, category, name, text string, data []byte, analysis classify.Result) (string, error) {
	if p.publisher == nil {
		return "", fmt.Errorf("github publishing not configured")
	}

	doc := p.restructurer.Restructure(ctx, restructure.Input{
		Text:         text,
		Category:     category,
		OriginalName: name,
		Tags:         analysis.Tags,
		Summary:      analysis.Summary,
		Topic:        analysis.Topic,
	})

	if err := p.publisher.EnsureCategoryFolders(ctx); err != nil {
		return "", fmt.Errorf("preparing archive folders: %w", err)
	}

	folder := githubapi.CategoryFolders[category] + "/" + doc.Subfolder
	url, err := p.publisher.PublishText(ctx, folder, doc.Filename, doc.Markdown, doc.CommitMessage)
	if err != nil {
		return "", fmt.Errorf("publishing document: %w", err)
	}

	if category == detect.CategoryImages || category == detect.CategoryDocuments {
		rawName := storage.SanitizeName(name)
		if _, err := p.publisher.PublishBinary(ctx, folder, rawName, data, "Add raw file: "+rawName); err != nil {
			return "", fmt.Errorf("publishing raw file: %w", err)
		}
	}
	return url, nil
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/umunnaprecious2-prog/brain-box/internal/classify"
	"github.com/umunnaprecious2-prog/brain-box/internal/config"
	"github.com/umunnaprecious2-prog/brain-box/internal/database"
	"github.com/umunnaprecious2-prog/brain-box/internal/detect"
	"github.com/umunnaprecious2-prog/brain-box/internal/pipeline"
)

const listLimit = 20

// processor is the slice of the pipeline the bot drives.
type processor interface {
	Process(ctx context.Context, in pipeline.Inbound) (*pipeline.Result, error)
	PublishItem(ctx context.Context, item *database.ContentItem) (string, error)
}

// Bot routes Telegram messages into the content pipeline and answers
// query commands from the database.
type Bot struct {
	api           *API
	db            *database.DB
	pipe          processor
	allowedUserID int64
	pollTimeout   int
}

// New creates a bot from config. Only messages from the configured
// user ID are processed.
func New(cfg *config.Config, db *database.DB, pipe *pipeline.Pipeline) *Bot {
	timeout := cfg.Telegram.PollTimeout
	if timeout <= 0 {
		timeout = 30
	}
	return &Bot{
		api:           NewAPI(cfg.TelegramToken(), ""),
		db:            db,
		pipe:          pipe,
		allowedUserID: cfg.Telegram.AllowedUserID,
		pollTimeout:   timeout,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	log.Println("Bot started, polling for updates...")
	var offset int64
	for {
		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Polling error: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message != nil {
				b.handleMessage(ctx, u.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	if msg.From == nil || msg.From.ID != b.allowedUserID {
		b.reply(ctx, msg, "Sorry, this is a private bot.")
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, msg, text)
		return
	}

	switch {
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	case text != "":
		b.handleText(ctx, msg, text)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *Message, text string) {
	fields := strings.Fields(text)
	// Commands may arrive as /list@BotName in group chats.
	command := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch command {
	case "/start":
		b.reply(ctx, msg, startText)
	case "/help":
		b.reply(ctx, msg, helpText)
	case "/list":
		b.handleList(ctx, msg, args)
	case "/search":
		b.handleSearch(ctx, msg, args)
	case "/date":
		b.handleDate(ctx, msg, args)
	case "/publish":
		b.handlePublish(ctx, msg)
	default:
		b.reply(ctx, msg, "Unknown command. Use /help to see what I can do.")
	}
}

const startText = "Welcome to Brain Box!\n\n" +
	"Send me documents, images, links, or text and I'll organize them for you.\n\n" +
	"Commands:\n" +
	"/list <type> - Show items (images, documents, links, notes)\n" +
	"/search <keyword> - Search your knowledge base\n" +
	"/date <YYYY-MM-DD> - Filter by date\n" +
	"/publish - Publish latest item to GitHub\n" +
	"/help - Show this message\n\n" +
	"Add #github to any message to auto-publish to GitHub."

const helpText = "Brain Box - Your personal knowledge assistant\n\n" +
	"Just send me any content:\n" +
	"  - PDF / DOCX documents\n" +
	"  - Images\n" +
	"  - Links (URLs)\n" +
	"  - Text notes\n\n" +
	"Commands:\n" +
	"/list images - Show all images\n" +
	"/list documents - Show all documents\n" +
	"/list links - Show all links\n" +
	"/list notes - Show all notes\n" +
	"/search <keyword> - Keyword search\n" +
	"/date <YYYY-MM-DD> - Filter by date\n" +
	"/publish - Publish latest unpublished item to GitHub\n\n" +
	"GitHub Publishing:\n" +
	"  Add #github to any message or caption to auto-publish.\n" +
	"  Use /publish to publish the most recent unpublished item."

func (b *Bot) handleList(ctx context.Context, msg *Message, args []string) {
	if len(args) == 0 {
		b.reply(ctx, msg, "Usage: /list <type>\nTypes: images, documents, links, notes")
		return
	}
	contentType := strings.ToLower(args[0])
	if !detect.ValidCategory(contentType) {
		b.reply(ctx, msg, "Invalid type. Choose from: images, documents, links, notes")
		return
	}

	items, err := b.db.ListByCategory(contentType)
	if err != nil {
		log.Printf("Listing %s failed: %v", contentType, err)
		b.reply(ctx, msg, "Something went wrong, try again later.")
		return
	}
	if len(items) == 0 {
		b.reply(ctx, msg, fmt.Sprintf("No %s found.", contentType))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Your %s (%d items):\n", contentType, len(items))
	for i, item := range items {
		if i >= listLimit {
			break
		}
		status := ""
		if item.GitHubPublished {
			status = " [GH]"
		}
		fmt.Fprintf(&sb, "\n- %s%s\n  Tags: %s\n  Summary: %s\n",
			item.OriginalName, status, orDash(item.Tags), orDash(item.Summary))
	}
	b.reply(ctx, msg, sb.String())
}

func (b *Bot) handleSearch(ctx context.Context, msg *Message, args []string) {
	if len(args) == 0 {
		b.reply(ctx, msg, "Usage: /search <keyword>")
		return
	}
	keyword := strings.Join(args, " ")

	items, err := b.db.SearchItems(keyword)
	if err != nil {
		log.Printf("Search %q failed: %v", keyword, err)
		b.reply(ctx, msg, "Something went wrong, try again later.")
		return
	}
	if len(items) == 0 {
		b.reply(ctx, msg, fmt.Sprintf("No results for %q.", keyword))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for %q (%d items):\n", keyword, len(items))
	for i, item := range items {
		if i >= listLimit {
			break
		}
		fmt.Fprintf(&sb, "\n- [%s] %s\n  Tags: %s\n", item.ContentType, item.OriginalName, orDash(item.Tags))
	}
	b.reply(ctx, msg, sb.String())
}

func (b *Bot) handleDate(ctx context.Context, msg *Message, args []string) {
	if len(args) == 0 {
		b.reply(ctx, msg, "Usage: /date <YYYY-MM-DD>")
		return
	}
	day, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		b.reply(ctx, msg, "Invalid date format. Use YYYY-MM-DD.")
		return
	}

	items, err := b.db.FilterByDate(day.Format("2006-01-02"))
	if err != nil {
		log.Printf("Date filter %s failed: %v", args[0], err)
		b.reply(ctx, msg, "Something went wrong, try again later.")
		return
	}
	if len(items) == 0 {
		b.reply(ctx, msg, fmt.Sprintf("No items found for %s.", args[0]))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Items from %s (%d items):\n", args[0], len(items))
	for i, item := range items {
		if i >= listLimit {
			break
		}
		fmt.Fprintf(&sb, "\n- [%s] %s\n  Tags: %s\n", item.ContentType, item.OriginalName, orDash(item.Tags))
	}
	b.reply(ctx, msg, sb.String())
}

func (b *Bot) handlePublish(ctx context.Context, msg *Message) {
	items, err := b.db.GetUnpublished(1)
	if err != nil {
		log.Printf("Fetching unpublished items failed: %v", err)
		b.reply(ctx, msg, "Something went wrong, try again later.")
		return
	}
	if len(items) == 0 {
		b.reply(ctx, msg, "No unpublished items found.")
		return
	}

	b.reply(ctx, msg, "Publishing to GitHub...")
	url, err := b.pipe.PublishItem(ctx, &items[0])
	if err != nil {
		log.Printf("Publishing item %d failed: %v", items[0].ID, err)
		b.reply(ctx, msg, "GitHub publishing failed. Content is saved locally.")
		return
	}
	b.reply(ctx, msg, "Published to GitHub: "+url)
}

func (b *Bot) handleDocument(ctx context.Context, msg *Message) {
	doc := msg.Document
	name := doc.FileName
	if name == "" {
		name = "unnamed_document"
	}
	contentType := detect.ContentType(name, doc.MimeType)
	b.reply(ctx, msg, fmt.Sprintf("Received %s: %s\nProcessing...", contentType, name))

	data, err := b.api.DownloadFile(ctx, doc.FileID)
	if err != nil {
		log.Printf("Downloading document %s failed: %v", doc.FileID, err)
		b.reply(ctx, msg, "An error occurred while processing your document. Please try again.")
		return
	}

	b.process(ctx, msg, pipeline.Inbound{
		OriginalName: name,
		MimeType:     doc.MimeType,
		Data:         data,
		Text:         msg.Caption,
		MessageID:    msg.MessageID,
		UserID:       msg.From.ID,
	})
}

func (b *Bot) handlePhoto(ctx context.Context, msg *Message) {
	// Telegram sends ascending resolutions; take the largest.
	photo := msg.Photo[len(msg.Photo)-1]
	b.reply(ctx, msg, "Received image. Processing...")

	data, err := b.api.DownloadFile(ctx, photo.FileID)
	if err != nil {
		log.Printf("Downloading photo %s failed: %v", photo.FileID, err)
		b.reply(ctx, msg, "An error occurred while processing your image. Please try again.")
		return
	}

	b.process(ctx, msg, pipeline.Inbound{
		OriginalName: fmt.Sprintf("photo_%s.jpg", photo.FileUniqueID),
		MimeType:     "image/jpeg",
		Data:         data,
		Text:         msg.Caption,
		MessageID:    msg.MessageID,
		UserID:       msg.From.ID,
	})
}

func (b *Bot) handleText(ctx context.Context, msg *Message, text string) {
	if pipeline.HasTrigger(text) || containsURL(text) {
		b.reply(ctx, msg, "Received. Processing...")
	}
	b.process(ctx, msg, pipeline.Inbound{
		Text:      text,
		MessageID: msg.MessageID,
		UserID:    msg.From.ID,
	})
}

func (b *Bot) process(ctx context.Context, msg *Message, in pipeline.Inbound) {
	r, err := b.pipe.Process(ctx, in)
	if err != nil {
		log.Printf("Processing message %d failed: %v", msg.MessageID, err)
		b.reply(ctx, msg, "An error occurred while processing your content. Please try again.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Saved %s.\n", r.Category)
	fmt.Fprintf(&sb, "Topic: %s\n", r.Analysis.Topic)
	fmt.Fprintf(&sb, "Tags: %s\n", classify.TagString(r.Analysis.Tags))
	fmt.Fprintf(&sb, "Summary: %s", r.Analysis.Summary)

	switch r.Status {
	case pipeline.StatusPublished:
		fmt.Fprintf(&sb, "\n\nPublished to GitHub: %s", r.GitHubURL)
	case pipeline.StatusPublishFailed:
		sb.WriteString("\n\nGitHub publishing failed. Content is saved locally.")
	}
	b.reply(ctx, msg, sb.String())
}

func (b *Bot) reply(ctx context.Context, msg *Message, text string) {
	if err := b.api.SendMessage(ctx, msg.Chat.ID, text); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Sending reply failed: %v", err)
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func containsURL(text string) bool {
	return strings.Contains(text, "http://") || strings.Contains(text, "https://")
}

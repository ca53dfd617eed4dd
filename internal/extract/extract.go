// Package extract turns raw inbound content into plain text for the AI
// stages. Extraction is best-effort: when nothing can be extracted it
// returns the empty string, never an error, and the pipeline continues
// with degenerate classification.
package extract

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/umunnaprecious2-prog/brain-box/internal/detect"
)

// maxLinkTextLen caps text extracted from a URL.
const maxLinkTextLen = 5000

// maxFeedItems caps how many feed entries contribute to extracted text.
const maxFeedItems = 10

// Extractor produces plain text from raw content per category.
type Extractor struct {
	client *http.Client
}

// NewExtractor creates an extractor with the given HTTP timeout for
// link fetching.
func NewExtractor(timeout time.Duration) *Extractor {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Extractor{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Text extracts plain text for a category. data carries raw bytes for
// documents/notes; rawURL carries the address for links. Returns ""
// when extraction is impossible.
func (e *Extractor) Text(category string, data []byte, rawURL string) string {
	switch category {
	case detect.CategoryLinks:
		if rawURL == "" {
			return ""
		}
		return e.fromURL(rawURL)
	case detect.CategoryNotes:
		return decodeText(data)
	case detect.CategoryDocuments:
		// Only plain-text documents are decoded here; binary formats
		// (PDF, DOCX) yield "" and are archived as raw files.
		text := decodeText(data)
		if !utf8.ValidString(text) || looksBinary(data) {
			return ""
		}
		return text
	case detect.CategoryImages:
		// Image text extraction is out of scope; captions are supplied
		// by the caller instead.
		return ""
	}
	return ""
}

// fromURL fetches a URL and extracts readable text. RSS/Atom responses
// are parsed as feeds; everything else goes through readability.
func (e *Extractor) fromURL(rawURL string) string {
	req, err := http.NewRequest("GET", rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "brainbox/1.0 (personal knowledge bot)")

	resp, err := e.client.Do(req)
	if err != nil {
		log.Printf("Failed to fetch URL %s: %v", rawURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("URL %s returned %d", rawURL, resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return ""
	}

	contentType := resp.Header.Get("Content-Type")
	if isFeed(contentType, body) {
		if text := feedText(body); text != "" {
			return truncate(text, maxLinkTextLen)
		}
	}

	parsedURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		log.Printf("No readable content at %s: %v", rawURL, err)
		return ""
	}

	text := strings.TrimSpace(article.TextContent)
	if article.Title != "" {
		text = article.Title + "\n\n" + text
	}
	return truncate(text, maxLinkTextLen)
}

// isFeed sniffs whether a response looks like an RSS/Atom feed.
func isFeed(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "rss") || strings.Contains(ct, "atom") || strings.Contains(ct, "xml") {
		return true
	}
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	s := string(head)
	return strings.Contains(s, "<rss") || strings.Contains(s, "<feed")
}

// feedText renders a feed's title, description, and first entries as text.
func feedText(body []byte) string {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(feed.Title))
	if feed.Description != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(feed.Description))
	}
	for i, item := range feed.Items {
		if i >= maxFeedItems {
			break
		}
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(item.Title))
		if item.Description != "" {
			b.WriteString("\n")
			b.WriteString(stripHTML(item.Description))
		}
	}
	return strings.TrimSpace(b.String())
}

// decodeText interprets bytes as UTF-8 text, replacing invalid sequences.
func decodeText(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return strings.ToValidUTF8(string(data), "�")
}

// looksBinary reports whether data contains NUL bytes in its head,
// a cheap signal that this is not a text document.
func looksBinary(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.IndexByte(head, 0) >= 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

package database

// ContentItem is one inbound artifact: a saved document, image, link,
// or note together with its AI classification and publish state.
type ContentItem struct {
	ID                int64
	ContentType       string // images | documents | links | notes
	FilePath          string
	OriginalName      string
	TelegramMessageID int64
	TelegramUserID    int64
	Tags              *string // comma-joined, lowercase
	Summary           *string
	Topic             *string
	GitHubPublished   bool
	GitHubURL         *string
	CreatedAt         *string
}

// Decision is one publish/no-publish determination for a content item.
// Decisions form an append-only audit trail: they are never updated or
// deleted, and later corrections produce a new row.
type Decision struct {
	ID                int64
	DecisionName      string
	Context           string
	Options           string
	Recommendation    string // publish_to_github | store_locally_only
	Rationale         string
	Confidence        string // high | medium | low
	ContentItemID     *int64
	TelegramMessageID *int64
	CreatedAt         *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalItems     int
	PublishedItems int
	ItemsByType    map[string]int
	TotalDecisions int
}

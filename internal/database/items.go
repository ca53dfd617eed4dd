package database

import (
	"database/sql"
)

const itemColumns = `id, content_type, file_path, original_name, telegram_message_id,
	telegram_user_id, tags, summary, topic, github_published, github_url, created_at`

// InsertItem saves a new content item and returns its ID.
func (db *DB) InsertItem(contentType, filePath, originalName string, messageID, userID int64, tags, summary, topic *string) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO content_items
		(content_type, file_path, original_name, telegram_message_id, telegram_user_id, tags, summary, topic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		contentType, filePath, originalName, messageID, userID, tags, summary, topic,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateAIFields updates the classifier-owned fields of an item.
// Nil arguments leave the corresponding column untouched.
func (db *DB) UpdateAIFields(itemID int64, tags, summary, topic *string) error {
	_, err := db.conn.Exec(
		`UPDATE content_items SET
		tags = COALESCE(?, tags),
		summary = COALESCE(?, summary),
		topic = COALESCE(?, topic)
		WHERE id = ?`,
		tags, summary, topic, itemID,
	)
	return err
}

// UpdatePublishStatus marks an item as published and records its remote URL.
func (db *DB) UpdatePublishStatus(itemID int64, githubURL string) error {
	_, err := db.conn.Exec(
		"UPDATE content_items SET github_published = 1, github_url = ? WHERE id = ?",
		githubURL, itemID,
	)
	return err
}

// GetItemByID returns a single content item, or nil if not found.
func (db *DB) GetItemByID(itemID int64) (*ContentItem, error) {
	row := db.conn.QueryRow(
		"SELECT "+itemColumns+" FROM content_items WHERE id = ?", itemID,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListByCategory returns items of one content type, newest first.
func (db *DB) ListByCategory(contentType string) ([]ContentItem, error) {
	rows, err := db.conn.Query(
		"SELECT "+itemColumns+` FROM content_items
		WHERE content_type = ? ORDER BY created_at DESC, id DESC`, contentType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// SearchItems returns items whose name, tags, summary, or topic match the
// keyword (case-insensitive substring), newest first.
func (db *DB) SearchItems(keyword string) ([]ContentItem, error) {
	pattern := "%" + keyword + "%"
	rows, err := db.conn.Query(
		"SELECT "+itemColumns+` FROM content_items
		WHERE original_name LIKE ? COLLATE NOCASE
		   OR tags LIKE ? COLLATE NOCASE
		   OR summary LIKE ? COLLATE NOCASE
		   OR topic LIKE ? COLLATE NOCASE
		ORDER BY created_at DESC, id DESC`,
		pattern, pattern, pattern, pattern,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// FilterByDate returns items created on the given day (YYYY-MM-DD), newest first.
func (db *DB) FilterByDate(day string) ([]ContentItem, error) {
	rows, err := db.conn.Query(
		"SELECT "+itemColumns+` FROM content_items
		WHERE date(created_at) = ? ORDER BY created_at DESC, id DESC`, day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetUnpublished returns the most recent unpublished items, up to limit.
func (db *DB) GetUnpublished(limit int) ([]ContentItem, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		"SELECT "+itemColumns+` FROM content_items
		WHERE github_published = 0 ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetRecentItems returns the most recent items across all categories.
func (db *DB) GetRecentItems(limit int) ([]ContentItem, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		"SELECT "+itemColumns+` FROM content_items
		ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]ContentItem, error) {
	var items []ContentItem
	for rows.Next() {
		var item ContentItem
		var published int
		if err := rows.Scan(&item.ID, &item.ContentType, &item.FilePath, &item.OriginalName,
			&item.TelegramMessageID, &item.TelegramUserID, &item.Tags, &item.Summary,
			&item.Topic, &published, &item.GitHubURL, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.GitHubPublished = published != 0
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row *sql.Row) (*ContentItem, error) {
	var item ContentItem
	var published int
	if err := row.Scan(&item.ID, &item.ContentType, &item.FilePath, &item.OriginalName,
		&item.TelegramMessageID, &item.TelegramUserID, &item.Tags, &item.Summary,
		&item.Topic, &published, &item.GitHubURL, &item.CreatedAt); err != nil {
		return nil, err
	}
	item.GitHubPublished = published != 0
	return &item, nil
}

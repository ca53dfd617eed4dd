package database

import "database/sql"

const decisionColumns = `id, decision_name, context, options, recommendation,
	rationale, confidence, content_item_id, telegram_message_id, created_at`

// InsertDecision records a decision. Decisions are append-only; there is
// deliberately no update or delete operation.
func (db *DB) InsertDecision(name, context, options, recommendation, rationale, confidence string, contentItemID, messageID *int64) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO decisions
		(decision_name, context, options, recommendation, rationale, confidence, content_item_id, telegram_message_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		name, context, options, recommendation, rationale, confidence, contentItemID, messageID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetDecisionsForItem returns all decisions for a content item, newest first.
func (db *DB) GetDecisionsForItem(contentItemID int64) ([]Decision, error) {
	rows, err := db.conn.Query(
		"SELECT "+decisionColumns+` FROM decisions
		WHERE content_item_id = ? ORDER BY created_at DESC, id DESC`, contentItemID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDecisions(rows)
}

// GetRecentDecisions returns the most recent decisions, up to limit.
func (db *DB) GetRecentDecisions(limit int) ([]Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		"SELECT "+decisionColumns+` FROM decisions
		ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDecisions(rows)
}

func scanDecisions(rows *sql.Rows) ([]Decision, error) {
	var decisions []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.DecisionName, &d.Context, &d.Options,
			&d.Recommendation, &d.Rationale, &d.Confidence,
			&d.ContentItemID, &d.TelegramMessageID, &d.CreatedAt); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

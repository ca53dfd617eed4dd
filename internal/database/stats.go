package database

// GetStats returns aggregate counts for the status display.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{ItemsByType: make(map[string]int)}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM content_items").Scan(&s.TotalItems); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM content_items WHERE github_published = 1").Scan(&s.PublishedItems); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM decisions").Scan(&s.TotalDecisions); err != nil {
		return nil, err
	}

	rows, err := db.conn.Query("SELECT content_type, COUNT(*) FROM content_items GROUP BY content_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ct string
		var n int
		if err := rows.Scan(&ct, &n); err != nil {
			return nil, err
		}
		s.ItemsByType[ct] = n
	}
	return s, rows.Err()
}

package postgres

import (
	"context"
)

// replaceEventTags swaps the event's tag links for names. Callers run it in
// the same transaction as the event write. Tags are created on first use.
func replaceEventTags(ctx context.Context, q execQuerier, eventID string, names []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM event_tags WHERE event_id = $1`, eventID); err != nil {
		return err
	}
	for _, name := range names {
		tagID, err := ensureTag(ctx, q, name)
		if err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, `INSERT INTO event_tags (event_id, tag_id) VALUES ($1, $2) ON CONFLICT (event_id, tag_id) DO NOTHING`, eventID, tagID)
		if err != nil {
			return err
		}
	}
	return nil
}

// ensureTag returns the id of the tag called name, creating it when missing.
func ensureTag(ctx context.Context, q execQuerier, name string) (string, error) {
	query := `
		INSERT INTO tags (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	var tagID string
	err := q.QueryRowContext(ctx, query, name).Scan(&tagID)
	return tagID, err
}

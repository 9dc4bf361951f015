package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"academicevents/internal/domain"

	"github.com/lib/pq"
)

const eventColumns = `
	e.id, e.organizer_id, e.category_id, e.title, e.description, e.short_description,
	e.location, e.address, e.image_url, e.start_date, e.end_date, e.max_capacity,
	e.current_registrations, e.is_active, e.is_featured, e.requires_certificate,
	COALESCE((
		SELECT array_agg(t.name ORDER BY t.name)
		FROM event_tags et
		INNER JOIN tags t ON t.id = et.tag_id
		WHERE et.event_id = e.id
	), '{}') AS tags,
	e.created_at, e.updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func scanEvent(s rowScanner, extra ...any) (*domain.Event, error) {
	e := &domain.Event{}
	var shortDesc, address, imageURL sql.NullString
	dest := []any{
		&e.ID, &e.OrganizerID, &e.CategoryID, &e.Title, &e.Description, &shortDesc,
		&e.Location, &address, &imageURL, &e.StartDate, &e.EndDate, &e.MaxCapacity,
		&e.CurrentRegistrations, &e.IsActive, &e.IsFeatured, &e.RequiresCertificate,
		pq.Array(&e.Tags), &e.CreatedAt, &e.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	e.ShortDescription = stringPtr(shortDesc)
	e.Address = stringPtr(address)
	e.ImageURL = stringPtr(imageURL)
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (organizer_id, category_id, title, description, short_description, location, address,
			image_url, start_date, end_date, max_capacity, current_registrations, is_active, is_featured,
			requires_certificate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`
	var id string
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query,
			e.OrganizerID, e.CategoryID, e.Title, e.Description, e.ShortDescription, e.Location, e.Address,
			e.ImageURL, e.StartDate, e.EndDate, e.MaxCapacity, e.CurrentRegistrations, e.IsActive, e.IsFeatured,
			e.RequiresCertificate, e.CreatedAt, e.UpdatedAt,
		).Scan(&id)
		if err != nil {
			return err
		}
		if len(e.Tags) == 0 {
			return nil
		}
		return replaceEventTags(ctx, tx, id, e.Tags)
	})
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// eventWhere renders filter as a WHERE clause over active events; placeholders start at $1.
func eventWhere(filter domain.EventFilter) (string, []any) {
	conds := []string{"e.is_active"}
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.CategoryID != "" {
		add("e.category_id = $%d", filter.CategoryID)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(e.title ILIKE $%[1]d OR e.description ILIKE $%[1]d OR e.location ILIKE $%[1]d
			OR EXISTS (SELECT 1 FROM event_tags et INNER JOIN tags t ON t.id = et.tag_id WHERE et.event_id = e.id AND t.name ILIKE $%[1]d))`, n))
	}
	if filter.Featured != nil {
		add("e.is_featured = $%d", *filter.Featured)
	}
	if filter.From != nil {
		add("e.start_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("e.start_date <= $%d", *filter.To)
	}
	if filter.EndsAfter != nil {
		add("e.end_date >= $%d", *filter.EndsAfter)
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.EventSummary, int, error) {
	where, args := eventWhere(filter)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events e `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, c.name
		FROM events e
		INNER JOIN categories c ON c.id = e.category_id
		%s
		ORDER BY e.is_featured DESC, e.start_date ASC, e.id
		LIMIT $%d OFFSET $%d
	`, eventColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit(), params.Offset())

	items, err := r.querySummaries(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *eventRepository) ListFeatured(ctx context.Context, now time.Time, limit int) ([]*domain.EventSummary, error) {
	query := `
		SELECT ` + eventColumns + `, c.name
		FROM events e
		INNER JOIN categories c ON c.id = e.category_id
		WHERE e.is_active AND e.is_featured AND e.end_date >= $1
		ORDER BY e.start_date ASC
		LIMIT $2
	`
	return r.querySummaries(ctx, query, now, limit)
}

func (r *eventRepository) querySummaries(ctx context.Context, query string, args ...any) ([]*domain.EventSummary, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.EventSummary, 0)
	for rows.Next() {
		var categoryName string
		e, err := scanEvent(rows, &categoryName)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.NewEventSummary(e, categoryName))
	}
	return items, rows.Err()
}

// ListUpcomingByOrganizer returns active events starting after now. An empty
// organizerID covers every organizer.
func (r *eventRepository) ListUpcomingByOrganizer(ctx context.Context, organizerID string, now time.Time, limit int) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE e.is_active AND e.start_date > $1 AND ($2 = '' OR e.organizer_id::text = $2)
		ORDER BY e.start_date ASC
		LIMIT $3
	`
	rows, err := r.DB.QueryContext(ctx, query, now, organizerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update writes the editable columns. The capacity guard runs in the same
// statement so a concurrent registration cannot push the counter past the
// new capacity. Tag links, when replaced, commit or roll back with the row.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event, replaceTags bool) error {
	query := `
		UPDATE events
		SET category_id = $2, title = $3, description = $4, short_description = $5, location = $6,
			address = $7, image_url = $8, start_date = $9, end_date = $10, max_capacity = $11,
			is_featured = $12, requires_certificate = $13, updated_at = $14
		WHERE id = $1 AND is_active AND current_registrations <= $11
	`
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			e.ID, e.CategoryID, e.Title, e.Description, e.ShortDescription, e.Location,
			e.Address, e.ImageURL, e.StartDate, e.EndDate, e.MaxCapacity,
			e.IsFeatured, e.RequiresCertificate, e.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1 AND is_active)`, e.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrCapacityBelowCount
		}
		if !replaceTags {
			return nil
		}
		return replaceEventTags(ctx, tx, e.ID, e.Tags)
	})
}

func (r *eventRepository) SoftDelete(ctx context.Context, id string, updatedAt time.Time) error {
	query := `
		UPDATE events
		SET is_active = FALSE, updated_at = $2
		WHERE id = $1 AND is_active AND current_registrations = 0
	`
	result, err := r.DB.ExecContext(ctx, query, id, updatedAt)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1 AND is_active)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrEventHasRegistrations
}

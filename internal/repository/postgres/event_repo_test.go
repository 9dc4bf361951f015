package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"academicevents/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var (
	eventStart      = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	eventEnd        = time.Date(2026, 6, 1, 17, 0, 0, 0, time.UTC)
	eventCreated    = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	eventRowColumns = []string{
		"id", "organizer_id", "category_id", "title", "description", "short_description",
		"location", "address", "image_url", "start_date", "end_date", "max_capacity",
		"current_registrations", "is_active", "is_featured", "requires_certificate",
		"tags", "created_at", "updated_at",
	}
)

func eventRowValues(id string, registrations int) []driver.Value {
	return []driver.Value{
		id, "org-1", "cat-1", "Distributed Systems Day", "Talks", nil,
		"Aula Magna", "Main St 1", nil, eventStart, eventEnd, 100,
		registrations, true, false, true,
		"{consensus,raft}", eventCreated, eventCreated,
	}
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		tags    []string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO events \(organizer_id, category_id, title`).
					WithArgs("org-1", "cat-1", "Distributed Systems Day", "Talks", sqlmock.AnyArg(), "Aula Magna", sqlmock.AnyArg(),
						sqlmock.AnyArg(), eventStart, eventEnd, 100, 0, true, false, false, eventCreated, eventCreated).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))
				mock.ExpectCommit()
			},
			wantID: "ev-1",
		},
		{
			name: "links tags in the same transaction",
			tags: []string{"raft", "paxos"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO events`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))
				mock.ExpectExec(`DELETE FROM event_tags WHERE event_id = \$1`).WithArgs("ev-1").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`INSERT INTO tags \(name\)`).WithArgs("raft").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tag-1"))
				mock.ExpectExec(`INSERT INTO event_tags`).WithArgs("ev-1", "tag-1").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`INSERT INTO tags \(name\)`).WithArgs("paxos").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tag-2"))
				mock.ExpectExec(`INSERT INTO event_tags`).WithArgs("ev-1", "tag-2").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			wantID: "ev-1",
		},
		{
			name: "tag failure rolls the event back",
			tags: []string{"raft"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO events`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))
				mock.ExpectExec(`DELETE FROM event_tags`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`INSERT INTO tags`).WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			wantErr: sql.ErrConnDone,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO events`).WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			e := domain.NewEvent("org-1", "cat-1", "Distributed Systems Day", "Talks", "Aula Magna", eventStart, eventEnd, 100, eventCreated, eventCreated)
			e.Tags = tt.tags
			err = NewEventRepository(db).Create(ctx, e)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Empty(t, e.ID)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.wantID, e.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found with tags", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM events e WHERE e.id = \$1`).
			WithArgs("ev-1").
			WillReturnRows(sqlmock.NewRows(eventRowColumns).AddRow(eventRowValues("ev-1", 40)...))

		e, err := NewEventRepository(db).GetByID(ctx, "ev-1")
		require.NoError(t, err)
		require.Equal(t, "org-1", e.OrganizerID)
		require.Equal(t, []string{"consensus", "raft"}, e.Tags)
		require.Nil(t, e.ShortDescription)
		require.Equal(t, "Main St 1", *e.Address)
		require.Equal(t, 60, e.AvailableSlots())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM events e WHERE e.id = \$1`).WillReturnRows(sqlmock.NewRows(eventRowColumns))

		_, err = NewEventRepository(db).GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventWhere(t *testing.T) {
	featured := true
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   domain.EventFilter
		contains []string
		args     []any
	}{
		{
			name:     "no filter lists active events",
			filter:   domain.EventFilter{},
			contains: []string{"WHERE e.is_active"},
		},
		{
			name:     "category and featured",
			filter:   domain.EventFilter{CategoryID: "cat-1", Featured: &featured},
			contains: []string{"e.category_id = $1", "e.is_featured = $2"},
			args:     []any{"cat-1", true},
		},
		{
			name:     "search matches tags",
			filter:   domain.EventFilter{Search: "raft", From: &from},
			contains: []string{"e.title ILIKE $1", "t.name ILIKE $1", "e.start_date >= $2"},
			args:     []any{"%raft%", from},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := eventWhere(tt.filter)
			for _, c := range tt.contains {
				require.Contains(t, where, c)
			}
			require.Equal(t, tt.args, args)
		})
	}
}

func TestEventRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events e WHERE e.is_active AND e.category_id = \$1 AND e.end_date >= \$2`).
		WithArgs("cat-1", now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(`INNER JOIN categories c ON c.id = e.category_id`).
		WithArgs("cat-1", now, 10, 20).
		WillReturnRows(sqlmock.NewRows(append(eventRowColumns, "name")).
			AddRow(append(eventRowValues("ev-1", 100), "Conference")...))

	items, total, err := NewEventRepository(db).List(context.Background(),
		domain.EventFilter{CategoryID: "cat-1", EndsAfter: &now},
		domain.PaginationParams{Page: 3, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 21, total)
	require.Len(t, items, 1)
	require.Equal(t, "Conference", items[0].CategoryName)
	require.Equal(t, domain.AvailabilityFull, items[0].RegistrationStatus)
	require.Zero(t, items[0].AvailableSlots)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		replaceTags bool
		tags        []string
		mock        func(mock sqlmock.Sqlmock)
		errIs       error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE events .* WHERE id = \$1 AND is_active AND current_registrations <= \$11`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name:        "replaces tags with the row",
			replaceTags: true,
			tags:        []string{"raft"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE events`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`DELETE FROM event_tags WHERE event_id = \$1`).WithArgs("ev-1").WillReturnResult(sqlmock.NewResult(0, 3))
				mock.ExpectQuery(`INSERT INTO tags \(name\)`).WithArgs("raft").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tag-1"))
				mock.ExpectExec(`INSERT INTO event_tags`).WithArgs("ev-1", "tag-1").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name:        "clearing tags only deletes links",
			replaceTags: true,
			tags:        []string{},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE events`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`DELETE FROM event_tags`).WithArgs("ev-1").WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectCommit()
			},
		},
		{
			name:        "tag failure rolls the row update back",
			replaceTags: true,
			tags:        []string{"raft"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE events`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`DELETE FROM event_tags`).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`INSERT INTO tags`).WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			errIs: sql.ErrConnDone,
		},
		{
			name:        "capacity below current registrations",
			replaceTags: true,
			tags:        []string{"raft"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE events`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectRollback()
			},
			errIs: domain.ErrCapacityBelowCount,
		},
		{
			name: "missing event",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE events`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectRollback()
			},
			errIs: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			e := domain.NewEvent("org-1", "cat-1", "Distributed Systems Day", "Talks", "Aula Magna", eventStart, eventEnd, 10, eventCreated, eventCreated)
			e.ID = "ev-1"
			e.Tags = tt.tags
			err = NewEventRepository(db).Update(ctx, e, tt.replaceTags)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_SoftDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(`SET is_active = FALSE`).WithArgs("ev-1", at).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("ev-1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err = NewEventRepository(db).SoftDelete(context.Background(), "ev-1", at)
	require.ErrorIs(t, err, domain.ErrEventHasRegistrations)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ListRegistrable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "event_id", "title", "description", "speaker", "start_time", "end_time",
		"max_capacity", "current_registrations", "is_active", "requires_registration", "created_at", "updated_at"}
	mock.ExpectQuery(`s.id::text = ANY\(\$2\) AND s.is_active AND s.requires_registration`).
		WithArgs("ev-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s-1", "ev-1", "Keynote", nil, "Lamport", eventStart, eventStart.Add(time.Hour), 30, 30, true, true, eventCreated, eventCreated).
			AddRow("s-2", "ev-1", "Lab", "Hands-on", nil, eventStart, eventStart.Add(time.Hour), nil, 4, true, true, eventCreated, eventCreated))

	sessions, err := NewSessionRepository(db).ListRegistrable(context.Background(), "ev-1", []string{"s-1", "s-2"})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.True(t, sessions[0].IsFull())
	require.Equal(t, "Lamport", *sessions[0].Speaker)
	require.Nil(t, sessions[1].MaxCapacity)
	require.False(t, sessions[1].IsFull())
	require.NoError(t, mock.ExpectationsWereMet())
}

// Package postgres persists the audit log in PostgreSQL.
//
// Append writes the event row and a matching outbox row in the caller's
// transaction, so the snapshot change, the log entry, and the pending
// Kafka publication commit as one unit (transactional outbox). The
// outbox worker relays committed rows to Kafka and marks them published.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"custos/internal/audit"
	id "custos/pkg/domain"
	txcontext "custos/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts the event and its outbox entry. Seq comes from the
// audit_events bigserial, which follows commit order under the single
// writer transaction discipline the services enforce.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	execer := s.execer(ctx)

	row := execer.QueryRowContext(ctx, `
		INSERT INTO audit_events (kind, product_id, authority, old_owner, new_owner, status, details_uri, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq
	`,
		string(event.Kind),
		event.ProductID.String(),
		nullParty(event.Authority),
		nullParty(event.OldOwner),
		nullParty(event.NewOwner),
		nullString(event.Status),
		nullString(event.DetailsURI),
		event.Timestamp,
	)
	if err := row.Scan(&event.Seq); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO outbox (id, event_seq, product_id, event_kind, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.New(),
		event.Seq,
		event.ProductID.String(),
		string(event.Kind),
		payload,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *Store) ListByProduct(ctx context.Context, productID id.ProductID) ([]audit.Event, error) {
	return s.list(ctx, `
		SELECT seq, kind, product_id, authority, old_owner, new_owner, status, details_uri, occurred_at
		FROM audit_events
		WHERE product_id = $1
		ORDER BY seq
	`, productID.String())
}

func (s *Store) ListByOwner(ctx context.Context, owner id.PartyID) ([]audit.Event, error) {
	return s.list(ctx, `
		SELECT seq, kind, product_id, authority, old_owner, new_owner, status, details_uri, occurred_at
		FROM audit_events
		WHERE authority = $1 OR old_owner = $1 OR new_owner = $1
		ORDER BY seq
	`, uuid.UUID(owner))
}

func (s *Store) ListAll(ctx context.Context) ([]audit.Event, error) {
	return s.list(ctx, `
		SELECT seq, kind, product_id, authority, old_owner, new_owner, status, details_uri, occurred_at
		FROM audit_events
		ORDER BY seq
	`)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]audit.Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (audit.Event, error) {
	var (
		event      audit.Event
		kind       string
		productID  string
		authority  sql.Null[uuid.UUID]
		oldOwner   sql.Null[uuid.UUID]
		newOwner   sql.Null[uuid.UUID]
		status     sql.NullString
		detailsURI sql.NullString
	)
	err := rows.Scan(&event.Seq, &kind, &productID, &authority, &oldOwner, &newOwner, &status, &detailsURI, &event.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("scan audit event: %w", err)
	}
	event.Kind = audit.Kind(kind)
	event.ProductID = id.ProductID(productID)
	if authority.Valid {
		event.Authority = id.PartyID(authority.V)
	}
	if oldOwner.Valid {
		event.OldOwner = id.PartyID(oldOwner.V)
	}
	if newOwner.Valid {
		event.NewOwner = id.PartyID(newOwner.V)
	}
	event.Status = status.String
	event.DetailsURI = detailsURI.String
	return event, nil
}

// PendingOutbox returns up to limit unpublished outbox rows in commit order.
func (s *Store) PendingOutbox(ctx context.Context, limit int) ([]audit.OutboxEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_seq, product_id, event_kind, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY event_seq
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []audit.OutboxEntry
	for rows.Next() {
		var entry audit.OutboxEntry
		var productID, kind string
		if err := rows.Scan(&entry.ID, &entry.EventSeq, &productID, &kind, &entry.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entry.ProductID = id.ProductID(productID)
		entry.Kind = audit.Kind(kind)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps an outbox row after its Kafka produce succeeded.
func (s *Store) MarkPublished(ctx context.Context, entryID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox SET published_at = NOW() WHERE id = $1
	`, entryID)
	if err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	return nil
}

func nullParty(p id.PartyID) any {
	if p.IsNil() {
		return nil
	}
	return uuid.UUID(p)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

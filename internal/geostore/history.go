package geostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aquarisk/cras/backend/internal/hydro"

	"github.com/jackc/pgx/v5"
)

// InsertEvent appends one analysis event to the history table. Re-delivered
// queue messages are absorbed by the event_id conflict clause.
func (s *Store) InsertEvent(ctx context.Context, ev hydro.HistoryEvent) error {
	params, err := json.Marshal(ev.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	summary, err := json.Marshal(ev.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	results, err := json.Marshal(ev.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO contamination_history
			(event_id, created_at, contaminant, params, summary, results, geom)
		VALUES
			($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($7, $8), 4326))
		ON CONFLICT (event_id) DO NOTHING
	`, ev.EventID, ev.Timestamp, ev.Contaminant, params, summary, results, ev.Lon, ev.Lat)
	if err != nil {
		return fmt.Errorf("insert history event: %w", err)
	}
	return nil
}

// SetReportKey records the object key of the archived full report for an
// event.
func (s *Store) SetReportKey(ctx context.Context, eventID, key string) error {
	_, err := s.conn.Exec(ctx, `
		UPDATE contamination_history SET report_key = $2 WHERE event_id = $1
	`, eventID, key)
	if err != nil {
		return fmt.Errorf("set report key: %w", err)
	}
	return nil
}

// HistoryRow is a summary row of one persisted analysis event.
type HistoryRow struct {
	EventID     string          `json:"event_id"`
	CreatedAt   time.Time       `json:"timestamp"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
	Contaminant string          `json:"contaminant_type"`
	Summary     json.RawMessage `json:"summary"`
}

// HistoryDetail is one persisted analysis event with its full parameter set
// and ordered results.
type HistoryDetail struct {
	HistoryRow
	Params    json.RawMessage `json:"params"`
	Results   json.RawMessage `json:"results"`
	ReportKey *string         `json:"report_key,omitempty"`
}

// ListEvents returns the most recent analysis events, newest first.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]HistoryRow, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT event_id, created_at, ST_Y(geom), ST_X(geom), contaminant, summary
		FROM contamination_history
		ORDER BY created_at DESC, event_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	events := make([]HistoryRow, 0)
	for rows.Next() {
		var h HistoryRow
		if err := rows.Scan(&h.EventID, &h.CreatedAt, &h.Lat, &h.Lon, &h.Contaminant, &h.Summary); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		events = append(events, h)
	}
	return events, rows.Err()
}

// GetEvent returns one analysis event by its public id, or (nil, nil) when no
// such event exists.
func (s *Store) GetEvent(ctx context.Context, eventID string) (*HistoryDetail, error) {
	var h HistoryDetail
	err := s.conn.QueryRow(ctx, `
		SELECT event_id, created_at, ST_Y(geom), ST_X(geom), contaminant,
		       summary, params, results, report_key
		FROM contamination_history
		WHERE event_id = $1
	`, eventID).Scan(
		&h.EventID, &h.CreatedAt, &h.Lat, &h.Lon, &h.Contaminant,
		&h.Summary, &h.Params, &h.Results, &h.ReportKey,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history event: %w", err)
	}
	return &h, nil
}

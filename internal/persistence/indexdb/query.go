package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"starlane.io/internal/protocol"
)

type JoinRow struct {
	At       time.Time
	SelfID   string
	Position protocol.Vec3
}

type HullRow struct {
	At   time.Time
	Hull float64
}

type TravelModeRow struct {
	At    time.Time
	Mode  protocol.TravelMode
	Speed float64
}

type ScanRow struct {
	At     time.Time
	Object protocol.ScannedObject
}

// Joins lists every recorded welcome, oldest first. Queries only see
// committed rows; queued writes show up after the writer commits.
func (s *SQLiteIndex) Joins(ctx context.Context) ([]JoinRow, error) {
	rows, err := s.query(ctx, `SELECT at,self_id,x,y,z FROM joins ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []JoinRow
	for rows.Next() {
		var r JoinRow
		var at string
		if err := rows.Scan(&at, &r.SelfID, &r.Position.X, &r.Position.Y, &r.Position.Z); err != nil {
			return nil, err
		}
		r.At = parseAt(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) HullHistory(ctx context.Context) ([]HullRow, error) {
	rows, err := s.query(ctx, `SELECT at,hull FROM hull ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HullRow
	for rows.Next() {
		var r HullRow
		var at string
		if err := rows.Scan(&at, &r.Hull); err != nil {
			return nil, err
		}
		r.At = parseAt(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) TravelModes(ctx context.Context) ([]TravelModeRow, error) {
	rows, err := s.query(ctx, `SELECT at,mode,speed FROM travel_modes ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TravelModeRow
	for rows.Next() {
		var r TravelModeRow
		var at, mode string
		if err := rows.Scan(&at, &mode, &r.Speed); err != nil {
			return nil, err
		}
		r.At = parseAt(at)
		r.Mode = protocol.TravelMode(mode)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentScans returns up to limit scan results, newest first.
func (s *SQLiteIndex) RecentScans(ctx context.Context, limit int) ([]ScanRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.query(ctx, `SELECT at,name,type,distance,details_json FROM scans ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScanRow
	for rows.Next() {
		var r ScanRow
		var at string
		var details sql.NullString
		if err := rows.Scan(&at, &r.Object.Name, &r.Object.Type, &r.Object.Distance, &details); err != nil {
			return nil, err
		}
		r.At = parseAt(at)
		if details.Valid && details.String != "" {
			_ = json.Unmarshal([]byte(details.String), &r.Object.Details)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	if s == nil || s.closed.Load() {
		return nil, ErrClosed
	}
	return s.db.QueryContext(ctx, q, args...)
}

func parseAt(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

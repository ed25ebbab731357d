package store

import (
	"database/sql"
	"time"
)

// Reading is the finger count of one processed frame.
type Reading struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Frame     int       `json:"frame"`
	Fingers   int       `json:"fingers"`
	Status    string    `json:"status"`
	Area      float64   `json:"area"`
	Defects   int       `json:"defects"`
	CreatedAt time.Time `json:"created_at"`
}

// ReadingRepository provides access to per-frame readings.
type ReadingRepository struct {
	db *sql.DB
}

// Readings returns the reading repository for this store.
func (s *Store) Readings() *ReadingRepository {
	return &ReadingRepository{db: s.db}
}

// CreateBatch inserts readings in a single transaction.
func (r *ReadingRepository) CreateBatch(readings []Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO readings (session_id, frame_index, fingers, status, area, defects, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rd := range readings {
		if _, err := stmt.Exec(rd.SessionID, rd.Frame, rd.Fingers, rd.Status, rd.Area, rd.Defects, rd.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListBySession retrieves the readings of a session in frame order.
func (r *ReadingRepository) ListBySession(sessionID string) ([]Reading, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, frame_index, fingers, status, area, defects, created_at
		 FROM readings
		 WHERE session_id = ?
		 ORDER BY frame_index`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var rd Reading
		if err := rows.Scan(&rd.ID, &rd.SessionID, &rd.Frame, &rd.Fingers, &rd.Status, &rd.Area, &rd.Defects, &rd.CreatedAt); err != nil {
			return nil, err
		}
		readings = append(readings, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return readings, nil
}

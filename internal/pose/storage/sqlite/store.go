package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/pose.report/internal/pose/l4bodies"
	"github.com/banshee-data/pose.report/internal/pose/pipeline"
	"github.com/banshee-data/pose.report/internal/timeutil"
)

// ErrNotFound is returned when a frame id has no row.
var ErrNotFound = errors.New("frame not found")

// DefaultListLimit caps ListFrames when no positive limit is given.
const DefaultListLimit = 50

// FrameSummary is one pose_frames row.
type FrameSummary struct {
	FrameID          string `json:"frame_id"`
	Source           string `json:"source"`
	GridHeight       int    `json:"grid_height"`
	GridWidth        int    `json:"grid_width"`
	BodyCount        int    `json:"body_count"`
	CreatedUnixNanos int64  `json:"created_unix_nanos"`
}

// StoredBody is one body of a stored frame.
type StoredBody struct {
	Index         int                 `json:"body_index"`
	PartCount     int                 `json:"part_count"`
	ConfidenceSum float64             `json:"confidence_sum"`
	Limbs         []pipeline.WireLimb `json:"limbs"`
}

// StoredFrame is a frame with its bodies, in body index order.
type StoredFrame struct {
	FrameSummary
	Bodies []StoredBody `json:"bodies"`
}

// WireBodies returns the frame's bodies in the decoder wire format.
func (f *StoredFrame) WireBodies() []pipeline.WireBody {
	out := make([]pipeline.WireBody, 0, len(f.Bodies))
	for _, b := range f.Bodies {
		out = append(out, pipeline.WireBody{Limbs: b.Limbs})
	}
	return out
}

// Store persists pose frames.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Option customises a Store.
type Option func(*Store)

// WithClock sets the clock used for created_unix_nanos.
func WithClock(c timeutil.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open opens (creating if needed) the database at path with foreign keys,
// WAL and a busy timeout enabled on every connection.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open pose db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open pose db: %w", err)
	}
	return NewStore(db, opts...), nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// NewStore wraps an open database.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle for admin tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveFrame stores bodies decoded from a height×width grid and returns the
// new frame id.
func (s *Store) SaveFrame(source string, height, width int, bodies []*l4bodies.Body) (string, error) {
	frameID := uuid.New().String()
	created := s.clock.Now().UnixNano()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin save frame: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO pose_frames (frame_id, source, grid_height, grid_width, body_count, created_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?)`,
		frameID, source, height, width, len(bodies), created,
	); err != nil {
		return "", fmt.Errorf("insert frame: %w", err)
	}

	bodyStmt, err := tx.Prepare(`
		INSERT INTO pose_bodies (frame_id, body_index, part_count, confidence_sum)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare body insert: %w", err)
	}
	defer bodyStmt.Close()

	limbStmt, err := tx.Prepare(`
		INSERT INTO pose_limbs (
			frame_id, body_index, limb_index, limb_type, score,
			from_part, from_x, from_y, to_part, to_x, to_y
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare limb insert: %w", err)
	}
	defer limbStmt.Close()

	for bi, b := range bodies {
		if _, err := bodyStmt.Exec(frameID, bi, b.PartCount(), b.ConfidenceSum()); err != nil {
			return "", fmt.Errorf("insert body %d: %w", bi, err)
		}
		for li, l := range b.Limbs {
			if _, err := limbStmt.Exec(
				frameID, bi, li, int(l.Type), l.Score,
				l.From.Type.String(), l.From.PixelX(), l.From.PixelY(),
				l.To.Type.String(), l.To.PixelX(), l.To.PixelY(),
			); err != nil {
				return "", fmt.Errorf("insert limb %d of body %d: %w", li, bi, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save frame: %w", err)
	}
	return frameID, nil
}

// LoadFrame returns a stored frame with all its bodies and limbs.
func (s *Store) LoadFrame(frameID string) (*StoredFrame, error) {
	var f StoredFrame
	err := s.db.QueryRow(`
		SELECT frame_id, source, grid_height, grid_width, body_count, created_unix_nanos
		FROM pose_frames WHERE frame_id = ?`, frameID,
	).Scan(&f.FrameID, &f.Source, &f.GridHeight, &f.GridWidth, &f.BodyCount, &f.CreatedUnixNanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, frameID)
	}
	if err != nil {
		return nil, fmt.Errorf("scan frame: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT body_index, part_count, confidence_sum
		FROM pose_bodies WHERE frame_id = ? ORDER BY body_index`, frameID)
	if err != nil {
		return nil, fmt.Errorf("query bodies: %w", err)
	}
	defer rows.Close()
	f.Bodies = []StoredBody{}
	for rows.Next() {
		b := StoredBody{Limbs: []pipeline.WireLimb{}}
		if err := rows.Scan(&b.Index, &b.PartCount, &b.ConfidenceSum); err != nil {
			return nil, fmt.Errorf("scan body: %w", err)
		}
		f.Bodies = append(f.Bodies, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadLimbs(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) loadLimbs(f *StoredFrame) error {
	rows, err := s.db.Query(`
		SELECT body_index, score, from_part, from_x, from_y, to_part, to_x, to_y
		FROM pose_limbs WHERE frame_id = ? ORDER BY body_index, limb_index`, f.FrameID)
	if err != nil {
		return fmt.Errorf("query limbs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bi       int
			l        pipeline.WireLimb
			from, to string
		)
		if err := rows.Scan(&bi, &l.Score, &from, &l.From.X, &l.From.Y, &to, &l.To.X, &l.To.Y); err != nil {
			return fmt.Errorf("scan limb: %w", err)
		}
		if err := l.From.Type.UnmarshalText([]byte(from)); err != nil {
			return fmt.Errorf("limb of body %d: %w", bi, err)
		}
		if err := l.To.Type.UnmarshalText([]byte(to)); err != nil {
			return fmt.Errorf("limb of body %d: %w", bi, err)
		}
		if bi < 0 || bi >= len(f.Bodies) {
			return fmt.Errorf("limb references missing body %d", bi)
		}
		f.Bodies[bi].Limbs = append(f.Bodies[bi].Limbs, l)
	}
	return rows.Err()
}

// ListFrames returns the most recent frames, newest first.
func (s *Store) ListFrames(limit int) ([]*FrameSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.Query(`
		SELECT frame_id, source, grid_height, grid_width, body_count, created_unix_nanos
		FROM pose_frames
		ORDER BY created_unix_nanos DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()

	frames := []*FrameSummary{}
	for rows.Next() {
		var f FrameSummary
		if err := rows.Scan(&f.FrameID, &f.Source, &f.GridHeight, &f.GridWidth, &f.BodyCount, &f.CreatedUnixNanos); err != nil {
			return nil, fmt.Errorf("scan frame row: %w", err)
		}
		frames = append(frames, &f)
	}
	return frames, rows.Err()
}

// DeleteFrame removes a frame and everything stored under it.
func (s *Store) DeleteFrame(frameID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete frame: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM pose_limbs WHERE frame_id = ?`,
		`DELETE FROM pose_bodies WHERE frame_id = ?`,
	} {
		if _, err := tx.Exec(q, frameID); err != nil {
			return fmt.Errorf("delete frame children: %w", err)
		}
	}
	result, err := tx.Exec(`DELETE FROM pose_frames WHERE frame_id = ?`, frameID)
	if err != nil {
		return fmt.Errorf("delete frame: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, frameID)
	}
	return tx.Commit()
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codecoach/sessiond/internal/model"
	"github.com/codecoach/sessiond/internal/store"
)

// sqliteStore implements store.Store on a local SQLite file. Per-session
// append ordering relies on SQLite's single-writer transactions: the seq
// assignment and the updated_at bump commit together or not at all.
type sqliteStore struct{ db *sql.DB }

// New opens (or creates) the database at path and applies migrations.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires an existing connection (used by factory and tests).
func NewWithDB(db *sql.DB) (store.Store, error) {
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Sessions() store.Sessions { return &sessions{db: s.db} }
func (s *sqliteStore) Memories() store.Memories { return &memories{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the underlying connection (local-only use case).
func (s *sqliteStore) DB() *sql.DB { return s.db }

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, model.ErrStorage, err)
}

// --- Sessions ---

type sessions struct{ db *sql.DB }

func (s *sessions) Create(ctx context.Context, userID, title string) (*model.Session, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, title, created_at, updated_at) VALUES (?,?,?,?,?)`,
		id, userID, title, now, now)
	if err != nil {
		return nil, storageErr("create session", err)
	}
	return &model.Session{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func getSession(ctx context.Context, q querier, sessionID string) (*model.Session, error) {
	out := &model.Session{ID: sessionID, Messages: []model.Message{}}
	row := q.QueryRowContext(ctx,
		`SELECT user_id, title, created_at, updated_at FROM sessions WHERE session_id = ?`, sessionID)
	if err := row.Scan(&out.UserID, &out.Title, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
		}
		return nil, storageErr("get session", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, storageErr("get session messages", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, storageErr("scan message", err)
		}
		out.Messages = append(out.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get session messages", err)
	}
	return out, nil
}

func (s *sessions) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, storageErr("get session", err)
	}
	defer func() { _ = tx.Rollback() }()
	out, err := getSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("get session", err)
	}
	return out, nil
}

func (s *sessions) ListByUser(ctx context.Context, userID string) ([]*model.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.session_id, s.title, s.created_at, s.updated_at,
		       (SELECT m.content FROM messages m WHERE m.session_id = s.session_id ORDER BY m.seq DESC LIMIT 1)
		FROM sessions s
		WHERE s.user_id = ?
		ORDER BY s.updated_at DESC, s.created_at DESC`, userID)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	defer rows.Close()
	var out []*model.SessionSummary
	for rows.Next() {
		sum := &model.SessionSummary{UserID: userID}
		var preview sql.NullString
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.CreatedAt, &sum.UpdatedAt, &preview); err != nil {
			return nil, storageErr("scan session summary", err)
		}
		if preview.Valid {
			sum.Preview = &preview.String
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list sessions", err)
	}
	return out, nil
}

func (s *sessions) AppendMessage(ctx context.Context, sessionID string, msg model.Message) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("append message", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	row := tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE session_id = ?`, sessionID)
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
		}
		return nil, storageErr("append message", err)
	}

	var seq int64
	row = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?`, sessionID)
	if err := row.Scan(&seq); err != nil {
		return nil, storageErr("append message", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, seq, role, content) VALUES (?,?,?,?)`,
		sessionID, seq, msg.Role, msg.Content); err != nil {
		return nil, storageErr("append message", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE session_id = ?`, now, sessionID); err != nil {
		return nil, storageErr("append message", err)
	}

	out, err := getSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("append message", err)
	}
	return out, nil
}

func (s *sessions) Rename(ctx context.Context, sessionID, title string) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("rename session", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET title = ?, updated_at = ? WHERE session_id = ?`, title, now, sessionID)
	if err != nil {
		return nil, storageErr("rename session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}

	out, err := getSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("rename session", err)
	}
	return out, nil
}

func (s *sessions) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("delete session", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return storageErr("delete session", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return storageErr("delete session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("delete session", err)
	}
	return nil
}

// --- Memories ---

type memories struct{ db *sql.DB }

func (m *memories) Insert(ctx context.Context, in *model.Memory) (*model.Memory, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO memories (memory_id, user_id, session_id, content, importance, mem_type, created_at)
		 VALUES (?,?,?,?,?,?,?)`,
		id, in.UserID, in.SessionID, in.Content, in.Importance, in.Type, now)
	if err != nil {
		return nil, storageErr("insert memory", err)
	}
	out := *in
	out.ID = id
	out.Timestamp = now
	return &out, nil
}

func (m *memories) ListByScope(ctx context.Context, userID string, sessionID *string) ([]*model.Memory, error) {
	// Session-scoped queries see both session-specific and user-global rows.
	// Equal timestamps fall back to insertion order via the rowid tiebreak.
	q := `SELECT memory_id, session_id, content, importance, mem_type, created_at
	      FROM memories WHERE user_id = ?`
	args := []interface{}{userID}
	if sessionID != nil {
		q += ` AND (session_id = ? OR session_id IS NULL)`
		args = append(args, *sessionID)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := m.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageErr("list memories", err)
	}
	defer rows.Close()
	var out []*model.Memory
	for rows.Next() {
		mem := &model.Memory{UserID: userID}
		var sid sql.NullString
		if err := rows.Scan(&mem.ID, &sid, &mem.Content, &mem.Importance, &mem.Type, &mem.Timestamp); err != nil {
			return nil, storageErr("scan memory", err)
		}
		if sid.Valid {
			mem.SessionID = &sid.String
		}
		out = append(out, mem)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list memories", err)
	}
	return out, nil
}

func (m *memories) DeleteOne(ctx context.Context, userID, memoryID string) error {
	// user_id is a scoping guard: someone else's memory looks exactly like a
	// missing one.
	res, err := m.db.ExecContext(ctx,
		`DELETE FROM memories WHERE memory_id = ? AND user_id = ?`, memoryID, userID)
	if err != nil {
		return storageErr("delete memory", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memory %s: %w", memoryID, model.ErrNotFound)
	}
	return nil
}

func (m *memories) ClearAll(ctx context.Context, userID string) (int64, error) {
	res, err := m.db.ExecContext(ctx, `DELETE FROM memories WHERE user_id = ?`, userID)
	if err != nil {
		return 0, storageErr("clear memories", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("clear memories", err)
	}
	return n, nil
}

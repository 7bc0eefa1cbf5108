package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// JournalStore persists journal entries. Every method is scoped to the
// owning user; an entry of another user behaves as if it did not exist.
type JournalStore interface {
	Insert(ctx context.Context, entry *models.JournalEntry) error
	Get(ctx context.Context, userID, id uuid.UUID) (*models.JournalEntry, error)
	List(ctx context.Context, userID uuid.UUID, filters models.JournalFilters) ([]models.JournalEntry, error)
	Update(ctx context.Context, userID, id uuid.UUID, patch models.UpdateJournalEntry, now time.Time) (*models.JournalEntry, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

const journalColumns = `id, user_id, text, mood, mood_confidence, mood_keywords, mood_summary, created_at, updated_at`

// PostgresJournalStore is the journal_entries table.
type PostgresJournalStore struct {
	db *sql.DB
}

var _ JournalStore = (*PostgresJournalStore)(nil)

func NewPostgresJournalStore(db *sql.DB) *PostgresJournalStore {
	return &PostgresJournalStore{db: db}
}

func (s *PostgresJournalStore) Insert(ctx context.Context, e *models.JournalEntry) error {
	mood, err := json.Marshal(e.Mood)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (`+journalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.UserID, e.Text, mood, e.MoodConfidence, pq.Array(e.MoodKeywords), e.MoodSummary, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (s *PostgresJournalStore) Get(ctx context.Context, userID, id uuid.UUID) (*models.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+journalColumns+`
		FROM journal_entries WHERE id = $1 AND user_id = $2
	`, id, userID)
	entry, err := scanJournalEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return entry, err
}

func (s *PostgresJournalStore) List(ctx context.Context, userID uuid.UUID, f models.JournalFilters) ([]models.JournalEntry, error) {
	query, args := buildListQuery(userID, f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.JournalEntry, 0)
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// buildListQuery applies the text and date filters in SQL. The mood filter
// is not part of the query; JournalService applies it to the result.
func buildListQuery(userID uuid.UUID, f models.JournalFilters) (string, []any) {
	var b strings.Builder
	args := []any{userID}
	b.WriteString("SELECT " + journalColumns + " FROM journal_entries WHERE user_id = $1")

	if search := strings.TrimSpace(f.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		fmt.Fprintf(&b, " AND text ILIKE $%d", len(args))
	}
	if f.Start != nil {
		args = append(args, *f.Start)
		fmt.Fprintf(&b, " AND created_at >= $%d", len(args))
	}
	if f.End != nil {
		args = append(args, *f.End)
		fmt.Fprintf(&b, " AND created_at <= $%d", len(args))
	}
	b.WriteString(" ORDER BY created_at DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *PostgresJournalStore) Update(ctx context.Context, userID, id uuid.UUID, patch models.UpdateJournalEntry, now time.Time) (*models.JournalEntry, error) {
	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Text != nil {
		set("text", *patch.Text)
	}
	if patch.Mood != nil {
		mood, err := json.Marshal(patch.Mood)
		if err != nil {
			return nil, err
		}
		set("mood", mood)
	}
	if patch.MoodConfidence != nil {
		set("mood_confidence", *patch.MoodConfidence)
	}
	if patch.MoodKeywords != nil {
		set("mood_keywords", pq.Array(*patch.MoodKeywords))
	}
	if patch.MoodSummary != nil {
		set("mood_summary", *patch.MoodSummary)
	}
	set("updated_at", now)

	args = append(args, id, userID)
	query := fmt.Sprintf(`UPDATE journal_entries SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), journalColumns)

	entry, err := scanJournalEntry(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return entry, err
}

func (s *PostgresJournalStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJournalEntry(row rowScanner) (*models.JournalEntry, error) {
	var (
		e          models.JournalEntry
		mood       []byte
		confidence sql.NullFloat64
		keywords   pq.StringArray
		summary    sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Text, &mood, &confidence, &keywords, &summary, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if len(mood) > 0 {
		if err := json.Unmarshal(mood, &e.Mood); err != nil {
			return nil, fmt.Errorf("decode mood of entry %s: %w", e.ID, err)
		}
	}
	if confidence.Valid {
		e.MoodConfidence = &confidence.Float64
	}
	if len(keywords) > 0 {
		e.MoodKeywords = []string(keywords)
	}
	if summary.Valid {
		e.MoodSummary = &summary.String
	}
	return &e, nil
}

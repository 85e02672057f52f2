package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/pkg/models"
	"github.com/google/uuid"
)

// SQLiteGateway stores the collections as document-shaped rows; tags and
// pages are JSON text columns.
type SQLiteGateway struct {
	db *sql.DB
}

func NewSQLiteGateway(db *sql.DB) *SQLiteGateway {
	return &SQLiteGateway{db: db}
}

const novelColumns = `id, author_id, author_name, title, description, cover_url, tags, category,
	created_at, updated_at, is_published, chapter_count, rating`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNovel(row rowScanner) (models.Novel, error) {
	var (
		n                    models.Novel
		tags                 string
		createdAt, updatedAt int64
		published            int
		rating               sql.NullFloat64
	)
	err := row.Scan(&n.ID, &n.AuthorID, &n.AuthorName, &n.Title, &n.Description, &n.CoverURL,
		&tags, &n.Category, &createdAt, &updatedAt, &published, &n.ChapterCount, &rating)
	if err != nil {
		return n, err
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return n, fmt.Errorf("decode tags for novel %s: %w", n.ID, err)
	}
	n.CreatedAt = time.UnixMilli(createdAt)
	n.UpdatedAt = time.UnixMilli(updatedAt)
	n.IsPublished = published != 0
	if rating.Valid {
		r := rating.Float64
		n.Rating = &r
	}
	return n, nil
}

// scanChapter decodes both stored shapes: the pages JSON column and the
// legacy content column.
func scanChapter(row rowScanner) (models.Chapter, error) {
	var (
		c              models.Chapter
		pages, content sql.NullString
		lastUpdated    int64
	)
	if err := row.Scan(&c.ID, &c.Title, &pages, &content, &c.Order, &lastUpdated); err != nil {
		return c, err
	}
	var decoded []string
	if pages.Valid && pages.String != "" {
		if err := json.Unmarshal([]byte(pages.String), &decoded); err != nil {
			return c, fmt.Errorf("decode pages for chapter %s: %w", c.ID, err)
		}
	}
	var legacy *string
	if content.Valid {
		legacy = &content.String
	}
	c.Pages = models.NormalizePages(decoded, legacy)
	c.LastUpdated = time.UnixMilli(lastUpdated)
	return c, nil
}

func readErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.CodeNotFound, op+": not found", err)
	}
	return apperr.Wrap(apperr.CodeUnavailable, op+" failed", err)
}

func writeErr(op string, err error) error {
	return apperr.Wrap(apperr.CodeWriteFailed, op+" failed", err)
}

func (g *SQLiteGateway) GetNovel(ctx context.Context, id string) (*models.Novel, error) {
	row := g.db.QueryRowContext(ctx, `SELECT `+novelColumns+` FROM novels WHERE id = ?`, id)
	n, err := scanNovel(row)
	if err != nil {
		return nil, readErr(OpGetNovel, err)
	}
	return &n, nil
}

func (g *SQLiteGateway) QueryNovels(ctx context.Context, filter NovelFilter) ([]models.Novel, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, filter.AuthorID)
	}
	query := `SELECT ` + novelColumns + ` FROM novels`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, readErr(OpQueryNovels, err)
	}
	defer rows.Close()

	out := make([]models.Novel, 0)
	for rows.Next() {
		n, err := scanNovel(rows)
		if err != nil {
			return nil, readErr(OpQueryNovels, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(OpQueryNovels, err)
	}
	return out, nil
}

func (g *SQLiteGateway) CreateNovel(ctx context.Context, novel *models.Novel) (string, error) {
	id := novel.ID
	if id == "" {
		id = uuid.New().String()
	}
	if err := insertNovel(ctx, g.db, id, novel); err != nil {
		return "", writeErr(OpCreateNovel, err)
	}
	return id, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertNovel(ctx context.Context, db execer, id string, n *models.Novel) error {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("serialize tags: %w", err)
	}
	now := time.Now()
	created := n.CreatedAt
	if created.IsZero() {
		created = now
	}
	updated := n.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	var rating interface{}
	if n.Rating != nil {
		rating = *n.Rating
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO novels (`+novelColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, n.AuthorID, n.AuthorName, n.Title, n.Description, n.CoverURL, string(tagsJSON),
		n.Category, created.UnixMilli(), updated.UnixMilli(), boolInt(n.IsPublished), n.ChapterCount, rating)
	return err
}

func (g *SQLiteGateway) UpdateNovel(ctx context.Context, id string, update NovelUpdate) error {
	return updateNovel(ctx, g.db, id, update)
}

func updateNovel(ctx context.Context, db execer, id string, u NovelUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UnixMilli()}
	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if u.CoverURL != nil {
		sets = append(sets, "cover_url = ?")
		args = append(args, *u.CoverURL)
	}
	if u.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *u.Category)
	}
	if u.Tags != nil {
		tagsJSON, err := json.Marshal(u.Tags)
		if err != nil {
			return writeErr(OpUpdateNovel, err)
		}
		sets = append(sets, "tags = ?")
		args = append(args, string(tagsJSON))
	}
	if u.IsPublished != nil {
		sets = append(sets, "is_published = ?")
		args = append(args, boolInt(*u.IsPublished))
	}
	if u.ChapterCount != nil {
		sets = append(sets, "chapter_count = ?")
		args = append(args, *u.ChapterCount)
	}
	args = append(args, id)

	res, err := db.ExecContext(ctx, `UPDATE novels SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return writeErr(OpUpdateNovel, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("novel %s not found", id))
	}
	return nil
}

func (g *SQLiteGateway) ListChapters(ctx context.Context, novelID string) ([]models.Chapter, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT id, title, pages, content, chapter_order, last_updated
		FROM chapters WHERE novel_id = ?
		ORDER BY chapter_order ASC, id ASC`, novelID)
	if err != nil {
		return nil, readErr(OpListChapters, err)
	}
	defer rows.Close()

	out := make([]models.Chapter, 0)
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, readErr(OpListChapters, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(OpListChapters, err)
	}
	return out, nil
}

func (g *SQLiteGateway) CreateChapter(ctx context.Context, novelID string, chapter *models.Chapter) (string, error) {
	id := chapter.ID
	if id == "" {
		id = uuid.New().String()
	}
	if err := insertChapter(ctx, g.db, novelID, id, chapter); err != nil {
		return "", writeErr(OpCreateChapter, err)
	}
	return id, nil
}

// CreateChapterWithCount writes the chapter and the parent's count in one
// transaction.
func (g *SQLiteGateway) CreateChapterWithCount(ctx context.Context, novelID string, chapter *models.Chapter, count int) (string, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return "", writeErr(OpCreateChapter, err)
	}
	defer tx.Rollback()

	id := chapter.ID
	if id == "" {
		id = uuid.New().String()
	}
	if err := insertChapter(ctx, tx, novelID, id, chapter); err != nil {
		return "", writeErr(OpCreateChapter, err)
	}
	if err := updateNovel(ctx, tx, novelID, NovelUpdate{ChapterCount: &count}); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", writeErr(OpCreateChapter, err)
	}
	return id, nil
}

func insertChapter(ctx context.Context, db execer, novelID, id string, c *models.Chapter) error {
	pagesJSON, err := json.Marshal(models.NormalizePages(c.Pages, nil))
	if err != nil {
		return fmt.Errorf("serialize pages: %w", err)
	}
	last := c.LastUpdated
	if last.IsZero() {
		last = time.Now()
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO chapters (id, novel_id, title, pages, chapter_order, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, novelID, c.Title, string(pagesJSON), c.Order, last.UnixMilli())
	return err
}

func (g *SQLiteGateway) UpdateChapter(ctx context.Context, novelID, chapterID string, update ChapterUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Pages != nil {
		pagesJSON, err := json.Marshal(models.NormalizePages(update.Pages, nil))
		if err != nil {
			return writeErr(OpUpdateChapter, err)
		}
		// Rewriting pages retires the legacy content column for this row.
		sets = append(sets, "pages = ?", "content = NULL")
		args = append(args, string(pagesJSON))
	}
	last := update.LastUpdated
	if last.IsZero() {
		last = time.Now()
	}
	sets = append(sets, "last_updated = ?")
	args = append(args, last.UnixMilli(), novelID, chapterID)

	res, err := g.db.ExecContext(ctx,
		`UPDATE chapters SET `+strings.Join(sets, ", ")+` WHERE novel_id = ? AND id = ?`, args...)
	if err != nil {
		return writeErr(OpUpdateChapter, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("chapter %s not found", chapterID))
	}
	return nil
}

func (g *SQLiteGateway) GetUserData(ctx context.Context, uid string) (*models.UserData, error) {
	u := &models.UserData{UID: uid, Library: []string{}}
	err := g.db.QueryRowContext(ctx, `SELECT tokens FROM user_data WHERE uid = ?`, uid).Scan(&u.Tokens)
	if err != nil {
		return nil, readErr(OpGetUserData, err)
	}

	rows, err := g.db.QueryContext(ctx,
		`SELECT novel_id FROM user_library WHERE uid = ? ORDER BY added_at ASC`, uid)
	if err != nil {
		return nil, readErr(OpGetUserData, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, readErr(OpGetUserData, err)
		}
		u.Library = append(u.Library, id)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(OpGetUserData, err)
	}
	return u, nil
}

// EnsureUserData creates the user document with a zero balance if absent.
func (g *SQLiteGateway) EnsureUserData(ctx context.Context, uid string) error {
	_, err := g.db.ExecContext(ctx, `INSERT OR IGNORE INTO user_data (uid, tokens) VALUES (?, 0)`, uid)
	if err != nil {
		return writeErr("ensure_user_data", err)
	}
	return nil
}

func (g *SQLiteGateway) AddToLibrary(ctx context.Context, uid, novelID string) error {
	if err := g.EnsureUserData(ctx, uid); err != nil {
		return err
	}
	_, err := g.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_library (uid, novel_id, added_at) VALUES (?, ?, ?)`,
		uid, novelID, time.Now().UnixMilli())
	if err != nil {
		return writeErr(OpAddToLibrary, err)
	}
	return nil
}

func (g *SQLiteGateway) RemoveFromLibrary(ctx context.Context, uid, novelID string) error {
	_, err := g.db.ExecContext(ctx, `DELETE FROM user_library WHERE uid = ? AND novel_id = ?`, uid, novelID)
	if err != nil {
		return writeErr(OpRemoveFromLibrary, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// PutDemoNovel inserts a novel and its chapters with their ids preserved.
func (g *SQLiteGateway) PutDemoNovel(ctx context.Context, novel models.Novel, chapters []models.Chapter) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return writeErr("seed_demo", err)
	}
	defer tx.Rollback()

	if err := insertNovel(ctx, tx, novel.ID, &novel); err != nil {
		return writeErr("seed_demo", err)
	}
	for i := range chapters {
		if err := insertChapter(ctx, tx, novel.ID, chapters[i].ID, &chapters[i]); err != nil {
			return writeErr("seed_demo", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return writeErr("seed_demo", err)
	}
	return nil
}

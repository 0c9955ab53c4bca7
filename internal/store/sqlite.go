package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/vistext/internal/document"
	"github.com/MeKo-Tech/vistext/internal/validation"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DB is a SQLite database holding any number of extraction runs.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the database at path.
func OpenDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// SaveRun stores one run and returns its generated id.
func (d *DB) SaveRun(ctx context.Context, source string, images []*document.ExtractedImage,
	topics []*document.QuestionBlock, report validation.Report,
) (string, error) {
	runID := uuid.NewString()
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", err
	}

	err = d.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, source, report) VALUES (?, ?, ?)`,
			runID, source, string(reportJSON)); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for _, img := range images {
			if err := insertImage(ctx, tx, runID, img); err != nil {
				return err
			}
		}
		for _, t := range topics {
			if err := insertTopic(ctx, tx, runID, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return runID, nil
}

func insertImage(ctx context.Context, tx *sql.Tx, runID string, img *document.ExtractedImage) error {
	var bbox any
	if img.BBox != nil {
		b, _ := json.Marshal(img.BBox)
		bbox = string(b)
	}
	var score, likely any
	if img.Score != nil {
		score, likely = img.Score.Score, img.Score.LikelyImage
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO images (run_id, id, page, filename, source, bbox, confidence, hash,
			width, height, score, likely_image, associated_topic_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, img.ID, img.Page, img.Filename, img.Source, bbox, img.Confidence, img.Hash,
		img.Width, img.Height, score, likely, img.AssociatedTopicID)
	if err != nil {
		return fmt.Errorf("insert image %s: %w", img.ID, err)
	}
	return nil
}

func insertTopic(ctx context.Context, tx *sql.Tx, runID string, t *document.QuestionBlock) error {
	opts := t.Options
	if opts == nil {
		opts = []string{}
	}
	optsJSON, _ := json.Marshal(opts)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO topics (run_id, id, page, content, question_type, options,
			correct_answer, rationale, subject, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, t.TopicID, t.Page, t.Content, t.Type.String(), string(optsJSON),
		t.CorrectAnswer, t.Rationale, t.Subject, t.Confidence); err != nil {
		return fmt.Errorf("insert topic %s: %w", t.TopicID, err)
	}
	for i, imgID := range t.Images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO topic_images (run_id, topic_id, image_id, position) VALUES (?, ?, ?, ?)`,
			runID, t.TopicID, imgID, i); err != nil {
			return fmt.Errorf("link topic %s to %s: %w", t.TopicID, imgID, err)
		}
	}
	return nil
}

// RunSummary is a stored run with its row counts.
type RunSummary struct {
	ID     string
	Source string
	Images int
	Topics int
	Links  int
}

// Runs lists stored runs, newest first.
func (d *DB) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT r.id, r.source,
			(SELECT COUNT(*) FROM images i WHERE i.run_id = r.id),
			(SELECT COUNT(*) FROM topics t WHERE t.run_id = r.id),
			(SELECT COUNT(*) FROM topic_images l WHERE l.run_id = r.id)
		FROM runs r ORDER BY r.created_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Source, &s.Images, &s.Topics, &s.Links); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TopicImages returns the image ids linked to a topic in link order.
func (d *DB) TopicImages(ctx context.Context, runID, topicID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT image_id FROM topic_images WHERE run_id = ? AND topic_id = ? ORDER BY position`,
		runID, topicID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (d *DB) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/repository"
)

// ExperimentRepository implements experiment.Repository for SQLite
type ExperimentRepository struct {
	db *DB
}

var _ experiment.Repository = (*ExperimentRepository)(nil)

// NewExperimentRepository creates a new ExperimentRepository
func NewExperimentRepository(db *DB) *ExperimentRepository {
	return &ExperimentRepository{db: db}
}

const experimentColumns = `
	id, title, description, status, category, cover_image_url,
	owner_id, forked_from_id, tags, links, created_at, updated_at, deleted_at
`

// Insert creates a new experiment with its collaborators
func (r *ExperimentRepository) Insert(ctx context.Context, exp *experiment.Experiment) error {
	return r.db.RunInTx(ctx, func(ctx context.Context) error {
		tags, links, err := encodeLists(exp)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO experiments (` + experimentColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = r.db.conn(ctx).ExecContext(ctx, query,
			exp.ID,
			exp.Title,
			exp.Description,
			exp.Status,
			exp.Category,
			exp.CoverImageURL,
			exp.OwnerID,
			exp.ForkedFromID,
			tags,
			links,
			exp.CreatedAt.UTC(),
			exp.UpdatedAt.UTC(),
			utcPtr(exp.DeletedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("failed to insert experiment: %w", err)
		}

		return r.replaceCollaborators(ctx, exp.ID, exp.CollaboratorIDs)
	})
}

// Get retrieves an experiment by ID with collaborators and progress
func (r *ExperimentRepository) Get(ctx context.Context, id string) (*experiment.Experiment, error) {
	query := `SELECT ` + experimentColumns + ` FROM experiments WHERE id = ?`

	exp, err := scanExperiment(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}

	collaborators, err := r.loadCollaborators(ctx, id)
	if err != nil {
		return nil, err
	}
	progress, err := r.loadProgress(ctx, id)
	if err != nil {
		return nil, err
	}
	exp.CollaboratorIDs = collaborators[id]
	exp.ProgressUpdates = progress[id]
	fillEmpty(exp)

	return exp, nil
}

// Update replaces every mutable field except progress updates
func (r *ExperimentRepository) Update(ctx context.Context, exp *experiment.Experiment) error {
	return r.db.RunInTx(ctx, func(ctx context.Context) error {
		tags, links, err := encodeLists(exp)
		if err != nil {
			return err
		}

		query := `
			UPDATE experiments
			SET title = ?, description = ?, status = ?, category = ?, cover_image_url = ?,
			    owner_id = ?, forked_from_id = ?, tags = ?, links = ?,
			    created_at = ?, updated_at = ?, deleted_at = ?
			WHERE id = ?
		`
		result, err := r.db.conn(ctx).ExecContext(ctx, query,
			exp.Title,
			exp.Description,
			exp.Status,
			exp.Category,
			exp.CoverImageURL,
			exp.OwnerID,
			exp.ForkedFromID,
			tags,
			links,
			exp.CreatedAt.UTC(),
			exp.UpdatedAt.UTC(),
			utcPtr(exp.DeletedAt),
			exp.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update experiment: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return repository.ErrNotFound
		}

		return r.replaceCollaborators(ctx, exp.ID, exp.CollaboratorIDs)
	})
}

// List returns all experiments in insertion order
func (r *ExperimentRepository) List(ctx context.Context) ([]experiment.Experiment, error) {
	query := `SELECT ` + experimentColumns + ` FROM experiments ORDER BY seq`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}

	exps := []experiment.Experiment{}
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		exps = append(exps, *exp)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate experiments: %w", err)
	}
	// Release the connection before the follow-up queries.
	rows.Close()

	collaborators, err := r.loadCollaborators(ctx, "")
	if err != nil {
		return nil, err
	}
	progress, err := r.loadProgress(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range exps {
		exps[i].CollaboratorIDs = collaborators[exps[i].ID]
		exps[i].ProgressUpdates = progress[exps[i].ID]
		fillEmpty(&exps[i])
	}

	return exps, nil
}

// AppendProgress adds a progress update to an experiment
func (r *ExperimentRepository) AppendProgress(ctx context.Context, update *experiment.ProgressUpdate) error {
	query := `
		INSERT INTO progress_updates (id, experiment_id, content, created_by_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		update.ID,
		update.ExperimentID,
		update.Content,
		update.CreatedByID,
		update.CreatedAt.UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to append progress: %w", err)
	}
	return nil
}

func (r *ExperimentRepository) replaceCollaborators(ctx context.Context, experimentID string, userIDs []string) error {
	conn := r.db.conn(ctx)
	if _, err := conn.ExecContext(ctx, `DELETE FROM experiment_collaborators WHERE experiment_id = ?`, experimentID); err != nil {
		return fmt.Errorf("failed to clear collaborators: %w", err)
	}
	for i, userID := range userIDs {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO experiment_collaborators (experiment_id, user_id, position) VALUES (?, ?, ?)`,
			experimentID, userID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to add collaborator: %w", err)
		}
	}
	return nil
}

// loadCollaborators groups collaborator ids by experiment. An empty
// experimentID loads every experiment.
func (r *ExperimentRepository) loadCollaborators(ctx context.Context, experimentID string) (map[string][]string, error) {
	query := `SELECT experiment_id, user_id FROM experiment_collaborators`
	args := []any{}
	if experimentID != "" {
		query += ` WHERE experiment_id = ?`
		args = append(args, experimentID)
	}
	query += ` ORDER BY experiment_id, position`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load collaborators: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var expID, userID string
		if err := rows.Scan(&expID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan collaborator: %w", err)
		}
		out[expID] = append(out[expID], userID)
	}
	return out, rows.Err()
}

// loadProgress groups progress updates by experiment in append order.
func (r *ExperimentRepository) loadProgress(ctx context.Context, experimentID string) (map[string][]experiment.ProgressUpdate, error) {
	query := `SELECT id, experiment_id, content, created_by_id, created_at FROM progress_updates`
	args := []any{}
	if experimentID != "" {
		query += ` WHERE experiment_id = ?`
		args = append(args, experimentID)
	}
	query += ` ORDER BY seq`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]experiment.ProgressUpdate)
	for rows.Next() {
		var p experiment.ProgressUpdate
		if err := rows.Scan(&p.ID, &p.ExperimentID, &p.Content, &p.CreatedByID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		out[p.ExperimentID] = append(out[p.ExperimentID], p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExperiment(row scanner) (*experiment.Experiment, error) {
	var (
		exp       experiment.Experiment
		category  sql.NullString
		cover     sql.NullString
		forked    sql.NullString
		tags      string
		links     string
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&exp.ID,
		&exp.Title,
		&exp.Description,
		&exp.Status,
		&category,
		&cover,
		&exp.OwnerID,
		&forked,
		&tags,
		&links,
		&exp.CreatedAt,
		&exp.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		c := experiment.Category(category.String)
		exp.Category = &c
	}
	if cover.Valid {
		exp.CoverImageURL = &cover.String
	}
	if forked.Valid {
		exp.ForkedFromID = &forked.String
	}
	if deletedAt.Valid {
		exp.DeletedAt = &deletedAt.Time
	}
	if err := json.Unmarshal([]byte(tags), &exp.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(links), &exp.Links); err != nil {
		return nil, fmt.Errorf("failed to decode links: %w", err)
	}
	return &exp, nil
}

func encodeLists(exp *experiment.Experiment) (string, string, error) {
	tags, err := json.Marshal(nonNilSlice(exp.Tags))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode tags: %w", err)
	}
	links, err := json.Marshal(nonNilSlice(exp.Links))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode links: %w", err)
	}
	return string(tags), string(links), nil
}

func fillEmpty(exp *experiment.Experiment) {
	exp.CollaboratorIDs = nonNilSlice(exp.CollaboratorIDs)
	exp.Tags = nonNilSlice(exp.Tags)
	exp.Links = nonNilSlice(exp.Links)
	exp.ProgressUpdates = nonNilSlice(exp.ProgressUpdates)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

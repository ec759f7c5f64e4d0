package graph

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const dimensionColumns = `
	d.name, d.description, d.is_priority, d.updated_at,
	(SELECT COUNT(*) FROM node_dimensions nd WHERE nd.dimension = d.name) AS node_count`

// Dimensions is the shared tag vocabulary.
type Dimensions struct {
	db     *DB
	logger *zap.Logger
}

// NewDimensions creates a dimension store.
func NewDimensions(db *DB) *Dimensions {
	return &Dimensions{db: db, logger: db.logger.Named("dimensions")}
}

func scanDimension(row rowScanner) (*Dimension, error) {
	var (
		d           Dimension
		description *string
		priority    int
	)
	if err := row.Scan(&d.Name, &description, &priority, &d.UpdatedAt, &d.NodeCount); err != nil {
		return nil, err
	}
	d.Description = derefString(description)
	d.IsPriority = priority != 0
	return &d, nil
}

// List returns every dimension with its node count, priority dimensions
// first and then by name.
func (s *Dimensions) List(ctx context.Context) ([]Dimension, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+dimensionColumns+` FROM dimensions d
		 ORDER BY d.is_priority DESC, mg_lower(d.name), d.name`)
	if err != nil {
		return nil, storeFailure("list dimensions", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Dimension
	for rows.Next() {
		d, err := scanDimension(rows)
		if err != nil {
			return nil, storeFailure("list dimensions", err)
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("list dimensions", err)
	}
	return result, nil
}

// Get returns one dimension by exact name.
func (s *Dimensions) Get(ctx context.Context, name string) (*Dimension, error) {
	d, err := scanDimension(s.db.db.QueryRowContext(ctx,
		`SELECT `+dimensionColumns+` FROM dimensions d WHERE d.name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("dimension %q not found", name)
	}
	if err != nil {
		return nil, storeFailure("load dimension", err)
	}
	return d, nil
}

// Count returns the number of dimensions.
func (s *Dimensions) Count(ctx context.Context) (int, error) {
	return s.db.count(ctx, "dimensions")
}

// Create adds a dimension. The name is trimmed and must not match an
// existing dimension, ignoring case.
func (s *Dimensions) Create(ctx context.Context, p CreateDimensionParams) (*Dimension, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, validationError("dimension name is required")
	}

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		taken, err := dimensionTaken(ctx, tx, name, "")
		if err != nil {
			return err
		}
		if taken {
			return duplicateName(name)
		}
		_, err = s.db.execHook(ctx, tx,
			`INSERT INTO dimensions (name, description, is_priority, updated_at) VALUES (?, ?, ?, ?)`,
			name, nullableString(strings.TrimSpace(p.Description)), boolToInt(p.IsPriority), s.db.timestamp(),
		)
		if isUniqueViolation(err) {
			return duplicateName(name)
		}
		if err != nil {
			return storeFailure("create dimension", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("dimension created", zap.String("name", name))
	return s.Get(ctx, name)
}

// Update renames a dimension and/or changes its description or priority in
// one transaction. A rename carries every node association over to the new
// name and is rejected when another dimension already has that name,
// ignoring case. Changing only the casing of a name is allowed.
func (s *Dimensions) Update(ctx context.Context, p UpdateDimensionParams) (*Dimension, error) {
	current := strings.TrimSpace(p.CurrentName)
	if current == "" {
		return nil, validationError("current dimension name is required")
	}
	target := current
	if p.NewName != nil {
		target = strings.TrimSpace(*p.NewName)
		if target == "" {
			return nil, validationError("new dimension name cannot be empty")
		}
	}

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		exists, err := dimensionExists(ctx, tx, current)
		if err != nil {
			return err
		}
		if !exists {
			return notFound("dimension %q not found", current)
		}

		now := s.db.timestamp()
		if target != current {
			taken, err := dimensionTaken(ctx, tx, target, current)
			if err != nil {
				return err
			}
			if taken {
				return duplicateName(target)
			}
			if _, err := s.db.execHook(ctx, tx,
				`UPDATE node_dimensions SET dimension = ? WHERE dimension = ?`, target, current,
			); err != nil {
				return storeFailure("rename dimension", err)
			}
			if _, err := s.db.execHook(ctx, tx,
				`UPDATE dimensions SET name = ? WHERE name = ?`, target, current,
			); err != nil {
				return storeFailure("rename dimension", err)
			}
		}

		sets := []string{"updated_at = ?"}
		args := []any{now}
		if p.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, nullableString(strings.TrimSpace(*p.Description)))
		}
		if p.IsPriority != nil {
			sets = append(sets, "is_priority = ?")
			args = append(args, boolToInt(*p.IsPriority))
		}
		args = append(args, target)
		if _, err := s.db.execHook(ctx, tx,
			`UPDATE dimensions SET `+strings.Join(sets, ", ")+` WHERE name = ?`, args...,
		); err != nil {
			return storeFailure("update dimension", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if target != current {
		s.logger.Info("dimension renamed", zap.String("from", current), zap.String("to", target))
	}
	return s.Get(ctx, target)
}

// Delete removes a dimension and its node associations. Nodes are untouched.
func (s *Dimensions) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		exists, err := dimensionExists(ctx, tx, name)
		if err != nil {
			return err
		}
		if !exists {
			return notFound("dimension %q not found", name)
		}
		if _, err := s.db.execHook(ctx, tx,
			`DELETE FROM node_dimensions WHERE dimension = ?`, name,
		); err != nil {
			return storeFailure("delete dimension", err)
		}
		if _, err := s.db.execHook(ctx, tx,
			`DELETE FROM dimensions WHERE name = ?`, name,
		); err != nil {
			return storeFailure("delete dimension", err)
		}
		return nil
	})
}

// TogglePriority flips the priority flag of a dimension.
func (s *Dimensions) TogglePriority(ctx context.Context, name string) (*Dimension, error) {
	name = strings.TrimSpace(name)
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := s.db.execHook(ctx, tx,
			`UPDATE dimensions SET is_priority = 1 - is_priority, updated_at = ? WHERE name = ?`,
			s.db.timestamp(), name,
		)
		if err != nil {
			return storeFailure("toggle dimension priority", err)
		}
		if !rowsAffected(res) {
			return notFound("dimension %q not found", name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, name)
}

// ─── Node associations ───────────────────────────────────────────────────────

// attachDimensions tags node id with names, creating missing dimensions on
// the fly. A name that matches an existing dimension case-insensitively
// reuses that dimension's spelling. Names must already be sanitized.
func (d *DB) attachDimensions(ctx context.Context, tx *sql.Tx, nodeID int64, names []string, now string) error {
	for _, name := range names {
		var canonical string
		err := tx.QueryRowContext(ctx,
			`SELECT name FROM dimensions WHERE mg_lower(name) = ?
			 ORDER BY name = ? DESC, name LIMIT 1`, fold(name), name,
		).Scan(&canonical)
		switch {
		case err == nil:
			name = canonical
		case !errors.Is(err, sql.ErrNoRows):
			return storeFailure("load dimension", err)
		}

		if _, err := d.execHook(ctx, tx,
			`INSERT INTO dimensions (name, is_priority, updated_at) VALUES (?, 0, ?)
			 ON CONFLICT(name) DO NOTHING`,
			name, now,
		); err != nil {
			return storeFailure("create dimension", err)
		}
		if _, err := d.execHook(ctx, tx,
			`INSERT OR IGNORE INTO node_dimensions (node_id, dimension) VALUES (?, ?)`,
			nodeID, name,
		); err != nil {
			return storeFailure("tag node", err)
		}
	}
	return nil
}

// replaceDimensions swaps the whole dimension set of a node.
func (d *DB) replaceDimensions(ctx context.Context, tx *sql.Tx, nodeID int64, names []string, now string) error {
	if _, err := d.execHook(ctx, tx,
		`DELETE FROM node_dimensions WHERE node_id = ?`, nodeID,
	); err != nil {
		return storeFailure("clear node dimensions", err)
	}
	return d.attachDimensions(ctx, tx, nodeID, names, now)
}

func dimensionExists(ctx context.Context, q queryer, name string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM dimensions WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeFailure("load dimension", err)
	}
	return true, nil
}

// dimensionTaken reports whether a dimension other than except matches name
// ignoring case.
func dimensionTaken(ctx context.Context, q queryer, name, except string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM dimensions WHERE mg_lower(name) = ? AND name <> ? LIMIT 1`, fold(name), except,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeFailure("load dimension", err)
	}
	return true, nil
}

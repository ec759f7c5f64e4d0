package graph

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Edge list bounds for ListForNode.
const (
	DefaultEdgeLimit = 25
	MaxEdgeLimit     = 50
)

// Edge directions reported by ListForNode.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

const edgeColumns = `e.id, e.from_node_id, e.to_node_id, e.source, e.context, e.user_feedback, e.created_at`

// Edges is the edge record store.
type Edges struct {
	db     *DB
	logger *zap.Logger
}

// NewEdges creates an edge store.
func NewEdges(db *DB) *Edges {
	return &Edges{db: db, logger: db.logger.Named("edges")}
}

func scanEdge(row rowScanner, extra ...any) (*Edge, error) {
	var (
		e      Edge
		source *string
	)
	dest := append([]any{&e.ID, &e.FromNodeID, &e.ToNodeID, &source, &e.Context, &e.UserFeedback, &e.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.Source = derefString(source)
	return &e, nil
}

func validateEdge(p CreateEdgeParams) error {
	if p.FromNodeID <= 0 || p.ToNodeID <= 0 {
		return validationError("both edge endpoints are required")
	}
	if p.FromNodeID == p.ToNodeID {
		return validationError("a node cannot be connected to itself")
	}
	if strings.TrimSpace(p.Explanation) == "" {
		return validationError("edge explanation is required")
	}
	return nil
}

// Create inserts an edge after checking that both endpoints exist.
// Parallel edges between the same pair are allowed.
func (s *Edges) Create(ctx context.Context, p CreateEdgeParams) (*Edge, error) {
	if err := validateEdge(p); err != nil {
		return nil, err
	}

	var id int64
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.insert(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("edge created",
		zap.Int64("id", id), zap.Int64("from", p.FromNodeID), zap.Int64("to", p.ToNodeID))
	return s.Get(ctx, id)
}

// EnsureExists returns the oldest edge from p.FromNodeID to p.ToNodeID,
// creating one from p when none exists. The lookup and insert share one
// write transaction, so concurrent callers for the same pair end up with a
// single edge. created reports whether this call inserted it.
func (s *Edges) EnsureExists(ctx context.Context, p CreateEdgeParams) (edge *Edge, created bool, err error) {
	if err := validateEdge(p); err != nil {
		return nil, false, err
	}

	var id int64
	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM edges WHERE from_node_id = ? AND to_node_id = ? ORDER BY id LIMIT 1`,
			p.FromNodeID, p.ToNodeID,
		).Scan(&id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return storeFailure("load edge", err)
		}
		id, err = s.insert(ctx, tx, p)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	edge, err = s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return edge, created, nil
}

func (s *Edges) insert(ctx context.Context, tx *sql.Tx, p CreateEdgeParams) (int64, error) {
	if err := requireNode(ctx, tx, p.FromNodeID); err != nil {
		return 0, err
	}
	if err := requireNode(ctx, tx, p.ToNodeID); err != nil {
		return 0, err
	}

	ec := EdgeContext{Explanation: strings.TrimSpace(p.Explanation), Type: strings.TrimSpace(p.Type)}
	res, err := s.db.execHook(ctx, tx,
		`INSERT INTO edges (from_node_id, to_node_id, source, context, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.FromNodeID, p.ToNodeID, nullableString(strings.TrimSpace(p.Source)), ec, s.db.timestamp(),
	)
	if err != nil {
		return 0, storeFailure("insert edge", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeFailure("insert edge", err)
	}
	return id, nil
}

// Get returns one edge.
func (s *Edges) Get(ctx context.Context, id int64) (*Edge, error) {
	e, err := scanEdge(s.db.db.QueryRowContext(ctx, `SELECT `+edgeColumns+` FROM edges e WHERE e.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("edge %d not found", id)
	}
	if err != nil {
		return nil, storeFailure("load edge", err)
	}
	return e, nil
}

// Update replaces the explanation of an edge, keeping every other context
// key as it was.
func (s *Edges) Update(ctx context.Context, id int64, explanation string) (*Edge, error) {
	explanation = strings.TrimSpace(explanation)
	if explanation == "" {
		return nil, validationError("edge explanation is required")
	}

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var ec EdgeContext
		err := tx.QueryRowContext(ctx, `SELECT context FROM edges WHERE id = ?`, id).Scan(&ec)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("edge %d not found", id)
		}
		if err != nil {
			return storeFailure("load edge", err)
		}
		ec.Explanation = explanation
		if _, err := s.db.execHook(ctx, tx, `UPDATE edges SET context = ? WHERE id = ?`, ec, id); err != nil {
			return storeFailure("update edge", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes an edge.
func (s *Edges) Delete(ctx context.Context, id int64) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := s.db.execHook(ctx, tx, `DELETE FROM edges WHERE id = ?`, id)
		if err != nil {
			return storeFailure("delete edge", err)
		}
		if !rowsAffected(res) {
			return notFound("edge %d not found", id)
		}
		return nil
	})
}

// ListForNode returns edges touching nodeID in either direction, newest
// first, each annotated with the other endpoint. limit is clamped to
// [1, MaxEdgeLimit]; zero or less means DefaultEdgeLimit.
func (s *Edges) ListForNode(ctx context.Context, nodeID int64, limit int) ([]EdgeView, error) {
	switch {
	case limit <= 0:
		limit = DefaultEdgeLimit
	case limit > MaxEdgeLimit:
		limit = MaxEdgeLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+edgeColumns+`, p.id, p.title,
			CASE WHEN e.from_node_id = ? THEN '`+DirectionOutgoing+`' ELSE '`+DirectionIncoming+`' END
		 FROM edges e
		 JOIN nodes p ON p.id = CASE WHEN e.from_node_id = ? THEN e.to_node_id ELSE e.from_node_id END
		 WHERE e.from_node_id = ? OR e.to_node_id = ?
		 ORDER BY e.created_at DESC, e.id DESC
		 LIMIT ?`,
		nodeID, nodeID, nodeID, nodeID, limit,
	)
	if err != nil {
		return nil, storeFailure("list edges", err)
	}
	defer func() { _ = rows.Close() }()

	var result []EdgeView
	for rows.Next() {
		var v EdgeView
		e, err := scanEdge(rows, &v.PeerID, &v.PeerTitle, &v.Direction)
		if err != nil {
			return nil, storeFailure("list edges", err)
		}
		v.Edge = *e
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("list edges", err)
	}
	return result, nil
}

// Count returns the number of edges.
func (s *Edges) Count(ctx context.Context) (int, error) {
	return s.db.count(ctx, "edges")
}

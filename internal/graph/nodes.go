package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/mindgraph/internal/mention"
	"go.uber.org/zap"
)

// DefaultNodeLimit is the page size used when a filter has no limit.
const DefaultNodeLimit = 25

// nodeColumns selects a full node row with its dimension set aggregated as
// a JSON array, in the order the dimensions were attached.
const nodeColumns = `
	n.id, n.title, n.content, n.description, n.link, n.type, n.metadata, n.chunk,
	n.created_at, n.updated_at,
	(SELECT json_group_array(dimension) FROM (
		SELECT nd.dimension FROM node_dimensions nd WHERE nd.node_id = n.id ORDER BY nd.rowid
	)) AS dimensions`

// Nodes is the node record store.
type Nodes struct {
	db       *DB
	resolver *Resolver
	logger   *zap.Logger
}

// NewNodes creates a node store. resolver may be nil, in which case content
// writes do not synchronize mention edges.
func NewNodes(db *DB, resolver *Resolver) *Nodes {
	return &Nodes{db: db, resolver: resolver, logger: db.logger.Named("nodes")}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*Node, error) {
	var (
		n                                          Node
		content, description, link, typ, chunk, ds *string
	)
	if err := row.Scan(
		&n.ID, &n.Title, &content, &description, &link, &typ, &n.Metadata, &chunk,
		&n.CreatedAt, &n.UpdatedAt, &ds,
	); err != nil {
		return nil, err
	}
	n.Content = derefString(content)
	n.Description = derefString(description)
	n.Link = derefString(link)
	n.Type = derefString(typ)
	n.Chunk = derefString(chunk)
	n.Dimensions = []string{}
	if raw := derefString(ds); raw != "" {
		if err := json.Unmarshal([]byte(raw), &n.Dimensions); err != nil {
			return nil, fmt.Errorf("decoding dimensions of node %d: %w", n.ID, err)
		}
	}
	return &n, nil
}

// ─── Create ──────────────────────────────────────────────────────────────────

// Create inserts a node and its sanitized dimension set in one transaction
// and returns the hydrated node. Mentions in content are resolved after the
// commit.
func (s *Nodes) Create(ctx context.Context, p CreateNodeParams) (*Node, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	dims := SanitizeDimensions(p.Dimensions)

	var id int64
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		now := s.db.timestamp()
		res, err := s.db.execHook(ctx, tx,
			`INSERT INTO nodes (title, content, description, link, type, metadata, chunk, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			title, nullableString(p.Content), nullableString(p.Description),
			nullableString(p.Link), nullableString(p.Type), p.Metadata, nullableString(p.Chunk),
			now, now,
		)
		if err != nil {
			return storeFailure("insert node", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return storeFailure("insert node", err)
		}
		return s.db.attachDimensions(ctx, tx, id, dims, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("node created", zap.Int64("id", id), zap.Int("dimensions", len(dims)))
	if p.Content != "" {
		s.resolveMentions(ctx, id, p.Content)
	}
	return s.Get(ctx, id)
}

// ─── Read ────────────────────────────────────────────────────────────────────

// Get returns a node with its dimensions resolved.
func (s *Nodes) Get(ctx context.Context, id int64) (*Node, error) {
	return s.get(ctx, s.db.db, id)
}

func (s *Nodes) get(ctx context.Context, q queryer, id int64) (*Node, error) {
	n, err := scanNode(q.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes n WHERE n.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("node %d not found", id)
	}
	if err != nil {
		return nil, storeFailure("load node", err)
	}
	return n, nil
}

// GetMany returns the nodes that exist among ids, in the order requested.
// Duplicate ids are collapsed.
func (s *Nodes) GetMany(ctx context.Context, ids []int64) ([]Node, error) {
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(unique)), ", ")
	args := make([]any, len(unique))
	for i, id := range unique {
		args[i] = id
	}

	rows, err := s.db.Query(ctx, `SELECT `+nodeColumns+` FROM nodes n WHERE n.id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, storeFailure("load nodes", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[int64]Node, len(unique))
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, storeFailure("load nodes", err)
		}
		byID[n.ID] = *n
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("load nodes", err)
	}

	result := make([]Node, 0, len(byID))
	for _, id := range unique {
		if n, ok := byID[id]; ok {
			result = append(result, n)
		}
	}
	return result, nil
}

// List returns a page of nodes.
//
// The dimension filter keeps nodes tagged with at least one of the given
// names. A search term keeps nodes whose title, description or content
// contains it (Unicode case-insensitive) and orders them by tier: exact title,
// title prefix, title substring, description substring, everything else.
// Within a tier, and without a search term, newer updated_at comes first.
func (s *Nodes) List(ctx context.Context, f NodeFilter) ([]Node, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultNodeLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + nodeColumns + ` FROM nodes n WHERE 1=1`
	var args []any

	if dims := SanitizeDimensions(f.Dimensions); len(dims) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(dims)), ", ")
		query += ` AND EXISTS (
			SELECT 1 FROM node_dimensions nd
			WHERE nd.node_id = n.id AND mg_lower(nd.dimension) IN (` + placeholders + `))`
		for _, d := range dims {
			args = append(args, fold(d))
		}
	}

	term := fold(strings.TrimSpace(f.Search))
	if term != "" {
		contains := containsPattern(term)
		query += ` AND (mg_lower(n.title) LIKE ? ESCAPE '\'
			OR mg_lower(n.description) LIKE ? ESCAPE '\'
			OR mg_lower(n.content) LIKE ? ESCAPE '\')`
		args = append(args, contains, contains, contains)

		query += ` ORDER BY CASE
				WHEN mg_lower(n.title) = ? THEN 1
				WHEN mg_lower(n.title) LIKE ? ESCAPE '\' THEN 2
				WHEN mg_lower(n.title) LIKE ? ESCAPE '\' THEN 3
				WHEN mg_lower(n.description) LIKE ? ESCAPE '\' THEN 4
				ELSE 6
			END, n.updated_at DESC, n.id DESC`
		args = append(args, term, prefixPattern(term), contains, contains)
	} else {
		query += ` ORDER BY n.updated_at DESC, n.id DESC`
	}

	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storeFailure("search nodes", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, storeFailure("search nodes", err)
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("search nodes", err)
	}
	return result, nil
}

// Count returns the total number of nodes.
func (s *Nodes) Count(ctx context.Context) (int, error) {
	return s.db.count(ctx, "nodes")
}

// ─── Update ──────────────────────────────────────────────────────────────────

// Update applies the provided fields to node id in one transaction.
//
// Scalar fields and metadata are overwritten. Content is appended after a
// blank line when opts.AppendContent is set, otherwise overwritten.
// Dimensions, when provided, replace the whole set. updated_at is always
// refreshed. Mention edges are synchronized after the commit; their
// failures are logged and never fail the update.
func (s *Nodes) Update(ctx context.Context, id int64, p UpdateNodeParams, opts UpdateOptions) (*Node, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, validationError("title cannot be empty")
	}
	var dims []string
	if p.Dimensions != nil {
		dims = SanitizeDimensions(*p.Dimensions)
	}

	var (
		newContent     string
		contentChanged bool
	)
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var existing *string
		err := tx.QueryRowContext(ctx, `SELECT content FROM nodes WHERE id = ?`, id).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("node %d not found", id)
		}
		if err != nil {
			return storeFailure("load node", err)
		}

		now := s.db.timestamp()
		var (
			sets []string
			args []any
		)
		set := func(column string, value any) {
			sets = append(sets, column+" = ?")
			args = append(args, value)
		}

		if p.Title != nil {
			set("title", strings.TrimSpace(*p.Title))
		}
		if p.Description != nil {
			set("description", nullableString(*p.Description))
		}
		if p.Link != nil {
			set("link", nullableString(*p.Link))
		}
		if p.Type != nil {
			set("type", nullableString(*p.Type))
		}
		if p.Chunk != nil {
			set("chunk", nullableString(*p.Chunk))
		}
		if p.Metadata != nil {
			set("metadata", *p.Metadata)
		}
		if p.Content != nil && !(opts.AppendContent && *p.Content == "") {
			newContent = *p.Content
			if opts.AppendContent && derefString(existing) != "" {
				newContent = derefString(existing) + "\n\n" + *p.Content
			}
			set("content", nullableString(newContent))
			contentChanged = true
		}
		set("updated_at", now)
		args = append(args, id)

		if _, err := s.db.execHook(ctx, tx,
			`UPDATE nodes SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
		); err != nil {
			return storeFailure("update node", err)
		}

		if p.Dimensions != nil {
			return s.db.replaceDimensions(ctx, tx, id, dims, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if contentChanged {
		s.resolveMentions(ctx, id, newContent)
	}
	return s.Get(ctx, id)
}

// InsertMention replaces the partially typed trigger at content[start:end]
// of node id with a finished mention token for target, saves the content
// and synchronizes mention edges.
func (s *Nodes) InsertMention(ctx context.Context, id int64, start, end int, targetID int64) (*Node, error) {
	if id == targetID {
		return nil, validationError("node %d cannot mention itself", id)
	}
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	var content string
	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var existing *string
		err := tx.QueryRowContext(ctx, `SELECT content FROM nodes WHERE id = ?`, id).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("node %d not found", id)
		}
		if err != nil {
			return storeFailure("load node", err)
		}

		content, err = mention.Insert(derefString(existing), start, end, target.ID, target.Title)
		if err != nil {
			return validationError("%v", err)
		}
		if _, err := s.db.execHook(ctx, tx,
			`UPDATE nodes SET content = ?, updated_at = ? WHERE id = ?`,
			content, s.db.timestamp(), id,
		); err != nil {
			return storeFailure("update node", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.resolveMentions(ctx, id, content)
	return s.Get(ctx, id)
}

// ─── Delete ──────────────────────────────────────────────────────────────────

// Delete removes a node. Its edges and dimension associations go with it.
func (s *Nodes) Delete(ctx context.Context, id int64) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := requireNode(ctx, tx, id); err != nil {
			return err
		}
		res, err := s.db.execHook(ctx, tx, `DELETE FROM nodes WHERE id = ?`, id)
		if err != nil {
			return storeFailure("delete node", err)
		}
		if !rowsAffected(res) {
			return notFound("node %d not found", id)
		}
		return nil
	})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Nodes) resolveMentions(ctx context.Context, id int64, content string) {
	if s.resolver == nil {
		return
	}
	s.resolver.Sync(ctx, id, content)
}

// requireNode returns a not-found error unless node id exists.
func requireNode(ctx context.Context, q queryer, id int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("node %d not found", id)
	}
	if err != nil {
		return storeFailure("load node", err)
	}
	return nil
}

func (d *DB) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, storeFailure("count "+table, err)
	}
	return n, nil
}

package graph

import "context"

// Overview sizes.
const (
	overviewRecent = 5
	overviewHubs   = 5
)

// Overview returns graph counts, the most recently created nodes and the
// best-connected nodes. Nodes without edges never appear as hubs.
func (s *Nodes) Overview(ctx context.Context) (*Overview, error) {
	var (
		o   Overview
		err error
	)
	if o.NodeCount, err = s.db.count(ctx, "nodes"); err != nil {
		return nil, err
	}
	if o.EdgeCount, err = s.db.count(ctx, "edges"); err != nil {
		return nil, err
	}
	if o.DimensionCount, err = s.db.count(ctx, "dimensions"); err != nil {
		return nil, err
	}

	if o.RecentNodes, err = s.recent(ctx); err != nil {
		return nil, err
	}
	if o.HubNodes, err = s.hubs(ctx); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Nodes) recent(ctx context.Context) ([]NodeSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, type, created_at FROM nodes ORDER BY created_at DESC, id DESC LIMIT ?`,
		overviewRecent)
	if err != nil {
		return nil, storeFailure("load recent nodes", err)
	}
	defer func() { _ = rows.Close() }()

	result := []NodeSummary{}
	for rows.Next() {
		var (
			n   NodeSummary
			typ *string
		)
		if err := rows.Scan(&n.ID, &n.Title, &typ, &n.CreatedAt); err != nil {
			return nil, storeFailure("load recent nodes", err)
		}
		n.Type = derefString(typ)
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("load recent nodes", err)
	}
	return result, nil
}

func (s *Nodes) hubs(ctx context.Context) ([]HubNode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, degree FROM (
			SELECT n.id, n.title,
				(SELECT COUNT(*) FROM edges e WHERE e.from_node_id = n.id) +
				(SELECT COUNT(*) FROM edges e WHERE e.to_node_id = n.id) AS degree
			FROM nodes n
		 )
		 WHERE degree > 0
		 ORDER BY degree DESC, id ASC
		 LIMIT ?`, overviewHubs)
	if err != nil {
		return nil, storeFailure("load hub nodes", err)
	}
	defer func() { _ = rows.Close() }()

	result := []HubNode{}
	for rows.Next() {
		var h HubNode
		if err := rows.Scan(&h.ID, &h.Title, &h.Degree); err != nil {
			return nil, storeFailure("load hub nodes", err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("load hub nodes", err)
	}
	return result, nil
}

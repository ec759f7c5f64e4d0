package graph

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ─── Nodes ───────────────────────────────────────────────────────────────────

// Node is a unit of knowledge with its current dimension set resolved.
type Node struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content,omitempty"`
	Description string   `json:"description,omitempty"`
	Link        string   `json:"link,omitempty"`
	Type        string   `json:"type,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
	Chunk       string   `json:"chunk,omitempty"`
	Dimensions  []string `json:"dimensions"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// CreateNodeParams holds the input for creating a node.
type CreateNodeParams struct {
	Title       string
	Content     string
	Description string
	Link        string
	Type        string
	Metadata    Metadata
	Chunk       string
	Dimensions  []string
}

// UpdateNodeParams holds partial update fields for a node. Nil means untouched.
type UpdateNodeParams struct {
	Title       *string
	Content     *string
	Description *string
	Link        *string
	Type        *string
	Chunk       *string
	Metadata    *Metadata
	Dimensions  *[]string
}

// UpdateOptions controls how content is written by Update.
type UpdateOptions struct {
	// AppendContent appends new content after a blank line instead of
	// overwriting it.
	AppendContent bool
}

// NodeFilter selects a page of nodes.
type NodeFilter struct {
	Search     string
	Dimensions []string
	Limit      int
	Offset     int
}

// NodeSummary is a lightweight node reference used in overviews.
type NodeSummary struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type,omitempty"`
	CreatedAt string `json:"created_at"`
}

// HubNode is a node ranked by its combined in+out edge degree.
type HubNode struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Degree int    `json:"degree"`
}

// Overview aggregates counts, recent nodes and hub nodes.
type Overview struct {
	NodeCount      int           `json:"node_count"`
	EdgeCount      int           `json:"edge_count"`
	DimensionCount int           `json:"dimension_count"`
	RecentNodes    []NodeSummary `json:"recent_nodes"`
	HubNodes       []HubNode     `json:"hub_nodes"`
}

// Metadata is an arbitrary JSON object attached to a node. It is stored as
// JSON text and never handed to callers in serialized form.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	raw, err := textOf(src)
	if err != nil || raw == "" {
		*m = nil
		return err
	}
	out := Metadata{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fmt.Errorf("decoding metadata: %w", err)
	}
	*m = out
	return nil
}

// ─── Edges ───────────────────────────────────────────────────────────────────

// Edge is a directed, explained connection between two nodes.
type Edge struct {
	ID           int64       `json:"id"`
	FromNodeID   int64       `json:"from_node_id"`
	ToNodeID     int64       `json:"to_node_id"`
	Source       string      `json:"source,omitempty"`
	Context      EdgeContext `json:"context"`
	UserFeedback *int64      `json:"user_feedback,omitempty"`
	CreatedAt    string      `json:"created_at"`
}

// EdgeView is an edge seen from one of its endpoints, annotated with the
// other endpoint for display.
type EdgeView struct {
	Edge
	PeerID    int64  `json:"peer_id"`
	PeerTitle string `json:"peer_title"`
	Direction string `json:"direction"` // "outgoing" or "incoming"
}

// CreateEdgeParams holds the input for creating an edge.
type CreateEdgeParams struct {
	FromNodeID  int64
	ToNodeID    int64
	Source      string
	Explanation string
	Type        string
}

// EdgeContext is the JSON object stored with each edge. Keys other than
// explanation and type are carried in Extra and preserved on update.
type EdgeContext struct {
	Explanation string
	Type        string
	Extra       map[string]any
}

// MarshalJSON flattens Extra next to the known keys.
func (c EdgeContext) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["explanation"] = c.Explanation
	if c.Type != "" {
		out["type"] = c.Type
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits known keys from the rest.
func (c *EdgeContext) UnmarshalJSON(b []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = EdgeContext{}
	if v, ok := raw["explanation"].(string); ok {
		c.Explanation = v
	}
	if v, ok := raw["type"].(string); ok {
		c.Type = v
	}
	delete(raw, "explanation")
	delete(raw, "type")
	if len(raw) > 0 {
		c.Extra = raw
	}
	return nil
}

// Value implements driver.Valuer.
func (c EdgeContext) Value() (driver.Value, error) {
	b, err := c.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding edge context: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *EdgeContext) Scan(src any) error {
	raw, err := textOf(src)
	if err != nil || raw == "" {
		*c = EdgeContext{}
		return err
	}
	if err := c.UnmarshalJSON([]byte(raw)); err != nil {
		return fmt.Errorf("decoding edge context: %w", err)
	}
	return nil
}

// ─── Dimensions ──────────────────────────────────────────────────────────────

// Dimension is a named tag in the shared vocabulary.
type Dimension struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPriority  bool   `json:"is_priority"`
	NodeCount   int    `json:"node_count"`
	UpdatedAt   string `json:"updated_at"`
}

// CreateDimensionParams holds the input for creating a dimension.
type CreateDimensionParams struct {
	Name        string
	Description string
	IsPriority  bool
}

// UpdateDimensionParams renames a dimension and/or updates its fields.
type UpdateDimensionParams struct {
	CurrentName string
	NewName     *string
	Description *string
	IsPriority  *bool
}

func textOf(src any) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported JSON column type %T", src)
	}
}

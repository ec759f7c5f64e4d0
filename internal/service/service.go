// Package service is the validated, caller-facing API over the graph stores.
// Both transports (MCP tools and REST) go through it, so input limits are
// enforced in one place before any store call.
package service

import (
	"context"
	"strings"

	"github.com/HendryAvila/mindgraph/internal/graph"
	"go.uber.org/zap"
)

// Boundary limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 25
	MaxListLimit       = 100
	MaxGetIDs          = 10
	DefaultEdgeSource  = "user"
)

// Service groups the graph stores behind validated operations.
type Service struct {
	nodes      *graph.Nodes
	edges      *graph.Edges
	dimensions *graph.Dimensions
	logger     *zap.Logger
}

// New creates a Service.
func New(nodes *graph.Nodes, edges *graph.Edges, dimensions *graph.Dimensions, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{nodes: nodes, edges: edges, dimensions: dimensions, logger: logger.Named("service")}
}

// ─── Nodes ───────────────────────────────────────────────────────────────────

// CreateNodeInput is the input of CreateNode.
type CreateNodeInput struct {
	Title       string         `json:"title" validate:"required,max=160"`
	Content     string         `json:"content" validate:"max=20000"`
	Description string         `json:"description" validate:"max=2000"`
	Link        string         `json:"link" validate:"max=2048"`
	Type        string         `json:"type" validate:"max=64"`
	Chunk       string         `json:"chunk" validate:"max=50000"`
	Metadata    map[string]any `json:"metadata"`
	Dimensions  []string       `json:"dimensions" validate:"min=1,max=5"`
}

// CreateNode validates and stores a new node.
func (s *Service) CreateNode(ctx context.Context, in CreateNodeInput) (*graph.Node, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Dimensions = graph.SanitizeDimensions(in.Dimensions)
	if len(in.Dimensions) == 0 {
		return nil, invalid("at least one dimension is required")
	}
	if err := check(in); err != nil {
		return nil, err
	}
	return s.nodes.Create(ctx, graph.CreateNodeParams{
		Title:       in.Title,
		Content:     in.Content,
		Description: in.Description,
		Link:        in.Link,
		Type:        in.Type,
		Metadata:    in.Metadata,
		Chunk:       in.Chunk,
		Dimensions:  in.Dimensions,
	})
}

// SearchNodesInput is the input of SearchNodes. Limit 0 means
// DefaultSearchLimit.
type SearchNodesInput struct {
	Query      string   `json:"query" validate:"required,max=400"`
	Dimensions []string `json:"dimensions" validate:"max=5"`
	Limit      int      `json:"limit" validate:"min=0,max=25"`
	Offset     int      `json:"offset" validate:"min=0"`
}

// SearchNodes returns a ranked page of nodes matching a text query.
func (s *Service) SearchNodes(ctx context.Context, in SearchNodesInput) ([]graph.Node, error) {
	in.Query = strings.TrimSpace(in.Query)
	if err := check(in); err != nil {
		return nil, err
	}
	if in.Limit == 0 {
		in.Limit = DefaultSearchLimit
	}
	return s.nodes.List(ctx, graph.NodeFilter{
		Search:     in.Query,
		Dimensions: in.Dimensions,
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
}

// ListNodesInput is the input of ListNodes. Limit 0 means the store default.
type ListNodesInput struct {
	Dimensions []string `json:"dimensions" validate:"max=5"`
	Limit      int      `json:"limit" validate:"min=0,max=100"`
	Offset     int      `json:"offset" validate:"min=0"`
}

// ListNodes returns the most recently updated nodes, optionally filtered by
// dimension.
func (s *Service) ListNodes(ctx context.Context, in ListNodesInput) ([]graph.Node, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	return s.nodes.List(ctx, graph.NodeFilter{Dimensions: in.Dimensions, Limit: in.Limit, Offset: in.Offset})
}

// GetNode returns one node.
func (s *Service) GetNode(ctx context.Context, id int64) (*graph.Node, error) {
	if id <= 0 {
		return nil, invalid("id must be greater than 0")
	}
	return s.nodes.Get(ctx, id)
}

// GetNodes returns the existing nodes among ids. Non-positive and repeated
// ids are dropped first; at least one and at most MaxGetIDs must remain.
func (s *Service) GetNodes(ctx context.Context, ids []int64) ([]graph.Node, error) {
	valid := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		valid = append(valid, id)
	}
	if len(valid) == 0 {
		return nil, invalid("at least one valid node id is required")
	}
	if len(valid) > MaxGetIDs {
		return nil, invalid("at most %d node ids can be fetched at once", MaxGetIDs)
	}
	return s.nodes.GetMany(ctx, valid)
}

// UpdateNodeInput is the input of UpdateNode. Nil fields are left alone.
// Content is appended to the existing content unless ReplaceContent is set.
type UpdateNodeInput struct {
	ID             int64           `json:"id" validate:"gt=0"`
	Title          *string         `json:"title" validate:"omitnil,max=160"`
	Content        *string         `json:"content" validate:"omitnil,max=20000"`
	Description    *string         `json:"description" validate:"omitnil,max=2000"`
	Link           *string         `json:"link" validate:"omitnil,max=2048"`
	Type           *string         `json:"type" validate:"omitnil,max=64"`
	Chunk          *string         `json:"chunk" validate:"omitnil,max=50000"`
	Metadata       *graph.Metadata `json:"metadata"`
	Dimensions     *[]string       `json:"dimensions"`
	ReplaceContent bool            `json:"replace_content"`
}

func (in UpdateNodeInput) empty() bool {
	return in.Title == nil && in.Content == nil && in.Description == nil && in.Link == nil &&
		in.Type == nil && in.Chunk == nil && in.Metadata == nil && in.Dimensions == nil
}

// UpdateNode applies a partial update.
func (s *Service) UpdateNode(ctx context.Context, in UpdateNodeInput) (*graph.Node, error) {
	if in.empty() {
		return nil, invalid("at least one field to update is required")
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("title cannot be empty")
		}
		in.Title = &title
	}
	if in.Dimensions != nil {
		dims := graph.SanitizeDimensions(*in.Dimensions)
		if len(dims) == 0 {
			return nil, invalid("at least one dimension is required")
		}
		in.Dimensions = &dims
	}
	if err := check(in); err != nil {
		return nil, err
	}

	return s.nodes.Update(ctx, in.ID, graph.UpdateNodeParams{
		Title:       in.Title,
		Content:     in.Content,
		Description: in.Description,
		Link:        in.Link,
		Type:        in.Type,
		Chunk:       in.Chunk,
		Metadata:    in.Metadata,
		Dimensions:  in.Dimensions,
	}, graph.UpdateOptions{AppendContent: !in.ReplaceContent})
}

// DeleteNode removes a node with its edges and dimension associations.
func (s *Service) DeleteNode(ctx context.Context, id int64) error {
	if id <= 0 {
		return invalid("id must be greater than 0")
	}
	if err := s.nodes.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("node deleted", zap.Int64("id", id))
	return nil
}

// InsertMentionInput is the input of InsertMention. Start and End are byte
// offsets of the trigger text in the node's current content.
type InsertMentionInput struct {
	NodeID   int64 `json:"node_id" validate:"gt=0"`
	TargetID int64 `json:"target_id" validate:"gt=0"`
	Start    int   `json:"start" validate:"min=0"`
	End      int   `json:"end" validate:"min=0,gtefield=Start"`
}

// InsertMention completes a typed trigger into a mention token.
func (s *Service) InsertMention(ctx context.Context, in InsertMentionInput) (*graph.Node, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	return s.nodes.InsertMention(ctx, in.NodeID, in.Start, in.End, in.TargetID)
}

// ─── Edges ───────────────────────────────────────────────────────────────────

// CreateEdgeInput is the input of CreateEdge.
type CreateEdgeInput struct {
	FromNodeID  int64  `json:"from_node_id" validate:"gt=0"`
	ToNodeID    int64  `json:"to_node_id" validate:"gt=0"`
	Explanation string `json:"explanation" validate:"required,max=2000"`
	Type        string `json:"type" validate:"max=64"`
	Source      string `json:"source" validate:"max=64"`
}

// CreateEdge always inserts a new edge, even when one already connects the
// same pair.
func (s *Service) CreateEdge(ctx context.Context, in CreateEdgeInput) (*graph.Edge, error) {
	in.Explanation = strings.TrimSpace(in.Explanation)
	if err := check(in); err != nil {
		return nil, err
	}
	if in.Source == "" {
		in.Source = DefaultEdgeSource
	}
	return s.edges.Create(ctx, graph.CreateEdgeParams{
		FromNodeID:  in.FromNodeID,
		ToNodeID:    in.ToNodeID,
		Source:      in.Source,
		Explanation: in.Explanation,
		Type:        in.Type,
	})
}

// UpdateEdgeInput is the input of UpdateEdge.
type UpdateEdgeInput struct {
	ID          int64  `json:"id" validate:"gt=0"`
	Explanation string `json:"explanation" validate:"required,max=2000"`
}

// UpdateEdge replaces an edge explanation.
func (s *Service) UpdateEdge(ctx context.Context, in UpdateEdgeInput) (*graph.Edge, error) {
	in.Explanation = strings.TrimSpace(in.Explanation)
	if err := check(in); err != nil {
		return nil, err
	}
	return s.edges.Update(ctx, in.ID, in.Explanation)
}

// DeleteEdge removes an edge.
func (s *Service) DeleteEdge(ctx context.Context, id int64) error {
	if id <= 0 {
		return invalid("id must be greater than 0")
	}
	return s.edges.Delete(ctx, id)
}

// GetEdge returns one edge.
func (s *Service) GetEdge(ctx context.Context, id int64) (*graph.Edge, error) {
	if id <= 0 {
		return nil, invalid("id must be greater than 0")
	}
	return s.edges.Get(ctx, id)
}

// QueryEdgesInput is the input of QueryEdges. Limit 0 means the store
// default.
type QueryEdgesInput struct {
	NodeID int64 `json:"node_id" validate:"gt=0"`
	Limit  int   `json:"limit" validate:"min=0,max=50"`
}

// QueryEdges lists the edges touching a node, newest first.
func (s *Service) QueryEdges(ctx context.Context, in QueryEdgesInput) ([]graph.EdgeView, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	return s.edges.ListForNode(ctx, in.NodeID, in.Limit)
}

// ─── Dimensions ──────────────────────────────────────────────────────────────

// CreateDimensionInput is the input of CreateDimension.
type CreateDimensionInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	IsPriority  bool   `json:"is_priority"`
}

// ListDimensions returns the whole vocabulary.
func (s *Service) ListDimensions(ctx context.Context) ([]graph.Dimension, error) {
	return s.dimensions.List(ctx)
}

// CreateDimension adds a dimension.
func (s *Service) CreateDimension(ctx context.Context, in CreateDimensionInput) (*graph.Dimension, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return nil, err
	}
	return s.dimensions.Create(ctx, graph.CreateDimensionParams{
		Name:        in.Name,
		Description: in.Description,
		IsPriority:  in.IsPriority,
	})
}

// UpdateDimensionInput is the input of UpdateDimension.
type UpdateDimensionInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	NewName     *string `json:"new_name" validate:"omitnil,max=100"`
	Description *string `json:"description" validate:"omitnil,max=500"`
	IsPriority  *bool   `json:"is_priority"`
}

// UpdateDimension renames a dimension and/or updates its fields.
func (s *Service) UpdateDimension(ctx context.Context, in UpdateDimensionInput) (*graph.Dimension, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.NewName != nil {
		name := strings.TrimSpace(*in.NewName)
		if name == "" {
			return nil, invalid("new_name cannot be empty")
		}
		in.NewName = &name
	}
	if err := check(in); err != nil {
		return nil, err
	}
	if in.NewName == nil && in.Description == nil && in.IsPriority == nil {
		return nil, invalid("at least one field to update is required")
	}
	return s.dimensions.Update(ctx, graph.UpdateDimensionParams{
		CurrentName: in.Name,
		NewName:     in.NewName,
		Description: in.Description,
		IsPriority:  in.IsPriority,
	})
}

// DeleteDimension removes a dimension from the vocabulary and every node.
func (s *Service) DeleteDimension(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name is required")
	}
	if err := s.dimensions.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info("dimension deleted", zap.String("name", name))
	return nil
}

// ToggleDimensionPriority flips a dimension's priority flag.
func (s *Service) ToggleDimensionPriority(ctx context.Context, name string) (*graph.Dimension, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name is required")
	}
	return s.dimensions.TogglePriority(ctx, name)
}

// ─── Context ─────────────────────────────────────────────────────────────────

// GraphContext is the orientation snapshot given to agents at the start of
// a session.
type GraphContext struct {
	graph.Overview
	PriorityDimensions []graph.Dimension `json:"priority_dimensions"`
}

// Overview returns graph counts, recent nodes and hub nodes.
func (s *Service) Overview(ctx context.Context) (*graph.Overview, error) {
	return s.nodes.Overview(ctx)
}

// Context returns the overview plus the priority dimensions.
func (s *Service) Context(ctx context.Context) (*GraphContext, error) {
	o, err := s.nodes.Overview(ctx)
	if err != nil {
		return nil, err
	}
	dims, err := s.dimensions.List(ctx)
	if err != nil {
		return nil, err
	}
	gc := &GraphContext{Overview: *o, PriorityDimensions: []graph.Dimension{}}
	for _, d := range dims {
		if d.IsPriority {
			gc.PriorityDimensions = append(gc.PriorityDimensions, d)
		}
	}
	return gc, nil
}

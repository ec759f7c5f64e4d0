package graph

import (
	"context"
	"slices"
	"sync"

	"github.com/HendryAvila/mindgraph/internal/mention"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Mention edges carry this source and explanation.
const (
	MentionSource      = "user"
	MentionExplanation = "Referenced via @ mention"
)

// DefaultResolverConcurrency bounds parallel EnsureExists calls per sync.
const DefaultResolverConcurrency = 4

// SyncReport describes one mention synchronization pass.
type SyncReport struct {
	// Referenced lists the distinct node ids found in the content.
	Referenced []int64
	// Created lists targets that got a new edge.
	Created []int64
	// Failed lists targets whose edge could not be ensured.
	Failed []int64
}

// Resolver turns mention tokens in a node's content into edges from that
// node to each referenced node.
type Resolver struct {
	edges       *Edges
	logger      *zap.Logger
	concurrency int
}

// NewResolver creates a resolver. concurrency <= 0 uses
// DefaultResolverConcurrency.
func NewResolver(edges *Edges, concurrency int) *Resolver {
	if concurrency <= 0 {
		concurrency = DefaultResolverConcurrency
	}
	return &Resolver{edges: edges, logger: edges.db.logger.Named("resolver"), concurrency: concurrency}
}

// Sync ensures an edge exists from nodeID to every node mentioned in
// content. Edges for mentions that have since been removed are left alone.
// A failure for one target never prevents the others; failures are logged
// and reported, never returned.
func (r *Resolver) Sync(ctx context.Context, nodeID int64, content string) SyncReport {
	report := SyncReport{Referenced: mention.Parse(content, nodeID)}
	if len(report.Referenced) == 0 {
		return report
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.concurrency)
	for _, target := range report.Referenced {
		g.Go(func() error {
			_, created, err := r.edges.EnsureExists(ctx, CreateEdgeParams{
				FromNodeID:  nodeID,
				ToNodeID:    target,
				Source:      MentionSource,
				Explanation: MentionExplanation,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed = append(report.Failed, target)
				r.logger.Warn("mention edge not synchronized",
					zap.Int64("from", nodeID),
					zap.Int64("to", target),
					zap.String("kind", string(KindOf(err))),
					zap.Error(&Error{Kind: KindSync, Message: "ensure mention edge", Err: err}),
				)
			case created:
				report.Created = append(report.Created, target)
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(report.Created)
	slices.Sort(report.Failed)
	if len(report.Created) > 0 || len(report.Failed) > 0 {
		r.logger.Debug("mentions synchronized",
			zap.Int64("node", nodeID),
			zap.Int("referenced", len(report.Referenced)),
			zap.Int("created", len(report.Created)),
			zap.Int("failed", len(report.Failed)),
		)
	}
	return report
}

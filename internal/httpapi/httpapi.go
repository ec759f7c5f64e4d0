// Package httpapi exposes the graph service over a JSON REST API.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HendryAvila/mindgraph/internal/graph"
	"github.com/HendryAvila/mindgraph/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; the largest valid node is well below it.
const maxBodyBytes = 1 << 20

// Server holds the HTTP handler dependencies.
type Server struct {
	svc            *service.Service
	logger         *zap.Logger
	allowedOrigins []string
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins enables CORS for the given browser origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// New creates a Server.
func New(svc *service.Service, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger.Named("http")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if len(s.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/overview", s.overview)

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", s.listNodes)
			r.Post("/", s.createNode)
			r.Get("/{id}", s.getNode)
			r.Patch("/{id}", s.updateNode)
			r.Delete("/{id}", s.deleteNode)
			r.Get("/{id}/edges", s.nodeEdges)
			r.Post("/{id}/mentions", s.insertMention)
		})

		r.Route("/edges", func(r chi.Router) {
			r.Post("/", s.createEdge)
			r.Get("/{id}", s.getEdge)
			r.Patch("/{id}", s.updateEdge)
			r.Delete("/{id}", s.deleteEdge)
		})

		r.Route("/dimensions", func(r chi.Router) {
			r.Get("/", s.listDimensions)
			r.Post("/", s.createDimension)
			r.Patch("/{name}", s.updateDimension)
			r.Delete("/{name}", s.deleteDimension)
			r.Post("/{name}/priority", s.toggleDimensionPriority)
		})
	})

	return r
}

// requestLogger logs one line per request through zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// ─── Responses ───────────────────────────────────────────────────────────────

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    graph.Kind `json:"kind"`
	Message string     `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(kind graph.Kind) int {
	switch kind {
	case graph.KindValidation:
		return http.StatusBadRequest
	case graph.KindNotFound:
		return http.StatusNotFound
	case graph.KindDuplicateName:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := graph.KindOf(err)
	msg := "unexpected failure"
	var ge *graph.Error
	if errors.As(err, &ge) {
		msg = ge.Message
	}
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: msg}})
}

func badRequest(format string) error {
	return &graph.Error{Kind: graph.KindValidation, Message: format}
}

// ─── Request parsing ─────────────────────────────────────────────────────────

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("id must be a positive integer")
	}
	return id, nil
}

func pathName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest(key + " must be an integer")
	}
	return n, nil
}

// queryList reads repeated keys and comma-separated values alike.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) overview(w http.ResponseWriter, r *http.Request) {
	gc, err := s.svc.Context(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gc)
}

// listNodes handles GET /api/nodes. ?ids= fetches by id, ?q= searches,
// otherwise the most recently updated nodes are listed.
func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dims := queryList(r, "dimensions")

	var nodes []graph.Node
	switch q := r.URL.Query(); {
	case q.Has("ids"):
		var ids []int64
		for _, raw := range queryList(r, "ids") {
			id, _ := strconv.ParseInt(raw, 10, 64)
			ids = append(ids, id)
		}
		nodes, err = s.svc.GetNodes(r.Context(), ids)
	case q.Has("q"):
		nodes, err = s.svc.SearchNodes(r.Context(), service.SearchNodesInput{
			Query: q.Get("q"), Dimensions: dims, Limit: limit, Offset: offset,
		})
	default:
		nodes, err = s.svc.ListNodes(r.Context(), service.ListNodesInput{
			Dimensions: dims, Limit: limit, Offset: offset,
		})
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if nodes == nil {
		nodes = []graph.Node{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes, "count": len(nodes)})
}

func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	var in service.CreateNodeInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.svc.CreateNode(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.svc.GetNode(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in service.UpdateNodeInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.ID = id
	n, err := s.svc.UpdateNode(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteNode(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) nodeEdges(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views, err := s.svc.QueryEdges(r.Context(), service.QueryEdgesInput{NodeID: id, Limit: limit})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if views == nil {
		views = []graph.EdgeView{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"node_id": id, "edges": views, "count": len(views)})
}

func (s *Server) insertMention(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in service.InsertMentionInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.NodeID = id
	n, err := s.svc.InsertMention(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) createEdge(w http.ResponseWriter, r *http.Request) {
	var in service.CreateEdgeInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.CreateEdge(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) getEdge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.GetEdge(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) updateEdge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in service.UpdateEdgeInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.ID = id
	e, err := s.svc.UpdateEdge(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteEdge(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listDimensions(w http.ResponseWriter, r *http.Request) {
	dims, err := s.svc.ListDimensions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if dims == nil {
		dims = []graph.Dimension{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dimensions": dims, "count": len(dims)})
}

func (s *Server) createDimension(w http.ResponseWriter, r *http.Request) {
	var in service.CreateDimensionInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.svc.CreateDimension(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) updateDimension(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateDimensionInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.Name = pathName(r)
	d, err := s.svc.UpdateDimension(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deleteDimension(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteDimension(r.Context(), pathName(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleDimensionPriority(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.ToggleDimensionPriority(r.Context(), pathName(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

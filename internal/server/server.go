// Package server exposes the HTTP API: change enqueueing, live graph reads,
// and archive browsing. Writes are asynchronous by design: a POST answers
// "queued" immediately and the outcome is only observable through later live
// reads or the delta log.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chaincore/internal/blob"
	"chaincore/internal/queue"
	"chaincore/internal/store"
	"chaincore/pkg/domain"
)

// Server wires the HTTP handlers to their collaborators.
type Server struct {
	store          *store.VersionedStore
	queue          queue.Queue
	logger         *zap.Logger
	registry       *prometheus.Registry
	defaultVersion string
}

// New constructs a server. registry may be nil to skip the metrics endpoint.
func New(st *store.VersionedStore, q queue.Queue, logger *zap.Logger, registry *prometheus.Registry, defaultVersion string) *Server {
	if defaultVersion == "" {
		defaultVersion = store.DefaultVersion
	}
	return &Server{store: st, queue: q, logger: logger, registry: registry, defaultVersion: defaultVersion}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router(production bool) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestLogger(s.logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	router.GET("/schema/live", s.getLive(domain.ChangeSchema))
	router.POST("/schema/live/update", s.enqueue(domain.ChangeSchema))
	router.GET("/state/live", s.getLive(domain.ChangeState))
	router.POST("/state/live/update", s.enqueue(domain.ChangeState))

	router.GET("/archive/schema", s.listArchives(domain.ChangeSchema))
	router.GET("/archive/schema/:timestamp", s.getArchive(domain.ChangeSchema))
	router.GET("/archive/state", s.listArchives(domain.ChangeState))
	router.GET("/archive/state/:timestamp", s.getArchive(domain.ChangeState))

	return router
}

func (s *Server) version(c *gin.Context) string {
	if v := c.Query("version"); v != "" {
		return v
	}
	return s.defaultVersion
}

// enqueue accepts a change record, stamps its target graph and version, and
// pushes it onto the shared queue.
func (s *Server) enqueue(kind domain.ChangeType) gin.HandlerFunc {
	status := "Schema update queued"
	if kind == domain.ChangeState {
		status = "State update queued"
	}
	return func(c *gin.Context) {
		var change domain.Change
		if err := c.ShouldBindJSON(&change); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		change.Type = kind
		if change.Version == "" {
			change.Version = s.version(c)
		}
		raw, err := json.Marshal(&change)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode change"})
			return
		}
		if err := s.queue.Push(c.Request.Context(), raw); err != nil {
			s.logger.Error("queue push failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

// getLive serves the raw live graph file for a version; an unwritten version
// reads as the empty node-link document.
func (s *Server) getLive(kind domain.ChangeType) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := s.store.ReadLive(c.Request.Context(), kind, s.version(c))
		if err != nil {
			s.logger.Error("live read failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read live graph"})
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	}
}

func (s *Server) listArchives(kind domain.ChangeType) gin.HandlerFunc {
	return func(c *gin.Context) {
		timestamps, err := s.store.ListArchives(c.Request.Context(), kind, s.version(c))
		if err != nil {
			s.logger.Error("archive list failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list archives"})
			return
		}
		if timestamps == nil {
			timestamps = []int64{}
		}
		c.JSON(http.StatusOK, timestamps)
	}
}

func (s *Server) getArchive(kind domain.ChangeType) gin.HandlerFunc {
	return func(c *gin.Context) {
		ts, err := strconv.ParseInt(c.Param("timestamp"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp must be an integer"})
			return
		}
		data, err := s.store.ReadArchive(c.Request.Context(), kind, s.version(c), ts)
		if errors.Is(err, blob.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "archive not found"})
			return
		}
		if err != nil {
			s.logger.Error("archive read failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read archive"})
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	}
}

// requestLogger logs each request with method, path, status, and latency.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

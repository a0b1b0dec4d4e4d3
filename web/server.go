// ABOUTME: HTTP API server for imports, contact browsing and notes
// ABOUTME: Gin router behind CORS, with request logging and Prometheus metrics
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/importer"
	"github.com/harperreed/cxboard/viz"
)

type Options struct {
	AllowedOrigins []string
	Logger         logrus.FieldLogger
	Now            func() time.Time
	NewID          func() string
}

type Server struct {
	store     db.Store
	importer  *importer.Importer
	generator *viz.GraphGenerator
	log       logrus.FieldLogger
	now       func() time.Time
	newID     func() string
	handler   http.Handler
}

func NewServer(store db.Store, imp *importer.Importer, opts Options) *Server {
	s := &Server{
		store:     store,
		importer:  imp,
		generator: viz.NewGraphGenerator(store),
		log:       opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	})
	s.handler = c.Handler(s.SetupRouter())
	return s
}

func (s *Server) SetupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(s.log), recovery(s.log))

	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/import", s.Import)
	api.GET("/contacts", s.ListContacts)
	api.DELETE("/contacts", s.DeleteAll)
	api.GET("/contacts/:id", s.GetContact)
	api.POST("/contacts/:id/notes", s.CreateNote)
	api.GET("/contacts/:id/graph", s.ContactGraph)
	return r
}

// ServeHTTP makes Server usable directly with httptest and http.Server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("starting web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down web server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) Health(c *gin.Context) {
	if p, ok := s.store.(db.Pinger); ok {
		if err := p.Ready(c.Request.Context()); err != nil {
			s.log.WithError(err).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

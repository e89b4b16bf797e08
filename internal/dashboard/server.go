package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ubilab-escape/operator/internal/platform/logger"
)

// Server is the read-only dashboard HTTP surface: healthz, the last
// snapshot, and an SSE stream of updates. Grounded on the teacher's
// internal/server.NewRouter wiring (gin.Default + gin-contrib/cors),
// trimmed to the dashboard's three anonymous, unauthenticated routes —
// this surface has no login of its own, per spec.md's bus-auth Non-goal.
type Server struct {
	log    *logger.Logger
	hub    *Hub
	engine *gin.Engine
}

// NewServer builds the gin engine and registers routes against hub.
func NewServer(log *logger.Logger, hub *Hub) *Server {
	s := &Server{log: log.With("component", "DashboardServer"), hub: hub}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET"},
		AllowHeaders:    []string{"Content-Type"},
		MaxAge:          time.Hour,
	}))

	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/snapshot", s.handleSnapshot)
	engine.GET("/stream", s.handleStream)

	s.engine = engine
	return s
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	s.log.Info("dashboard listening", "addr", addr)
	return http.ListenAndServe(addr, s.engine)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	snapshot := s.hub.Last()
	if snapshot == nil {
		c.JSON(http.StatusNoContent, nil)
		return
	}
	c.Data(http.StatusOK, "application/json", snapshot)
}

func (s *Server) handleStream(c *gin.Context) {
	client := s.hub.NewClient()
	s.hub.AddClient(client)
	defer s.hub.RemoveClient(client)

	s.hub.ServeHTTP(c.Writer, c.Request, client)
}

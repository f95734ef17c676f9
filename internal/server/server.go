package server

import (
	"bytes"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"artisan-voice-go/internal/export"
	"artisan-voice-go/internal/logger"
	"artisan-voice-go/internal/pipeline"
	"artisan-voice-go/internal/post"
	"artisan-voice-go/internal/store"
	"artisan-voice-go/internal/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Server owns the HTTP surface: routing, CORS and request validation. All
// real work happens in the pipeline and post generator it wraps.
type Server struct {
	pipeline *pipeline.Pipeline
	posts    *post.Generator
	records  *store.Store
	log      *logrus.Entry
}

func New(pl *pipeline.Pipeline, posts *post.Generator, records *store.Store) *Server {
	return &Server{
		pipeline: pl,
		posts:    posts,
		records:  records,
		log:      logger.WithComponent("server"),
	}
}

// Router builds the gin engine with CORS open to all origins, matching the
// browser front end this service is paired with.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.POST("/process-audio-upload", s.handleUpload)
	r.POST("/api/generate_post", s.handleGeneratePost)
	r.GET("/api/listings", s.handleListListings)
	r.GET("/api/listings/:id", s.handleGetListing)
	r.GET("/api/export", s.handleExport)

	return r
}

func (s *Server) handleUpload(c *gin.Context) {
	log := logger.New().WithRequest(c.Request).WithField("handler", "process-audio-upload")

	file, err := c.FormFile("audio_file")
	if err != nil {
		log.Warn("missing audio file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing audio file"})
		return
	}
	if file.Filename == "" {
		log.Warn("empty audio filename")
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected audio file"})
		return
	}

	src, err := file.Open()
	if err != nil {
		log.WithError(err).Error("failed to open upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	rec, err := s.pipeline.ProcessUpload(c.Request.Context(), file.Filename, src)
	if err != nil {
		log.WithError(err).Error("pipeline failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleGeneratePost(c *gin.Context) {
	log := logger.New().WithRequest(c.Request).WithField("handler", "generate_post")

	var req types.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.WithError(err).Warn("bad post request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.PostType == "" {
		req.PostType = "instagram"
	}

	// remote failures surface as sentinel text in a normal 200 body
	generated := s.posts.Build(c.Request.Context(), req.Text, req.PostType)
	c.JSON(http.StatusOK, types.PostResponse{Post: generated})
}

func (s *Server) handleListListings(c *gin.Context) {
	recs, err := s.records.List()
	if err != nil {
		s.log.WithError(err).Error("listing records failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []types.ListingRecord{}
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) handleGetListing(c *gin.Context) {
	rec, err := s.records.Load(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleExport(c *gin.Context) {
	recs, err := s.records.List()
	if err != nil {
		s.log.WithError(err).Error("export: listing records failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, recs); err != nil {
		s.log.WithError(err).Error("export: workbook build failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="listings.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

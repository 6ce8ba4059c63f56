package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/chaos-io/rembg/asset"
	"github.com/chaos-io/rembg/config"
	"github.com/chaos-io/rembg/rembg"
	"github.com/chaos-io/rembg/util"
)

type Server struct {
	config *config.Environment
	logger *slog.Logger
	router *gin.Engine
}

func NewServer(cfg *config.Environment, logger *slog.Logger) *Server {
	if cfg.Environment == "prod" || cfg.Environment == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: cfg,
		logger: logger,
		router: gin.New(),
	}
	s.setupMiddleware()
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api/v1", RequestSizeLimit(s.config.MaxUploadBytes))
	api.POST("/remove", s.handleRemove)
	api.POST("/inline", s.handleInline)
}

// Start 启动 HTTP 服务，ctx 结束后优雅关闭
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", httpServer.Addr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server shutdown complete")
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleRemove 返回抠图后的 PNG
func (s *Server) handleRemove(c *gin.Context) {
	k, ok := s.keyUpload(c)
	if !ok {
		return
	}
	c.Header("X-Removed-Pixels", strconv.Itoa(k.removed))
	c.Data(http.StatusOK, "image/png", k.png)
}

type inlineResponse struct {
	ID      string `json:"id"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Removed int    `json:"removed"`
	DataURI string `json:"dataUri"`
}

// handleInline 返回抠图结果的 data URI
func (s *Server) handleInline(c *gin.Context) {
	k, ok := s.keyUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, inlineResponse{
		ID:      c.GetString(requestIDKey),
		Width:   k.width,
		Height:  k.height,
		Removed: k.removed,
		DataURI: asset.DataURI("image/png", k.png),
	})
}

type keyed struct {
	png     []byte
	width   int
	height  int
	removed int
}

// keyUpload 读取 multipart 字段 image，按表单参数抠图。失败时已写入错误响应。
func (s *Server) keyUpload(c *gin.Context) (*keyed, bool) {
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		abortWithError(c, http.StatusBadRequest, "missing multipart field \"image\"")
		return nil, false
	}

	policy, err := s.policyFromForm(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		abortWithError(c, http.StatusBadRequest, "cannot read upload")
		return nil, false
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		_ = c.Error(err)
		abortWithError(c, http.StatusBadRequest, "cannot read upload")
		return nil, false
	}

	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		abortWithError(c, http.StatusUnsupportedMediaType, "upload is not an image: "+mt.String())
		return nil, false
	}

	img, err := util.DecodeImage(bytes.NewReader(data), fh.Filename)
	if err != nil {
		_ = c.Error(err)
		abortWithError(c, http.StatusUnprocessableEntity, "cannot decode image")
		return nil, false
	}

	return s.key(c, policy, img)
}

func (s *Server) key(c *gin.Context, policy rembg.Policy, img image.Image) (*keyed, bool) {
	out, removed, err := rembg.NewKeyRemover(policy).Key(c.Request.Context(), img)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, rembg.ErrEmptyImage) {
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
			return nil, false
		}
		abortWithError(c, http.StatusInternalServerError, "background removal failed")
		return nil, false
	}

	data, err := util.EncodePNG(out)
	if err != nil {
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, "png encode failed")
		return nil, false
	}

	return &keyed{
		png:     data,
		width:   out.Bounds().Dx(),
		height:  out.Bounds().Dy(),
		removed: removed,
	}, true
}

// policyFromForm 解析 mode / threshold，缺省值来自配置
func (s *Server) policyFromForm(c *gin.Context) (rembg.Policy, error) {
	mode, err := rembg.ParseMode(c.PostForm("mode"))
	if err != nil {
		return rembg.Policy{}, err
	}

	threshold := s.config.Threshold
	if v := c.PostForm("threshold"); v != "" {
		threshold, err = strconv.Atoi(v)
		if err != nil || threshold < 0 || threshold > 256 {
			return rembg.Policy{}, fmt.Errorf("threshold must be an integer between 0 and 256")
		}
	}

	return rembg.Policy{
		Mode:      mode,
		Threshold: threshold,
		Bounds:    s.config.GreenBounds(),
	}, nil
}

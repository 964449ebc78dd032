// Package web assembles the blog's HTTP server: middleware chain, embedded
// templates and assets, controllers and the metrics and health endpoints.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/inkpost/blog/config"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/util/common"
	"github.com/inkpost/blog/util/gravatar"
	"github.com/inkpost/blog/util/metrics"
	"github.com/inkpost/blog/web/controller"
	"github.com/inkpost/blog/web/locale"
	"github.com/inkpost/blog/web/mail"
	"github.com/inkpost/blog/web/middleware"
	"github.com/inkpost/blog/web/service"
	"github.com/inkpost/blog/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

//go:embed translation/*
var i18nFS embed.FS

var startTime = time.Now()

type wrapAssetsFS struct {
	embed.FS
}

func (f *wrapAssetsFS) Open(name string) (fs.File, error) {
	file, err := f.FS.Open("assets/" + name)
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFile{File: file}, nil
}

type wrapAssetsFile struct {
	fs.File
}

func (f *wrapAssetsFile) Stat() (fs.FileInfo, error) {
	info, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return &wrapAssetsFileInfo{FileInfo: info}, nil
}

type wrapAssetsFileInfo struct {
	fs.FileInfo
}

// ModTime pins embedded files to process start so browsers can cache them.
func (f *wrapAssetsFileInfo) ModTime() time.Time {
	return startTime
}

// Server is the blog's web server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	db       *gorm.DB
	mailer   mail.Sender
	registry *prometheus.Registry
	metrics  *metrics.Collector
	limiter  *middleware.RateLimiter

	index   *controller.IndexController
	user    *controller.UserController
	post    *controller.PostController
	contact *controller.ContactController

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server backed by db.
func NewServer(db *gorm.DB) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Server{
		db:       db,
		registry: registry,
		metrics:  metrics.NewCollector(registry),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetMailer replaces the contact notification sender configured from the environment.
func (s *Server) SetMailer(sender mail.Sender) {
	s.mailer = sender
}

func (s *Server) getMailer() mail.Sender {
	if s.mailer != nil {
		return s.mailer
	}
	cfg := config.GetMailConfig()
	m := mail.NewFromConfig(&cfg, s.metrics)
	if !cfg.HasSMTP() {
		logger.Warning("MAIL_EMAIL/MAIL_PASSWORD not set, contact form mails will fail")
	}
	return m
}

// getHtmlFiles lists the templates under web/html on disk. Used only in debug mode.
func (s *Server) getHtmlFiles() ([]string, error) {
	files := make([]string, 0)
	dir, _ := os.Getwd()
	err := fs.WalkDir(os.DirFS(dir), "web/html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// getHtmlTemplate parses the embedded templates.
func (s *Server) getHtmlTemplate(funcMap template.FuncMap) (*template.Template, error) {
	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(htmlFS, "html", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			newT, err := t.ParseFS(htmlFS, path+"/*.html")
			if err != nil {
				// ignore folders without matches
				return nil
			}
			t = newT
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Server) funcMap() template.FuncMap {
	sanitizer := service.NewBodySanitizer()
	return template.FuncMap{
		"i18n":     locale.Localize,
		"gravatar": gravatar.For,
		"postBody": func(body string) template.HTML {
			return template.HTML(sanitizer.Sanitize(body))
		},
	}
}

func (s *Server) sessionStore() sessions.Store {
	store := cookie.NewStore([]byte(config.GetSessionSecret()))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   config.GetSessionMaxAge(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// initRouter builds the gin engine: middleware, templates, static assets and controllers.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	if err := locale.InitLocalizer(i18nFS); err != nil {
		return nil, err
	}
	controller.UseFormFieldNames()

	engine := gin.New()
	if err := engine.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	s.limiter = middleware.NewRateLimiter(
		middleware.DefaultRateLimitConfig(config.GetRateLimit()), s.metrics, controller.RenderError)

	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(s.metrics),
		sessions.Sessions(session.CookieName, s.sessionStore()),
		locale.LocalizerMiddleware(),
		middleware.Recovery(controller.RenderError),
		middleware.SecurityHeaders(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
		middleware.CurrentUser(service.NewUserService(s.db)),
		s.limiter.Middleware(),
		middleware.CSRF(controller.RenderError),
	)

	funcMap := s.funcMap()
	engine.SetFuncMap(funcMap)

	var files []string
	if config.IsDebug() {
		// templates and assets are served from disk so edits show without a rebuild
		files, _ = s.getHtmlFiles()
	}
	if len(files) > 0 {
		engine.LoadHTMLFiles(files...)
		engine.StaticFS("/assets", http.FS(os.DirFS("web/assets")))
	} else {
		tpl, err := s.getHtmlTemplate(funcMap)
		if err != nil {
			return nil, err
		}
		engine.SetHTMLTemplate(tpl)
		engine.StaticFS("/assets", http.FS(&wrapAssetsFS{FS: assetsFS}))
	}

	engine.GET("/health", s.health)
	if config.IsMetricsEnabled() {
		engine.GET("/metrics", gin.WrapH(metrics.Handler(s.registry)))
	}

	deps := &controller.Deps{
		Users:    service.NewUserService(s.db),
		Posts:    service.NewPostService(s.db),
		Comments: service.NewCommentService(s.db),
		Contact:  service.NewContactService(s.getMailer()),
		Metrics:  s.metrics,
	}

	g := engine.Group("/")
	s.index = controller.NewIndexController(g, deps)
	s.user = controller.NewUserController(g, deps)
	s.post = controller.NewPostController(g, deps)
	s.contact = controller.NewContactController(g, deps)

	engine.NoRoute(func(c *gin.Context) {
		controller.RenderError(c, http.StatusNotFound)
	})

	return engine, nil
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	db := "ok"
	if sqlDB, err := s.db.DB(); err != nil {
		status, db = http.StatusServiceUnavailable, err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		status, db = http.StatusServiceUnavailable, err.Error()
	}
	c.JSON(status, gin.H{
		"name":     config.GetName(),
		"version":  config.GetVersion(),
		"database": db,
		"uptime":   time.Since(startTime).Round(time.Second).String(),
	})
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", config.GetListenAddr())
	if err != nil {
		return err
	}
	logger.Info("Web server running HTTP on", listener.Addr())

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("web server stopped:", err)
		}
	}()

	return nil
}

// Stop shuts the server down, waiting up to ten seconds for open requests.
func (s *Server) Stop() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	}
	if s.listener != nil {
		err2 = s.listener.Close()
		if isClosedErr(err2) {
			err2 = nil
		}
	}
	s.cancel()
	return common.Combine(err1, err2)
}

func isClosedErr(err error) bool {
	return err != nil && errors.Is(err, net.ErrClosed)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }

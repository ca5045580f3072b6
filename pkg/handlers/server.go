package handlers

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const sessionName = "blogfolio_session"

type ServerOptions struct {
	SessionSecret string
	PublicDir     string
	ResumeFile    string
	// HookEnabled registers the push hook route. It needs an API key.
	HookEnabled bool
	Debug       bool
}

// NewServer creates the HTTP engine with every route configured.
func NewServer(h *Handler, auth *Auth, opts ServerOptions, logger *logrus.Logger) *gin.Engine {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output: logger.Writer(),
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))

	setupRoutes(r, h, auth, opts)
	return r
}

func setupRoutes(r *gin.Engine, h *Handler, auth *Auth, opts ServerOptions) {
	if opts.PublicDir != "" {
		r.Static("/uploads", filepath.Join(opts.PublicDir, "uploads"))
		if opts.ResumeFile != "" {
			r.StaticFile("/"+opts.ResumeFile, filepath.Join(opts.PublicDir, opts.ResumeFile))
		}
	}

	r.GET("/sitemap.xml", h.Sitemap)
	r.GET("/rss.xml", h.RSS)

	// Auth
	r.GET("/login/github", auth.GithubLogin)
	r.GET("/auth/callback", auth.AuthCallback)
	r.GET("/logout", auth.Logout)

	api := r.Group("/api")
	{
		api.GET("/status", h.Status)
		api.GET("/notes", h.Notes)
		api.GET("/featured", h.Featured)
		api.GET("/blogs", h.ListBlogs)
		api.GET("/blogs/:slug", h.GetBlog)
		api.GET("/photos", h.ListPhotos)
		api.POST("/subscribe", h.Subscribe)
		api.POST("/contact", h.Contact)
	}

	authorized := r.Group("/api")
	authorized.Use(auth.AuthRequired)
	{
		authorized.GET("/admin/me", auth.Me)
		authorized.GET("/admin/blogs", h.ListArticles)
		authorized.GET("/admin/article", h.GetArticle)
		authorized.POST("/admin/drafts", h.SaveDraft)
		authorized.PATCH("/admin/drafts", h.TogglePublish)
		authorized.POST("/admin/diff", h.DiffDraft)
		authorized.POST("/notify-subscribers", h.NotifySubscribers)
		authorized.GET("/admin/subscribers/count", h.SubscriberCount)

		authorized.POST("/upload-resume", h.UploadResume)
		authorized.GET("/admin/photos", h.AdminListPhotos)
		authorized.POST("/admin/photos", h.CreatePhoto)
		authorized.PATCH("/admin/photos/:id", h.UpdatePhoto)
		authorized.DELETE("/admin/photos/:id", h.DeletePhoto)
		authorized.POST("/admin/photos/:id/visibility", h.SetPhotoVisibility)

		authorized.POST("/admin/sync", h.HandleSync)
		authorized.POST("/admin/publish", h.HandlePublish)
	}

	if opts.HookEnabled {
		hooks := r.Group("/api/hooks")
		hooks.Use(auth.APIKeyRequired)
		hooks.POST("/push", h.PushHook)
	}

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

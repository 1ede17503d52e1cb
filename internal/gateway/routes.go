package gateway

import (
	"github.com/gin-gonic/gin"
	"github.com/rbxsync/rbxsync-server/internal/auth"
)

// RegisterRoutes mounts the plugin transport and the control surface on
// router. The plugin routes are unauthenticated; the control routes require
// a token with the matching scope when jwtManager is non-nil.
func RegisterRoutes(router *gin.Engine, h *Handler, stream *EventStream, jwtManager *auth.JWTManager) {
	// Plugin transport
	router.GET("/health", h.Health)
	router.GET("/request", h.PollRequest)
	router.POST("/response", h.PostResponse)
	router.POST("/extract/start", h.StartExtraction)
	router.POST("/extract/chunk", h.ReceiveChunk)
	router.GET("/extract/status", h.ExtractionStatus)

	// Control surface
	protected := router.Group("")
	protected.Use(auth.RequireAuth(jwtManager))

	extract := protected.Group("/extract", auth.RequireScope(auth.ScopeExtract))
	extract.POST("/finalize", h.FinalizeExtraction)
	extract.POST("/reset", h.ResetExtraction)

	protected.POST("/sync", auth.RequireScope(auth.ScopeSync), h.Sync)

	exec := protected.Group("", auth.RequireScope(auth.ScopeExec))
	exec.POST("/run", h.RunCode)
	exec.POST("/insert", h.InsertModel)

	git := protected.Group("/git", auth.RequireScope(auth.ScopeSync))
	git.POST("/status", h.GitStatus)
	git.POST("/commit", h.GitCommit)

	harness := protected.Group("/harness", auth.RequireScope(auth.ScopeSync))
	harness.POST("/init", h.HarnessInit)
	harness.POST("/session/start", h.HarnessSessionStart)
	harness.POST("/session/end", h.HarnessSessionEnd)
	harness.POST("/feature/update", h.HarnessFeatureUpdate)
	harness.POST("/status", h.HarnessStatus)

	protected.GET("/events", stream.Stream)
}

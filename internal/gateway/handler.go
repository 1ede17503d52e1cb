package gateway

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rbxsync/rbxsync-server/internal/broker"
	"github.com/rbxsync/rbxsync-server/internal/extraction"
	"github.com/rbxsync/rbxsync-server/internal/harness"
	"github.com/rbxsync/rbxsync-server/internal/models"
	"github.com/rbxsync/rbxsync-server/internal/orchestration"
	"github.com/rbxsync/rbxsync-server/internal/vcs"
)

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	broker      *broker.Broker
	extraction  *extraction.Manager
	service     *orchestration.Service
	git         *vcs.Git
	harness     *harness.Store
	version     string
	pollTimeout time.Duration
}

// Config holds handler settings.
type Config struct {
	Version string
	// PollTimeout is the long-poll ceiling of GET /request.
	PollTimeout time.Duration
}

// NewHandler creates a new gateway handler
func NewHandler(b *broker.Broker, em *extraction.Manager, svc *orchestration.Service, git *vcs.Git, hs *harness.Store, cfg Config) *Handler {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 15 * time.Second
	}
	return &Handler{
		broker:      b,
		extraction:  em,
		service:     svc,
		git:         git,
		harness:     hs,
		version:     cfg.Version,
		pollTimeout: cfg.PollTimeout,
	}
}

// PollRequest godoc
// @Summary Long-poll for a plugin command
// @Description Waits up to the poll timeout for a queued command
// @Tags plugin
// @Produce json
// @Success 200 {object} models.PluginRequest
// @Success 204 "No command queued"
// @Router /request [get]
func (h *Handler) PollRequest(c *gin.Context) {
	req, ok := h.broker.Poll(c.Request.Context(), h.pollTimeout)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	// Payloads carry user strings; keep < > & as sent.
	c.PureJSON(http.StatusOK, req)
}

// PostResponse godoc
// @Summary Deliver a plugin response
// @Tags plugin
// @Accept json
// @Produce json
// @Param request body models.PluginResponse true "Response"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} models.ErrorResponse
// @Router /response [post]
func (h *Handler) PostResponse(c *gin.Context) {
	var resp models.PluginResponse
	if err := c.ShouldBindJSON(&resp); err != nil {
		bindError(c, err)
		return
	}

	if !h.broker.Deliver(resp) {
		log.Printf(`{"level":"debug","message":"discarding response for unknown request","request_id":"%s"}`, resp.ID)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// StartExtraction godoc
// @Summary Start a full extraction
// @Tags extraction
// @Accept json
// @Produce json
// @Param request body models.ExtractStartRequest false "Extraction options"
// @Success 200 {object} models.ExtractStartResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /extract/start [post]
func (h *Handler) StartExtraction(c *gin.Context) {
	var req models.ExtractStartRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}

	id, err := h.extraction.Start(c.Request.Context(), req.Payload())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ExtractStartResponse{SessionID: id, Status: "started"})
}

// ReceiveChunk godoc
// @Summary Upload one extraction chunk
// @Tags extraction
// @Accept json
// @Produce json
// @Param request body models.ExtractChunkRequest true "Chunk"
// @Success 200 {object} models.ExtractChunkResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /extract/chunk [post]
func (h *Handler) ReceiveChunk(c *gin.Context) {
	var req models.ExtractChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	received, total, err := h.extraction.ReceiveChunk(c.Request.Context(), req.SessionID, req.ChunkIndex, req.TotalChunks, req.Data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ExtractChunkResponse{Received: received, Total: total})
}

// ExtractionStatus godoc
// @Summary Extraction progress
// @Tags extraction
// @Produce json
// @Success 200 {object} models.ExtractStatusResponse
// @Router /extract/status [get]
func (h *Handler) ExtractionStatus(c *gin.Context) {
	st, ok := h.extraction.Status()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"sessionId": nil, "status": models.ExtractStatusNoSession})
		return
	}
	c.JSON(http.StatusOK, models.ExtractStatusResponse{
		SessionID:      st.SessionID,
		State:          string(st.State),
		ChunksReceived: st.ChunksReceived,
		TotalChunks:    st.TotalChunks,
		Complete:       st.Complete,
	})
}

// FinalizeExtraction godoc
// @Summary Write a complete extraction to disk
// @Tags extraction
// @Accept json
// @Produce json
// @Param request body models.ExtractFinalizeRequest true "Session and project"
// @Success 200 {object} models.ExtractFinalizeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /extract/finalize [post]
func (h *Handler) FinalizeExtraction(c *gin.Context) {
	var req models.ExtractFinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.extraction.Finalize(c.Request.Context(), req.SessionID, req.ProjectDir)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ExtractFinalizeResponse{
		Success:      true,
		FilesWritten: res.FilesWritten,
		Instances:    res.Instances,
		Warnings:     res.Warnings,
	})
}

// ResetExtraction godoc
// @Summary Abandon the current extraction
// @Tags extraction
// @Produce json
// @Success 200 {object} models.ExtractResetResponse
// @Security BearerAuth
// @Router /extract/reset [post]
func (h *Handler) ResetExtraction(c *gin.Context) {
	id, err := h.extraction.Reset(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ExtractResetResponse{Success: true, SessionID: id})
}

// Sync godoc
// @Summary Push local changes to the host
// @Description Operations the plugin could not apply are listed in errors with success=false
// @Tags sync
// @Accept json
// @Produce json
// @Param request body models.SyncRequest true "Project"
// @Success 200 {object} models.SyncResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /sync [post]
func (h *Handler) Sync(c *gin.Context) {
	var req models.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if info, err := os.Stat(req.ProjectDir); err != nil || !info.IsDir() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Project directory not found", Code: models.ErrCodeNotFound})
		return
	}

	result, err := h.service.Sync(c.Request.Context(), req)
	var partial *models.PartialBatchError
	if err != nil && !(errors.As(err, &partial) && result != nil) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunCode godoc
// @Summary Run Luau in the host
// @Tags exec
// @Accept json
// @Produce json
// @Param request body models.RunCodeRequest true "Code"
// @Success 200 {object} models.RunCodeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /run [post]
func (h *Handler) RunCode(c *gin.Context) {
	var req models.RunCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	output, err := h.service.RunCode(c.Request.Context(), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.RunCodeResponse{Success: true, Output: output})
}

// InsertModel godoc
// @Summary Insert a marketplace model
// @Tags exec
// @Accept json
// @Produce json
// @Param request body models.InsertModelRequest true "Asset"
// @Success 200 {object} models.InsertModelResult
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /insert [post]
func (h *Handler) InsertModel(c *gin.Context) {
	var req models.InsertModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.service.InsertModel(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Health godoc
// @Summary Server health
// @Tags plugin
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:          "ok",
		Version:         h.version,
		PluginConnected: h.broker.Connected(h.pollTimeout + 5*time.Second),
		QueueDepth:      h.broker.QueueLen(),
		PendingRequests: h.broker.Pending(),
	})
}

package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rbxsync/rbxsync-server/internal/harness"
	"github.com/rbxsync/rbxsync-server/internal/vcs"
)

// GitStatus godoc
// @Summary Git status of a project
// @Tags git
// @Accept json
// @Produce json
// @Param request body vcs.StatusRequest true "Project"
// @Success 200 {object} vcs.Status
// @Security BearerAuth
// @Router /git/status [post]
func (h *Handler) GitStatus(c *gin.Context) {
	var req vcs.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	st, err := h.git.Status(c.Request.Context(), req.ProjectDir)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GitCommit godoc
// @Summary Commit project changes
// @Description Git failures are reported with success=false and the git output
// @Tags git
// @Accept json
// @Produce json
// @Param request body vcs.CommitRequest true "Commit"
// @Success 200 {object} vcs.CommitResult
// @Security BearerAuth
// @Router /git/commit [post]
func (h *Handler) GitCommit(c *gin.Context) {
	var req vcs.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.git.Commit(c.Request.Context(), req.ProjectDir, req.Message, req.Files)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func bindHarness(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
		return false
	}
	return true
}

// HarnessInit godoc
// @Summary Initialize the development harness
// @Tags harness
// @Accept json
// @Produce json
// @Param request body harness.InitRequest true "Game"
// @Success 200 {object} harness.InitResult
// @Failure 400 {object} map[string]interface{}
// @Security BearerAuth
// @Router /harness/init [post]
func (h *Handler) HarnessInit(c *gin.Context) {
	var req harness.InitRequest
	if !bindHarness(c, &req) {
		return
	}

	res, err := h.harness.Init(req)
	if err != nil {
		writeHarnessError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HarnessSessionStart godoc
// @Summary Start a development session
// @Tags harness
// @Accept json
// @Produce json
// @Param request body harness.SessionStartRequest true "Session"
// @Success 200 {object} harness.SessionStartResult
// @Failure 400 {object} map[string]interface{}
// @Security BearerAuth
// @Router /harness/session/start [post]
func (h *Handler) HarnessSessionStart(c *gin.Context) {
	var req harness.SessionStartRequest
	if !bindHarness(c, &req) {
		return
	}

	res, err := h.harness.StartSession(req)
	if err != nil {
		writeHarnessError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HarnessSessionEnd godoc
// @Summary End a development session
// @Tags harness
// @Accept json
// @Produce json
// @Param request body harness.SessionEndRequest true "Session"
// @Success 200 {object} harness.SessionEndResult
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /harness/session/end [post]
func (h *Handler) HarnessSessionEnd(c *gin.Context) {
	var req harness.SessionEndRequest
	if !bindHarness(c, &req) {
		return
	}

	sess, err := h.harness.EndSession(req)
	if err != nil {
		writeHarnessError(c, err)
		return
	}
	c.JSON(http.StatusOK, harness.SessionEndResult{Success: true, Message: "Session ended successfully.", Session: sess})
}

// HarnessFeatureUpdate godoc
// @Summary Create or update a feature
// @Tags harness
// @Accept json
// @Produce json
// @Param request body harness.FeatureUpdate true "Feature"
// @Success 200 {object} harness.FeatureResult
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /harness/feature/update [post]
func (h *Handler) HarnessFeatureUpdate(c *gin.Context) {
	var req harness.FeatureUpdate
	if !bindHarness(c, &req) {
		return
	}

	res, err := h.harness.UpdateFeature(req)
	if err != nil {
		writeHarnessError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HarnessStatus godoc
// @Summary Harness state of a project
// @Tags harness
// @Accept json
// @Produce json
// @Param request body harness.StatusRequest true "Project"
// @Success 200 {object} harness.Status
// @Security BearerAuth
// @Router /harness/status [post]
func (h *Handler) HarnessStatus(c *gin.Context) {
	var req harness.StatusRequest
	if !bindHarness(c, &req) {
		return
	}

	st, err := h.harness.Status(req.ProjectDir)
	if err != nil {
		writeHarnessError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

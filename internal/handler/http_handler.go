package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/report"
	"github.com/talhadevelopes/a11yguard-sub001/internal/service"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/middleware"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/response"
)

// Handler handles REST requests.
type Handler struct {
	chat           service.ChatService
	presence       service.PresenceService
	websites       service.WebsiteService
	snapshots      service.SnapshotService
	reports        service.ReportService
	authMiddleware *middleware.AuthMiddleware
}

func NewHandler(
	chat service.ChatService,
	presence service.PresenceService,
	websites service.WebsiteService,
	snapshots service.SnapshotService,
	reports service.ReportService,
	authMiddleware *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		chat:           chat,
		presence:       presence,
		websites:       websites,
		snapshots:      snapshots,
		reports:        reports,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all authenticated API routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.authMiddleware.RequireAuth())
	{
		messages := api.Group("/messages")
		{
			messages.GET("/group", h.GroupHistory)
			messages.GET("/dm/:peerMemberId", h.DMHistory)
		}

		api.GET("/presence/online", h.ListOnline)

		websites := api.Group("/websites")
		{
			websites.GET("", h.ListWebsites)
			websites.POST("", h.CreateWebsite)
			websites.POST("/:id/analysis", h.SaveAnalysis)
			websites.GET("/:id/accessibility", h.GetResults)
			websites.POST("/:id/report", h.GenerateReport)
		}

		snapshots := api.Group("/snapshots")
		{
			snapshots.POST("", h.CreateSnapshot)
			snapshots.GET("", h.ListSnapshots)
		}
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

func (h *Handler) GroupHistory(c *gin.Context) {
	q, ok := historyQuery(c)
	if !ok {
		return
	}
	msgs, err := h.chat.GroupHistory(c.Request.Context(), middleware.GetOrganizationID(c), q)
	if err != nil {
		h.fail(c, err, "failed to list messages")
		return
	}
	response.Success(c, emptyIfNil(msgs))
}

func (h *Handler) DMHistory(c *gin.Context) {
	q, ok := historyQuery(c)
	if !ok {
		return
	}
	msgs, err := h.chat.DMHistory(c.Request.Context(),
		middleware.GetOrganizationID(c), middleware.GetMemberID(c), c.Param("peerMemberId"), q)
	if err != nil {
		h.fail(c, err, "failed to list messages")
		return
	}
	response.Success(c, emptyIfNil(msgs))
}

func (h *Handler) ListOnline(c *gin.Context) {
	online, err := h.presence.ListOnline(c.Request.Context(), middleware.GetOrganizationID(c))
	if err != nil {
		h.fail(c, err, "failed to list online members")
		return
	}
	response.Success(c, gin.H{"online": online})
}

func (h *Handler) ListWebsites(c *gin.Context) {
	websites, err := h.websites.List(c.Request.Context(), middleware.GetOrganizationID(c))
	if err != nil {
		h.fail(c, err, "failed to list websites")
		return
	}
	response.Success(c, websites)
}

func (h *Handler) CreateWebsite(c *gin.Context) {
	var req domain.CreateWebsiteRequest
	if !bindJSON(c, &req) {
		return
	}
	website, err := h.websites.Create(c.Request.Context(), middleware.GetOrganizationID(c), &req)
	if err != nil {
		h.fail(c, err, "failed to create website")
		return
	}
	response.Created(c, website)
}

func (h *Handler) CreateSnapshot(c *gin.Context) {
	var req domain.CreateSnapshotRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.snapshots.Create(c.Request.Context(), middleware.GetOrganizationID(c), &req)
	if err != nil {
		h.fail(c, err, "failed to create snapshot")
		return
	}
	response.Created(c, view)
}

func (h *Handler) ListSnapshots(c *gin.Context) {
	var req domain.ListSnapshotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	views, err := h.snapshots.List(c.Request.Context(), middleware.GetOrganizationID(c), req.WebsiteID, req.Limit)
	if err != nil {
		h.fail(c, err, "failed to list snapshots")
		return
	}
	response.Success(c, views)
}

func (h *Handler) SaveAnalysis(c *gin.Context) {
	var req domain.SaveAnalysisRequest
	if !bindJSON(c, &req) {
		return
	}
	results, err := h.snapshots.SaveAnalysis(c.Request.Context(), middleware.GetOrganizationID(c), c.Param("id"), &req)
	if err != nil {
		h.fail(c, err, "failed to save analysis")
		return
	}
	response.Success(c, results)
}

func (h *Handler) GetResults(c *gin.Context) {
	org := middleware.GetOrganizationID(c)
	if _, err := h.websites.Get(c.Request.Context(), org, c.Param("id")); err != nil {
		h.fail(c, err, "failed to load website")
		return
	}
	results, err := h.snapshots.Results(c.Request.Context(), org, c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to load accessibility results")
		return
	}
	response.Success(c, results)
}

func (h *Handler) GenerateReport(c *gin.Context) {
	rep, err := h.reports.Generate(c.Request.Context(), middleware.GetOrganizationID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "failed to generate report")
		return
	}
	response.Created(c, rep)
}

// fail maps service errors to the response envelope.
func (h *Handler) fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrInvalidPayload):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrWebsiteNotFound):
		response.NotFound(c, "website not found")
	case errors.Is(err, service.ErrMemberNotInOrganization):
		response.NotFound(c, "member not found")
	case errors.Is(err, report.ErrRenderTimeout), errors.Is(err, context.DeadlineExceeded):
		response.Timeout(c, "request timed out")
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg(msg)
		response.InternalError(c, msg)
	}
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		l := log.Ctx(c.Request.Context())
		l.Debug().Err(err).Msg("failed to bind request")
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}

// historyQuery parses limit and before. It writes a 400 and returns false
// on malformed input.
func historyQuery(c *gin.Context) (domain.HistoryQuery, bool) {
	var q domain.HistoryQuery
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return q, false
		}
		q.Limit = limit
	}
	if raw := c.Query("before"); raw != "" {
		before, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "before must be an RFC3339 timestamp")
			return q, false
		}
		q.Before = &before
	}
	return q.Normalize(), true
}

func emptyIfNil(msgs []*domain.ChatMessage) []*domain.ChatMessage {
	if msgs == nil {
		return []*domain.ChatMessage{}
	}
	return msgs
}

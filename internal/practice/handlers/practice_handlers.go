package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/vocab-practice/internal/common/errors"
	"github.com/jgirmay/vocab-practice/internal/common/middleware"
	"github.com/jgirmay/vocab-practice/internal/practice/models"
	"github.com/jgirmay/vocab-practice/internal/practice/services"
)

// Handler exposes PracticeService over HTTP.
type Handler struct {
	service *services.PracticeService
}

func NewHandler(service *services.PracticeService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the practice API under /api/v1.
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")
	{
		v1.POST("/records", h.SubmitRecord)

		v1.GET("/assignments", h.ListAssignments)
		v1.POST("/assignments", h.CreateAssignment)
		v1.GET("/assignments/:id", h.GetAssignment)
		v1.GET("/assignments/:id/report", h.GetReport)
		v1.GET("/assignments/:id/percentile", h.GetPercentile)

		v1.GET("/leaderboard", h.GetLeaderboard)

		v1.GET("/users/:id/stats", h.GetUserStats)
		v1.PUT("/users/:id", h.UpsertUser)
	}
}

// SubmitRecord stores a finished practice session
// POST /api/v1/records
func (h *Handler) SubmitRecord(c *gin.Context) {
	var req models.SubmitRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.Validation("invalid request body", err.Error())
		c.JSON(appErr.Status, models.SubmitResult{OK: false, Error: appErr.Error()})
		return
	}

	result, err := h.service.SubmitRecord(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if appErr, ok := errors.As(err); ok {
			status = appErr.Status
		}
		c.JSON(status, result)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// ListAssignments pages through assignments
// GET /api/v1/assignments?limit=&skip=&refresh=
func (h *Handler) ListAssignments(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	skip, err := intQuery(c, "skip", 0)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	page, err := h.service.ListAssignments(c.Request.Context(), limit, skip, refresh(c))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateAssignment stores a new word list
// POST /api/v1/assignments
func (h *Handler) CreateAssignment(c *gin.Context) {
	var req models.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, errors.Validation("invalid request body", err.Error()))
		return
	}

	assignment, err := h.service.CreateAssignment(c.Request.Context(), req)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// GET /api/v1/assignments/:id
func (h *Handler) GetAssignment(c *gin.Context) {
	assignment, err := h.service.GetAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// GetReport returns the completion report for one assignment
// GET /api/v1/assignments/:id/report
func (h *Handler) GetReport(c *gin.Context) {
	report, err := h.service.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetPercentile compares a score against the other attempts
// GET /api/v1/assignments/:id/percentile?score=
func (h *Handler) GetPercentile(c *gin.Context) {
	if c.Query("score") == "" {
		middleware.JSONErrorResponse(c, errors.Validation("score is required", ""))
		return
	}
	score, err := intQuery(c, "score", 0)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	result, err := h.service.GetPercentile(c.Request.Context(), c.Param("id"), score)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetLeaderboard ranks users by one dimension
// GET /api/v1/leaderboard?dimension=&range=&refresh=
func (h *Handler) GetLeaderboard(c *gin.Context) {
	board, err := h.service.GetLeaderboard(c.Request.Context(),
		models.Dimension(c.Query("dimension")),
		models.TimeRange(c.Query("range")),
		refresh(c))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// GET /api/v1/users/:id/stats?refresh=
func (h *Handler) GetUserStats(c *gin.Context) {
	stats, err := h.service.GetUserStats(c.Request.Context(), c.Param("id"), refresh(c))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpsertUser writes a directory entry. The path id wins over the body.
// PUT /api/v1/users/:id
func (h *Handler) UpsertUser(c *gin.Context) {
	var req models.UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.JSONErrorResponse(c, errors.Validation("invalid request body", err.Error()))
		return
	}
	req.ID = c.Param("id")

	user, err := h.service.UpsertUser(c.Request.Context(), req)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Validation(name+" must be an integer", raw)
	}
	return v, nil
}

func refresh(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("refresh"))
	return v
}

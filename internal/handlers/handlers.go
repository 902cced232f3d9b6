package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/faceauth/internal/auth"
	"github.com/example/faceauth/internal/bridge"
	"github.com/example/faceauth/internal/logging"
	"github.com/example/faceauth/internal/repository"
	"github.com/example/faceauth/internal/usecase"
)

// DefaultMaxBodyBytes caps request bodies; base64 images dominate the size.
const DefaultMaxBodyBytes = 10 << 20

const faceAuthModule = "FaceAuth"

type enrollRequest struct {
	UserID   *string `json:"user_id"`
	Name     *string `json:"name"`
	ImageB64 *string `json:"image_b64"`
}

type verifyRequest struct {
	ImageB64 *string `json:"image_b64"`
}

type invokeRequest struct {
	Args []*string `json:"args"`
}

type routes struct {
	uc           *usecase.CallUseCase
	maxBodyBytes int64
}

// RegisterRoutes wires the HTTP handlers to the Gin router. A non-positive
// maxBodyBytes means DefaultMaxBodyBytes.
func RegisterRoutes(router *gin.Engine, uc *usecase.CallUseCase, authMiddleware gin.HandlerFunc, maxBodyBytes int64) {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	h := &routes{uc: uc, maxBodyBytes: maxBodyBytes}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "modules": uc.Modules()})
	})

	secured := router.Group("/")
	secured.Use(authMiddleware)

	secured.POST("/faceauth/enroll", h.enroll)
	secured.POST("/faceauth/verify", h.verify)
	secured.POST("/faceauth/clear", func(c *gin.Context) {
		h.invoke(c, faceAuthModule, "clearAll", nil)
	})
	secured.GET("/faceauth/list", func(c *gin.Context) {
		h.invoke(c, faceAuthModule, "listAll", nil)
	})
	secured.POST("/bridge/:module/:method", h.generic)

	secured.GET("/calls/:id", h.result)
	secured.GET("/calls/:id/duplicates", h.duplicates)
	secured.GET("/metrics", h.metrics)
}

func (h *routes) enroll(c *gin.Context) {
	var req enrollRequest
	if !h.bind(c, &req) {
		return
	}
	if req.UserID == nil || req.Name == nil || req.ImageB64 == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, name and image_b64 are required"})
		return
	}
	h.invoke(c, faceAuthModule, "enroll", []string{*req.UserID, *req.Name, *req.ImageB64})
}

func (h *routes) verify(c *gin.Context) {
	var req verifyRequest
	if !h.bind(c, &req) {
		return
	}
	if req.ImageB64 == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_b64 is required"})
		return
	}
	h.invoke(c, faceAuthModule, "verify", []string{*req.ImageB64})
}

func (h *routes) generic(c *gin.Context) {
	var req invokeRequest
	if c.Request.ContentLength != 0 {
		if !h.bind(c, &req) {
			return
		}
	}
	args := make([]string, len(req.Args))
	for i, arg := range req.Args {
		if arg == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "arguments must be strings"})
			return
		}
		args[i] = *arg
	}
	h.invoke(c, c.Param("module"), c.Param("method"), args)
}

func (h *routes) bind(c *gin.Context, target interface{}) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	if err := c.ShouldBindJSON(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return false
	}
	return true
}

func (h *routes) invoke(c *gin.Context, module, method string, args []string) {
	caller, _ := auth.Caller(c.Request.Context())

	requestID, outcome, err := h.uc.Invoke(c.Request.Context(), caller, module, method, args)
	if err != nil {
		switch {
		case errors.Is(err, bridge.ErrUnknownModule), errors.Is(err, bridge.ErrUnknownMethod):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, bridge.ErrArity):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			internalError(c, err)
		}
		return
	}

	if !outcome.Success {
		c.JSON(http.StatusBadGateway, gin.H{
			"request_id": requestID,
			"code":       outcome.Code,
			"message":    outcome.Message,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request_id": requestID,
		"result":     outcome.Result,
	})
}

func (h *routes) result(c *gin.Context) {
	caller, _ := auth.Caller(c.Request.Context())
	requestID := c.Param("id")

	log, err := h.uc.GetResult(c.Request.Context(), caller, requestID)
	if err != nil {
		h.lookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, callLogJSON(log))
}

func (h *routes) duplicates(c *gin.Context) {
	caller, _ := auth.Caller(c.Request.Context())

	report, err := h.uc.GetDuplicateReport(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.lookupError(c, err)
		return
	}

	duplicates := make([]gin.H, 0, len(report.Duplicates))
	for _, d := range report.Duplicates {
		duplicates = append(duplicates, callLogJSON(d))
	}
	c.JSON(http.StatusOK, gin.H{
		"request":    callLogJSON(report.Request),
		"duplicates": duplicates,
	})
}

func (h *routes) metrics(c *gin.Context) {
	summary, err := h.uc.GetMetricsSummary(c.Request.Context())
	if err != nil {
		h.lookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *routes) lookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrCallInProgress):
		c.JSON(http.StatusAccepted, gin.H{"status": "processing"})
	case errors.Is(err, usecase.ErrCallNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
	case errors.Is(err, usecase.ErrAuditDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "call audit is disabled"})
	default:
		internalError(c, err)
	}
}

func internalError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if op, ok := logging.OperationOf(err); ok {
		body["operation"] = op
	}
	c.JSON(http.StatusInternalServerError, body)
}

func callLogJSON(log *repository.CallLog) gin.H {
	return gin.H{
		"request_id": log.RequestID,
		"module":     log.Module,
		"method":     log.Method,
		"success":    log.Success,
		"result":     log.Result,
		"code":       log.Code,
		"message":    log.Message,
		"arg_count":  log.ArgCount,
		"latency_ms": log.LatencyMs,
		"created_at": log.CreatedAt,
	}
}

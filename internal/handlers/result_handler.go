package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"quiz-monitor-service/internal/service"
)

// ResultHandler serves the pull-style API: stored results remain
// retrievable whether or not the student was connected when they were
// detected.
type ResultHandler struct {
	Service *service.ResultService
}

func NewResultHandler(s *service.ResultService) *ResultHandler {
	return &ResultHandler{Service: s}
}

func (h *ResultHandler) GetStudentResults(c *gin.Context) {
	studentID := c.Param("userId")
	courseID := c.Query("courseId")

	results, err := h.Service.GetStudentResults(c.Request.Context(), studentID, courseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Error fetching results"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": results})
}

func (h *ResultHandler) GetLatestResult(c *gin.Context) {
	studentID := c.Param("userId")

	result, err := h.Service.GetLatestResult(c.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "No results found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Error fetching result"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": result})
}

func (h *ResultHandler) GetStudentStats(c *gin.Context) {
	studentID := c.Param("userId")

	stats, err := h.Service.GetStudentStats(c.Request.Context(), studentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Error fetching stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": stats})
}

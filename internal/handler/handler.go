// Package handler maps the ledger, stats and report operations onto gin routes.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollbook/internal/apperr"
	"rollbook/internal/attendance"
	"rollbook/internal/auth"
	"rollbook/internal/report"
)

// Ledger is the attendance surface the handlers call.
type Ledger interface {
	RecordAttendance(ctx context.Context, in attendance.MarkInput) (attendance.View, bool, error)
	UpdateAttendance(ctx context.Context, id string, in attendance.UpdateInput) (attendance.View, error)
	GetAttendance(ctx context.Context, f attendance.Filter) (attendance.Listing, error)
	GetAttendanceByStudent(ctx context.Context, studentID string, f attendance.StudentFilter) (attendance.Listing, error)
	GetAttendanceBySubject(ctx context.Context, subjectID string, f attendance.SubjectFilter) (attendance.Listing, error)
	GetAttendanceStats(ctx context.Context, q attendance.StatsQuery) (attendance.Stats, error)
	GetRecentCheckins(ctx context.Context) ([]attendance.View, error)
	GetAttendanceSummary(ctx context.Context) (attendance.Summary, error)
}

// Reports is the report surface the handlers call.
type Reports interface {
	ClassReport(ctx context.Context, class, startDate, endDate string) ([]report.ClassRow, error)
	SubjectReport(ctx context.Context, subjectID, startDate, endDate string) ([]report.SubjectRow, error)
	StudentReport(ctx context.Context, studentID, startDate, endDate, subjectID string) ([]report.StudentRow, error)
}

type Handler struct {
	ledger  Ledger
	reports Reports
}

func New(ledger Ledger, reports Reports) *Handler {
	return &Handler{ledger: ledger, reports: reports}
}

// Register mounts every route on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	a := g.Group("/attendance")
	a.POST("", h.MarkAttendance)
	a.GET("", h.GetAttendance)
	a.GET("/stats", h.GetAttendanceStats)
	a.GET("/recent-checkins", h.GetRecentCheckins)
	a.GET("/student/:studentId", h.GetAttendanceByStudent)
	a.GET("/subject/:subjectId", h.GetAttendanceBySubject)
	a.PUT("/:id", h.UpdateAttendance)

	r := g.Group("/reports")
	r.GET("/class/:class", h.ClassReport)
	r.GET("/subject/:subjectId", h.SubjectReport)
	r.GET("/student/:studentId", h.StudentReport)
	r.GET("/summary", h.Summary)
}

// fail writes the status matching err's kind. Storage and unexpected errors
// are logged here and reported without detail.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// markedBy prefers the verified token subject over any value in the body.
func markedBy(c *gin.Context, fromBody string) string {
	if sub := auth.Subject(c); sub != "" {
		return sub
	}
	return fromBody
}

func badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body: " + err.Error()})
}

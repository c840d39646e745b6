package handler

import (
	"log"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollbook/internal/report"
)

type reportQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	SubjectID string `form:"subjectId"`
	Format    string `form:"format" binding:"omitempty,oneof=json csv"`
}

// bindReport reads the report query, rejecting an unknown format before any
// report is built.
func bindReport(c *gin.Context) (reportQuery, bool) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: json, csv"})
		return q, false
	}
	return q, true
}

func (h *Handler) ClassReport(c *gin.Context) {
	q, ok := bindReport(c)
	if !ok {
		return
	}
	class := c.Param("class")
	rows, err := h.reports.ClassReport(c.Request.Context(), class, q.StartDate, q.EndDate)
	if err != nil {
		fail(c, err)
		return
	}
	render(c, q.Format, "class-"+class, rows)
}

func (h *Handler) SubjectReport(c *gin.Context) {
	q, ok := bindReport(c)
	if !ok {
		return
	}
	id := c.Param("subjectId")
	rows, err := h.reports.SubjectReport(c.Request.Context(), id, q.StartDate, q.EndDate)
	if err != nil {
		fail(c, err)
		return
	}
	render(c, q.Format, "subject-"+id, rows)
}

func (h *Handler) StudentReport(c *gin.Context) {
	q, ok := bindReport(c)
	if !ok {
		return
	}
	id := c.Param("studentId")
	rows, err := h.reports.StudentReport(c.Request.Context(), id, q.StartDate, q.EndDate, q.SubjectID)
	if err != nil {
		fail(c, err)
		return
	}
	render(c, q.Format, "student-"+id, rows)
}

func (h *Handler) Summary(c *gin.Context) {
	out, err := h.ledger.GetAttendanceSummary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// render writes rows as JSON, or as a CSV attachment when format is csv.
func render[T report.Row](c *gin.Context, format, name string, rows []T) {
	if format != "csv" {
		c.JSON(http.StatusOK, rows)
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name + ".csv"}))
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, rows); err != nil {
		log.Printf("write csv %s: %v", name, err)
	}
}

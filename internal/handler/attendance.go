package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollbook/internal/attendance"
)

// MarkAttendance answers 201 for a new record and 200 when an existing one
// was overwritten.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var in attendance.MarkInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c, err)
		return
	}
	in.MarkedBy = markedBy(c, in.MarkedBy)

	view, created, err := h.ledger.RecordAttendance(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, view)
}

func (h *Handler) UpdateAttendance(c *gin.Context) {
	var in attendance.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badBody(c, err)
		return
	}
	in.MarkedBy = markedBy(c, in.MarkedBy)

	view, err := h.ledger.UpdateAttendance(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type attendanceQuery struct {
	Date      string `form:"date"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	SubjectID string `form:"subjectId"`
	Class     string `form:"class"`
}

func (h *Handler) GetAttendance(c *gin.Context) {
	var q attendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badBody(c, err)
		return
	}
	out, err := h.ledger.GetAttendance(c.Request.Context(), attendance.Filter{
		Date:      q.Date,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		SubjectID: q.SubjectID,
		Class:     q.Class,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetAttendanceByStudent(c *gin.Context) {
	var q attendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badBody(c, err)
		return
	}
	out, err := h.ledger.GetAttendanceByStudent(c.Request.Context(), c.Param("studentId"), attendance.StudentFilter{
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		SubjectID: q.SubjectID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetAttendanceBySubject(c *gin.Context) {
	var q attendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badBody(c, err)
		return
	}
	out, err := h.ledger.GetAttendanceBySubject(c.Request.Context(), c.Param("subjectId"), attendance.SubjectFilter{
		Date:  q.Date,
		Class: q.Class,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetAttendanceStats(c *gin.Context) {
	var q attendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badBody(c, err)
		return
	}
	out, err := h.ledger.GetAttendanceStats(c.Request.Context(), attendance.StatsQuery{
		SubjectID: q.SubjectID,
		Class:     q.Class,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetRecentCheckins(c *gin.Context) {
	views, err := h.ledger.GetRecentCheckins(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, attendance.Listing{Count: len(views), Records: views})
}

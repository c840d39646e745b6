package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Row is a report row that can be rendered as a CSV record.
type Row interface {
	csvHeader() []string
	csvRecord() []string
}

// WriteCSV renders rows with a header line. An empty report still gets the header.
func WriteCSV[T Row](w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	var zero T
	if err := cw.Write(zero.csvHeader()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.csvRecord()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func itoa(n int) string { return strconv.Itoa(n) }

func pct(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

func (ClassRow) csvHeader() []string {
	return []string{"subject_id", "subject_name", "subject_code", "class_name",
		"total_students", "present_count", "absent_count", "attendance_percentage"}
}

func (r ClassRow) csvRecord() []string {
	return []string{r.SubjectID, r.SubjectName, r.SubjectCode, r.ClassName,
		itoa(r.TotalStudents), itoa(r.PresentCount), itoa(r.AbsentCount), pct(r.AttendancePercentage)}
}

func (SubjectRow) csvHeader() []string {
	return []string{"date", "subject_id", "subject_name", "class_name",
		"total_students", "present_count", "absent_count", "attendance_percentage"}
}

func (r SubjectRow) csvRecord() []string {
	return []string{r.Date, r.SubjectID, r.SubjectName, r.ClassName,
		itoa(r.TotalStudents), itoa(r.PresentCount), itoa(r.AbsentCount), pct(r.AttendancePercentage)}
}

func (StudentRow) csvHeader() []string {
	return []string{"student_id", "student_name", "student_roll_number", "subject_id", "subject_name",
		"class_name", "total_classes", "present_count", "absent_count", "attendance_percentage"}
}

func (r StudentRow) csvRecord() []string {
	return []string{r.StudentID, r.StudentName, r.StudentRollNumber, r.SubjectID, r.SubjectName,
		r.ClassName, itoa(r.TotalClasses), itoa(r.PresentCount), itoa(r.AbsentCount), pct(r.AttendancePercentage)}
}

package models

import (
	"time"
)

// AllClasses is the class filter value that matches every class.
const AllClasses = "All Classes"

// Student is a registered student.
type Student struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	StudentID      string    `json:"studentId"`
	Class          string    `json:"class"`
	RegisteredDate time.Time `json:"registeredDate"`
	Reference      string    `json:"reference,omitempty"`
}

type RegisterStudentParams struct {
	Name      string `json:"name"`
	StudentID string `json:"studentId"`
	Class     string `json:"class"`
	Photo     string `json:"photo"` // captured image as a data URL
}

// AttendanceRecord is one student marked present on a date.
type AttendanceRecord struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	Time      string `json:"time"`
}

// Recognition is the outcome of a face recognition attempt.
type Recognition struct {
	Recognized    bool     `json:"recognized"`
	Student       *Student `json:"student,omitempty"`
	Confidence    float64  `json:"confidence,omitempty"`
	AlreadyMarked bool     `json:"alreadyMarked,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// ListFilter narrows and paginates students or attendance records.
type ListFilter struct {
	Class   string
	Search  string
	Page    int
	PerPage int
}

type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type ExportRange string

const (
	ExportDaily   ExportRange = "daily"
	ExportWeekly  ExportRange = "weekly"
	ExportMonthly ExportRange = "monthly"
)

type ExportFormat string

const (
	ExportExcel ExportFormat = "excel"
	ExportPDF   ExportFormat = "pdf"
)

type ExportParams struct {
	Range  ExportRange  `json:"range"`
	Format ExportFormat `json:"format"`
	Date   time.Time    `json:"date"`
}

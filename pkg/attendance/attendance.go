// Package attendance is the in-process stand-in for the recognition backend:
// it keeps the student roster, simulates face recognition and records who
// was marked present on which day.
package attendance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DefaultPerPage = 10
	MaxPerPage     = 100
	DefaultLatency = time.Second

	// RecognitionRate is the share of frames that match a registered student.
	RecognitionRate = 0.7
	minConfidence   = 0.92
	confidenceSpan  = 0.07

	NoMatchMessage = "No matching face found"
)

var classes = []string{models.AllClasses, "CS101", "CS202", "CS303", "MATH201", "ENG101"}

// Classes returns the selectable classes, starting with the All Classes filter.
func Classes() []string {
	out := make([]string, len(classes))
	copy(out, classes)
	return out
}

// IsClass reports whether name is a class a student can be registered in.
func IsClass(name string) bool {
	for _, c := range classes[1:] {
		if c == name {
			return true
		}
	}
	return false
}

// Rand is the random source used for recognition. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type Backend struct {
	log     *slog.Logger
	latency time.Duration
	rand    Rand
	now     func() time.Time

	mu       sync.Mutex
	students []models.Student
	marked   map[string][]models.AttendanceRecord // date -> records in marking order
}

type Option func(*Backend)

// WithLatency sets the simulated round trip of every backend call.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) { b.latency = d }
}

func WithRand(r Rand) Option {
	return func(b *Backend) { b.rand = r }
}

func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// New returns a Backend seeded with the demo roster.
func New(logger *slog.Logger, opts ...Option) *Backend {
	b := &Backend{
		log:      logger,
		latency:  DefaultLatency,
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
		students: seedStudents(),
		marked:   make(map[string][]models.AttendanceRecord),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RegisterStudent adds a student to the roster. The photo must be a captured
// image encoded as a data URL.
func (b *Backend) RegisterStudent(ctx context.Context, p models.RegisterStudentParams) (models.Student, error) {
	defer logutil.NewTimingLogger(b.log, time.Now(), "register student", "student_id", p.StudentID)()

	p.Name = strings.TrimSpace(p.Name)
	p.StudentID = strings.TrimSpace(p.StudentID)
	p.Class = strings.TrimSpace(p.Class)

	if p.Name == "" || p.StudentID == "" || p.Class == "" {
		return models.Student{}, models.NewValidationError("please fill all required fields")
	}
	if !IsClass(p.Class) {
		return models.Student{}, models.NewValidationError(fmt.Sprintf("unknown class: %s", p.Class))
	}
	if !strings.HasPrefix(p.Photo, "data:image/") {
		return models.Student{}, models.NewValidationError("please capture a photo first")
	}

	if err := sleepCtx(ctx, b.latency); err != nil {
		return models.Student{}, fmt.Errorf("register student: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.students {
		if strings.EqualFold(s.StudentID, p.StudentID) {
			return models.Student{}, models.NewConflictError(fmt.Sprintf("student %s is already registered", p.StudentID))
		}
	}

	student := models.Student{
		ID:             p.StudentID,
		Name:           p.Name,
		StudentID:      p.StudentID,
		Class:          p.Class,
		RegisteredDate: b.now(),
		Reference:      newReference(),
	}
	b.students = append(b.students, student)
	b.log.Info("student registered", "student_id", student.StudentID, "class", student.Class, "reference", student.Reference)
	return student, nil
}

// Recognize matches a captured frame against the roster and, on a match,
// marks the student present for today. A second match on the same day is
// reported with AlreadyMarked set and records nothing.
func (b *Backend) Recognize(ctx context.Context, image string) (models.Recognition, error) {
	defer logutil.NewTimingLogger(b.log, time.Now(), "recognize")()

	if image == "" {
		return models.Recognition{}, models.NewValidationError("an image is required")
	}
	if err := sleepCtx(ctx, b.latency); err != nil {
		return models.Recognition{}, fmt.Errorf("recognize: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.students) == 0 || b.rand.Float64() >= RecognitionRate {
		return models.Recognition{Message: NoMatchMessage}, nil
	}

	student := b.students[b.rand.IntN(len(b.students))]
	confidence := minConfidence + b.rand.Float64()*confidenceSpan

	now := b.now()
	date := now.Format(DateLayout)
	for _, r := range b.marked[date] {
		if r.StudentID == student.StudentID {
			return models.Recognition{
				Recognized:    true,
				Student:       &student,
				Confidence:    confidence,
				AlreadyMarked: true,
				Message:       fmt.Sprintf("%s already marked present!", student.Name),
			}, nil
		}
	}

	b.marked[date] = append(b.marked[date], models.AttendanceRecord{
		ID:        uuid.NewString(),
		StudentID: student.StudentID,
		Name:      student.Name,
		Class:     student.Class,
		Time:      now.Format(TimeLayout),
	})
	b.log.Info("attendance marked", "student_id", student.StudentID, "date", date, "confidence", confidence)

	return models.Recognition{
		Recognized: true,
		Student:    &student,
		Confidence: confidence,
		Message:    fmt.Sprintf("Successfully recognized %s!", student.Name),
	}, nil
}

// Records returns the attendance of date, formatted YYYY-MM-DD. An empty
// date means today. Dates nobody was recognized on return the demo records.
func (b *Backend) Records(ctx context.Context, date string) (string, []models.AttendanceRecord, error) {
	defer logutil.NewTimingLogger(b.log, time.Now(), "attendance records", "date", date)()

	if date == "" {
		date = b.now().Format(DateLayout)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", nil, models.NewValidationError(fmt.Sprintf("date must be formatted YYYY-MM-DD: %s", date))
	}
	if err := sleepCtx(ctx, b.latency); err != nil {
		return "", nil, fmt.Errorf("attendance records: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	marked := b.marked[date]
	if len(marked) == 0 {
		return date, demoRecords(), nil
	}
	out := make([]models.AttendanceRecord, len(marked))
	copy(out, marked)
	return date, out, nil
}

// ListStudents returns one page of the roster narrowed by filter.
func (b *Backend) ListStudents(filter models.ListFilter) ([]models.Student, models.PaginationMeta) {
	b.mu.Lock()
	matched := make([]models.Student, 0, len(b.students))
	for _, s := range b.students {
		if matches(filter, s.Class, s.Name, s.StudentID) {
			matched = append(matched, s)
		}
	}
	b.mu.Unlock()

	return paginate(matched, filter.Page, filter.PerPage)
}

// FilterRecords narrows and paginates records the same way ListStudents
// does for the roster.
func FilterRecords(records []models.AttendanceRecord, filter models.ListFilter) ([]models.AttendanceRecord, models.PaginationMeta) {
	matched := make([]models.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if matches(filter, r.Class, r.Name, r.StudentID) {
			matched = append(matched, r)
		}
	}
	return paginate(matched, filter.Page, filter.PerPage)
}

// ExportRosterYAML writes the current roster as YAML.
func (b *Backend) ExportRosterYAML(w io.Writer) error {
	b.mu.Lock()
	roster := make([]rosterEntry, 0, len(b.students))
	for _, s := range b.students {
		roster = append(roster, rosterEntry{
			StudentID:  s.StudentID,
			Name:       s.Name,
			Class:      s.Class,
			Registered: s.RegisteredDate.Format(DateLayout),
		})
	}
	b.mu.Unlock()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]rosterEntry{"students": roster}); err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	return enc.Close()
}

type rosterEntry struct {
	StudentID  string `yaml:"student_id"`
	Name       string `yaml:"name"`
	Class      string `yaml:"class"`
	Registered string `yaml:"registered"`
}

func matches(filter models.ListFilter, class, name, studentID string) bool {
	if filter.Class != "" && filter.Class != models.AllClasses && filter.Class != class {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(filter.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), q) || strings.Contains(strings.ToLower(studentID), q)
}

// paginate returns the requested page of items. perPage is capped at
// MaxPerPage and the page is clamped into range so that a stale page number
// after filtering still shows results.
func paginate[T any](items []T, page, perPage int) ([]T, models.PaginationMeta) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	perPage = min(perPage, MaxPerPage)

	total := len(items)
	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}

	page = max(1, min(page, max(totalPages, 1)))

	meta := models.PaginationMeta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	start := (page - 1) * perPage
	if start >= total {
		return []T{}, meta
	}
	end := min(start+perPage, total)
	return items[start:end], meta
}

func newReference() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

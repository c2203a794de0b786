package templates

import (
	"net/url"
	"strconv"

	"github.com/Haymar136/faceflow-student-hub/pkg/models"
)

type LoginContent struct {
	From  string
	Email string
}

type DashboardContent struct {
	Today        string
	Students     int
	PresentToday int
}

type RegisterContent struct {
	Classes    []string
	Form       models.RegisterStudentParams
	Registered *models.Student
}

type AttendanceContent struct {
	Date        string
	Classes     []string
	Filter      models.ListFilter
	Records     []models.AttendanceRecord
	Pager       Pager
	Recognition *models.Recognition
}

type AdminContent struct {
	Today    string
	Classes  []string
	Filter   models.ListFilter
	Students []models.Student
	Pager    Pager
}

// Pager holds the previous and next links of a paginated table. Links are
// empty at either end.
type Pager struct {
	Page       int
	TotalPages int
	Prev       string
	Next       string
}

// NewPager builds the links for meta, keeping every other query value of base.
func NewPager(path string, base url.Values, meta models.PaginationMeta) Pager {
	link := func(page int) string {
		q := url.Values{}
		for k, v := range base {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		return path + "?" + q.Encode()
	}

	p := Pager{Page: meta.Page, TotalPages: meta.TotalPages}
	if meta.Page > 1 {
		p.Prev = link(meta.Page - 1)
	}
	if meta.Page < meta.TotalPages {
		p.Next = link(meta.Page + 1)
	}
	return p
}

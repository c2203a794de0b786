package builtins

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Haymar136/faceflow-student-hub/api"
	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/pkg/attendance"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
	"github.com/Haymar136/faceflow-student-hub/pkg/shell"
	"github.com/Haymar136/faceflow-student-hub/web/templates"
)

// maxPhotoBytes bounds uploaded captures.
const maxPhotoBytes = 5 << 20

const invalidCredentialsMessage = "Invalid email or password"

func (h *Handler) handleLoginGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		q := r.URL.Query()
		h.render(w, r, http.StatusOK, templates.Login, templates.Page{
			Title:   "Login",
			Notice:  shell.NoticeText(q.Get("notice")),
			Content: templates.LoginContent{From: q.Get(h.guard.ReturnParam)},
		})
	}
}

func (h *Handler) handleLoginPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		if err := r.ParseForm(); err != nil {
			h.log.Error("parsing form from POST /login", "err", err)
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		email := r.FormValue("email")
		password := r.FormValue("password")
		from := r.FormValue("from")

		h.log.Debug("form parsed", "method", r.Method, "path", r.URL.Path)
		ok, err := h.auth.Login(r.Context(), email, password)
		if err != nil {
			h.log.Error("login failed", "err", err)
			h.render(w, r, http.StatusInternalServerError, templates.Login, templates.Page{
				Title:   "Login",
				Error:   "Unable to sign in right now. Please try again.",
				Content: templates.LoginContent{From: from, Email: email},
			})
			return
		}
		if !ok {
			h.render(w, r, http.StatusUnauthorized, templates.Login, templates.Page{
				Title:   "Login",
				Error:   invalidCredentialsMessage,
				Content: templates.LoginContent{From: from, Email: email},
			})
			return
		}

		http.Redirect(w, r, h.guard.SafeReturnPath(from), http.StatusSeeOther)
	}
}

func (h *Handler) handleDashboardGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		today := h.now().Format(attendance.DateLayout)
		content := templates.DashboardContent{Today: today}

		if session, _ := sessionFrom(r); session.IsAdmin() {
			_, meta := h.attendance.ListStudents(models.ListFilter{})
			content.Students = meta.Total
			if _, records, err := h.attendance.Records(r.Context(), today); err != nil {
				h.log.Warn("unable to load today's attendance for the dashboard", "err", err)
			} else {
				content.PresentToday = len(records)
			}
		}

		h.render(w, r, http.StatusOK, templates.Dashboard, templates.Page{
			Title:   "Dashboard",
			Content: content,
		})
	}
}

func (h *Handler) handleRegisterGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		h.render(w, r, http.StatusOK, templates.Register, templates.Page{
			Title:   "Register Student",
			Content: templates.RegisterContent{Classes: attendance.Classes()[1:]},
		})
	}
}

func (h *Handler) handleRegisterPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		if err := parseForm(r); err != nil {
			h.log.Error("parsing form from POST /register", "err", err)
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		photo, err := imageField(r, "photo", "photo_file")
		if err != nil {
			h.log.Debug("unable to read uploaded photo", "err", err)
		}
		params := models.RegisterStudentParams{
			Name:      r.FormValue("name"),
			StudentID: r.FormValue("studentId"),
			Class:     r.FormValue("class"),
			Photo:     photo,
		}

		content := templates.RegisterContent{Classes: attendance.Classes()[1:], Form: params}
		student, err := h.attendance.RegisterStudent(r.Context(), params)
		if err != nil {
			status, msg := statusFor(err)
			if status == http.StatusInternalServerError {
				h.log.Error("unable to register student", "err", err)
				msg = "Failed to register student. Please try again."
			}
			h.render(w, r, status, templates.Register, templates.Page{
				Title:   "Register Student",
				Error:   msg,
				Content: content,
			})
			return
		}

		content.Form = models.RegisterStudentParams{}
		content.Registered = &student
		h.render(w, r, http.StatusCreated, templates.Register, templates.Page{
			Title:   "Register Student",
			Content: content,
		})
	}
}

func (h *Handler) handleAttendanceGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)
		h.renderAttendance(w, r, http.StatusOK, nil, "")
	}
}

func (h *Handler) handleRecognizePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		if err := parseForm(r); err != nil {
			h.log.Error("parsing form from POST /attendance/recognize", "err", err)
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		image, err := imageField(r, "image", "image_file")
		if err != nil {
			h.log.Debug("unable to read uploaded capture", "err", err)
		}

		result, err := h.attendance.Recognize(r.Context(), image)
		if err != nil {
			status, msg := statusFor(err)
			if status == http.StatusInternalServerError {
				h.log.Error("recognition failed", "err", err)
			}
			h.renderAttendance(w, r, status, nil, msg)
			return
		}
		h.renderAttendance(w, r, http.StatusOK, &result, "")
	}
}

// renderAttendance draws the attendance page for the date and filter in the
// query string, optionally with a recognition result.
func (h *Handler) renderAttendance(w http.ResponseWriter, r *http.Request, status int, result *models.Recognition, errMsg string) {
	q := r.URL.Query()
	filter := filterFromQuery(q)

	date, records, err := h.attendance.Records(r.Context(), q.Get("date"))
	if err != nil {
		code, msg := statusFor(err)
		if code == http.StatusInternalServerError {
			h.log.Error("unable to load attendance records", "err", err)
		}
		if status == http.StatusOK {
			status = code
		}
		errMsg = msg
		date, records = "", nil
	}

	page, meta := attendance.FilterRecords(records, filter)
	h.render(w, r, status, templates.Attendance, templates.Page{
		Title: "Attendance",
		Error: errMsg,
		Content: templates.AttendanceContent{
			Date:        date,
			Classes:     attendance.Classes(),
			Filter:      filter,
			Records:     page,
			Pager:       templates.NewPager("/attendance", q, meta),
			Recognition: result,
		},
	})
}

func (h *Handler) handleAdminGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)
		h.renderAdmin(w, r, http.StatusOK, "", "")
	}
}

func (h *Handler) handleAdminExportPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		if err := r.ParseForm(); err != nil {
			h.log.Error("parsing form from POST /admin/export", "err", err)
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		params, err := attendance.ParseExportParams(r.FormValue("range"), r.FormValue("format"), r.FormValue("date"), h.now())
		if err != nil {
			status, msg := statusFor(err)
			h.renderAdmin(w, r, status, "", msg)
			return
		}

		msg, err := h.attendance.Export(r.Context(), params)
		if err != nil {
			status, errMsg := statusFor(err)
			h.log.Error("export failed", "err", err)
			h.renderAdmin(w, r, status, "", errMsg)
			return
		}
		h.renderAdmin(w, r, http.StatusOK, msg, "")
	}
}

func (h *Handler) handleAdminRosterGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Disposition", `attachment; filename="roster.yaml"`)
		if err := h.attendance.ExportRosterYAML(w); err != nil {
			h.log.Error("unable to write roster", "err", err)
		}
	}
}

func (h *Handler) renderAdmin(w http.ResponseWriter, r *http.Request, status int, notice, errMsg string) {
	q := r.URL.Query()
	filter := filterFromQuery(q)
	students, meta := h.attendance.ListStudents(filter)

	h.render(w, r, status, templates.Admin, templates.Page{
		Title:  "Admin",
		Notice: notice,
		Error:  errMsg,
		Content: templates.AdminContent{
			Today:    h.now().Format(attendance.DateLayout),
			Classes:  attendance.Classes(),
			Filter:   filter,
			Students: students,
			Pager:    templates.NewPager("/admin", q, meta),
		},
	})
}

func (h *Handler) handleNotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.log.Debug("Access", logutil.RequestFields(r)...)

		if strings.HasPrefix(r.URL.Path, "/api/") {
			status, body := api.NotFound(r.URL.Path)
			api.RespondJSONAndLog(w, h.log, status, body)
			return
		}

		h.render(w, r, http.StatusNotFound, templates.NotFound, templates.Page{
			Title:   "Not found",
			Content: r.URL.Path,
		})
	}
}

func filterFromQuery(q map[string][]string) models.ListFilter {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	page, _ := strconv.Atoi(get("page"))
	perPage, _ := strconv.Atoi(get("perPage"))
	class := get("class")
	if class == "" {
		class = models.AllClasses
	}
	return models.ListFilter{
		Class:   class,
		Search:  get("search"),
		Page:    page,
		PerPage: perPage,
	}
}

func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// imageField returns the data URL posted in field, or the uploaded file in
// fileField encoded as a data URL.
func imageField(r *http.Request, field, fileField string) (string, error) {
	if v := r.FormValue(field); v != "" {
		return v, nil
	}
	if r.MultipartForm == nil {
		return "", nil
	}

	f, hdr, err := r.FormFile(fileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	if err != nil {
		return "", err
	}
	if len(b) > maxPhotoBytes {
		return "", fmt.Errorf("upload %s exceeds %d bytes", hdr.Filename, maxPhotoBytes)
	}

	contentType := http.DetectContentType(b)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("upload %s is %s, not an image", hdr.Filename, contentType)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

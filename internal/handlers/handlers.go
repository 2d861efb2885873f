package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"accounting/internal/auth"
	applog "accounting/internal/log"
	"accounting/internal/models"
	"accounting/internal/records"
	"accounting/internal/session"

	"github.com/shopspring/decimal"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	creds        *auth.Credentials
	records      *records.Service
	sessions     *session.Manager
	templateDir  string
	secureCookie bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(creds *auth.Credentials, recs *records.Service, sessions *session.Manager, templateDir string, secureCookie bool) *Handlers {
	return &Handlers{
		creds:        creds,
		records:      recs,
		sessions:     sessions,
		templateDir:  templateDir,
		secureCookie: secureCookie,
	}
}

// Layout is the data shared by every page.
type Layout struct {
	Flashes  []string
	Username string
}

// Home redirects to the login page.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusFound)
}

// RegisterViewModel holds data for the registration page.
type RegisterViewModel struct {
	Layout
	EnteredUsername string
	Errors          []string
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", RegisterViewModel{Layout: h.layout(w, r)})
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "register.html", RegisterViewModel{Layout: h.layout(w, r), Errors: []string{"Invalid form submission"}})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm_password")

	if password != confirm {
		verr := models.NewValidationError()
		verr.Add("confirm_password", "must match password")
		h.render(w, r, "register.html", RegisterViewModel{Layout: h.layout(w, r), EnteredUsername: username, Errors: validationMessages(verr)})
		return
	}

	user, err := h.creds.Register(r.Context(), username, password)
	switch {
	case errors.Is(err, models.ErrValidationFailed):
		h.render(w, r, "register.html", RegisterViewModel{Layout: h.layout(w, r), EnteredUsername: username, Errors: validationMessages(err)})
		return
	case errors.Is(err, models.ErrUsernameTaken):
		h.addFlash(w, "Username already exists. Please choose a different one.")
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	case err != nil:
		applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).Error("Register failed", applog.FieldError, err)
		h.addFlash(w, "An error occurred. Please try again.")
		http.Redirect(w, r, "/register", http.StatusFound)
		return
	}

	applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).Info("User registered", applog.FieldUserID, user.ID)
	h.addFlash(w, "Registration successful! Please log in.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Layout
	EnteredUsername string
	Error           string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, go straight to the records
	if _, err := h.sessions.Current(r); err == nil {
		http.Redirect(w, r, "/index", http.StatusFound)
		return
	}
	h.render(w, r, "login.html", LoginViewModel{Layout: h.layout(w, r)})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "login.html", LoginViewModel{Layout: h.layout(w, r), Error: "Invalid form submission"})
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if username == "" || password == "" {
		h.render(w, r, "login.html", LoginViewModel{Layout: h.layout(w, r), EnteredUsername: username, Error: "Username and password are required"})
		return
	}

	user, err := h.creds.Authenticate(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, models.ErrInvalidCredentials) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).Error("Authenticate failed", applog.FieldError, err)
		}
		h.render(w, r, "login.html", LoginViewModel{Layout: h.layout(w, r), EnteredUsername: username, Error: "Invalid username or password."})
		return
	}

	if _, err := h.sessions.Start(w, r, user); err != nil {
		applog.FromContext(r.Context()).Error("Failed to start session", applog.FieldError, err)
		h.render(w, r, "login.html", LoginViewModel{Layout: h.layout(w, r), Error: "An error occurred. Please try again."})
		return
	}

	h.addFlash(w, "Login successful!")
	http.Redirect(w, r, "/index", http.StatusFound)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		applog.FromContext(r.Context()).Error("Failed to delete session", applog.FieldError, err)
	}
	h.addFlash(w, "You have been logged out.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// Option is a value/label pair for select inputs.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// IndexViewModel is the data passed to the records page.
type IndexViewModel struct {
	Layout
	Page        *records.Page
	Today       string
	Months      []Option
	Years       []Option
	Sorts       []Option
	basePath    string
	filterQuery url.Values
}

// PageURL returns the link to page n keeping the active filter.
func (vm IndexViewModel) PageURL(n int) string {
	q := url.Values{}
	for k, v := range vm.filterQuery {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(n))
	return vm.basePath + "?" + q.Encode()
}

// Index adds a record, applies a filter and lists one page of the
// caller's records.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	ac := session.FromContext(r.Context())
	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentRecords).With(applog.FieldUserID, ac.UserID)

	if err := r.ParseForm(); err != nil {
		h.addFlash(w, "Invalid form submission")
		http.Redirect(w, r, "/index", http.StatusFound)
		return
	}

	if r.Method == http.MethodPost && r.PostFormValue("action") == "add" {
		rec, err := h.records.Add(r.Context(), ac.UserID, records.RecordInput{
			Date:   r.PostFormValue("date"),
			Item:   r.PostFormValue("item"),
			Amount: r.PostFormValue("amount"),
		})
		switch {
		case errors.Is(err, models.ErrValidationFailed):
			h.addFlash(w, validationMessages(err)...)
		case err != nil:
			logger.Error("Add record failed", applog.FieldError, err)
			h.addFlash(w, "An error occurred. Please try again.")
		default:
			logger.Info("Record added", applog.FieldRecordID, rec.ID)
			h.addFlash(w, "Record added successfully!")
		}
		http.Redirect(w, r, "/index", http.StatusFound)
		return
	}

	month, year, sort := r.Form.Get("month"), r.Form.Get("year"), r.Form.Get("filter_type")
	filter, err := records.ParseFilter(month, year, sort)
	if err != nil {
		h.addFlash(w, validationMessages(err)...)
		http.Redirect(w, r, "/index", http.StatusFound)
		return
	}

	q := url.Values{}
	if !filter.IsZero() {
		q.Set("month", formValueOrAll(filter.Month))
		q.Set("year", formValueOrAll(filter.Year))
		q.Set("filter_type", string(filter.Sort))
	}

	h.listRecords(w, r, "/index", filter, q)
}

// ShowAllRecords lists every record of the caller, newest first.
func (h *Handlers) ShowAllRecords(w http.ResponseWriter, r *http.Request) {
	h.listRecords(w, r, "/show_all_records", models.RecordFilter{Sort: models.SortDefault}, url.Values{})
}

func (h *Handlers) listRecords(w http.ResponseWriter, r *http.Request, basePath string, filter models.RecordFilter, q url.Values) {
	ac := session.FromContext(r.Context())

	page, err := h.records.List(r.Context(), ac.UserID, filter, records.ParsePage(r.URL.Query().Get("page")))
	if err != nil {
		applog.FromContext(r.Context()).Error("List records failed", applog.FieldUserID, ac.UserID, applog.FieldError, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "index.html", IndexViewModel{
		Layout:      h.layout(w, r),
		Page:        page,
		Today:       time.Now().Format(models.DateLayout),
		Months:      monthOptions(filter.Month),
		Years:       yearOptions(filter.Year),
		Sorts:       sortOptions(filter.Sort),
		basePath:    basePath,
		filterQuery: q,
	})
}

// Delete removes a record owned by the caller.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	ac := session.FromContext(r.Context())
	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentRecords).With(applog.FieldUserID, ac.UserID)

	id, err := strconv.ParseInt(r.PathValue("record_id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	err = h.records.Delete(r.Context(), id, ac.UserID)
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrNotAuthorized):
		// Same notice for both so other users' record IDs are not revealed.
		logger.Warn("Delete refused", applog.FieldRecordID, id, applog.FieldError, err)
		h.addFlash(w, "You are not authorized to delete this record.")
	case err != nil:
		logger.Error("Delete record failed", applog.FieldRecordID, id, applog.FieldError, err)
		h.addFlash(w, "An error occurred. Please try again.")
	default:
		logger.Info("Record deleted", applog.FieldRecordID, id)
		h.addFlash(w, "Record deleted successfully!")
	}
	http.Redirect(w, r, "/index", http.StatusFound)
}

func (h *Handlers) layout(w http.ResponseWriter, r *http.Request) Layout {
	return Layout{
		Flashes:  h.popFlashes(w, r),
		Username: session.FromContext(r.Context()).Username,
	}
}

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	logger := applog.FromContext(r.Context())
	tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFiles(
		filepath.Join(h.templateDir, "base.html"),
		filepath.Join(h.templateDir, viewName),
	)
	if err != nil {
		logger.Error("Template error", "template", viewName, applog.FieldError, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		logger.Error("Template execution error", "template", viewName, applog.FieldError, err)
	}
}

func formValueOrAll(n int) string {
	if n == 0 {
		return records.AllValue
	}
	return strconv.Itoa(n)
}

func monthOptions(selected int) []Option {
	opts := []Option{{Value: records.AllValue, Label: "All", Selected: selected == 0}}
	for m := 1; m <= 12; m++ {
		opts = append(opts, Option{Value: strconv.Itoa(m), Label: strconv.Itoa(m), Selected: m == selected})
	}
	return opts
}

func yearOptions(selected int) []Option {
	opts := []Option{{Value: records.AllValue, Label: "All", Selected: selected == 0}}
	first, last := 2000, time.Now().Year()+1
	if selected != 0 && (selected < first || selected > last) {
		opts = append(opts, Option{Value: strconv.Itoa(selected), Label: strconv.Itoa(selected), Selected: true})
	}
	for y := first; y <= last; y++ {
		opts = append(opts, Option{Value: strconv.Itoa(y), Label: strconv.Itoa(y), Selected: y == selected})
	}
	return opts
}

func sortOptions(selected models.SortOrder) []Option {
	opts := make([]Option, 0, len(models.SortOrders))
	for _, s := range models.SortOrders {
		opts = append(opts, Option{Value: string(s), Label: s.Label(), Selected: s == selected})
	}
	return opts
}

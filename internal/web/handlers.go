package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tablero/internal"
	"tablero/internal/connectors"
	"tablero/internal/pipeline"
	"tablero/internal/report"
)

var dashboards = []internal.Dashboard{
	internal.DashboardProjects,
	internal.DashboardAugust,
	internal.DashboardMigration,
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	inbox, err := connectors.ListInbox(s.cfg.InboxDir)
	if err != nil {
		s.log.Warn("list inbox", zap.Error(err))
	}
	records, err := s.db.ListUploads(20)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	uploads := make([]uploadView, 0, len(records))
	for _, rec := range records {
		counts, err := s.db.CategoryCounts(rec.ID)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		uploads = append(uploads, uploadView{UploadRecord: rec, Categories: counts})
	}

	s.render(w, r, http.StatusOK, "index.html", page{
		Title: "Tablero",
		Index: &indexView{Dashboards: dashboards, Inbox: inbox, Uploads: uploads},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.dashboardParam(w, r)
	if !ok {
		return
	}

	limit := s.cfg.UploadMaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.renderError(w, r, http.StatusRequestEntityTooLarge, kind, fmt.Sprintf("el archivo supera el máximo de %d MB", limit>>20))
			return
		}
		s.renderError(w, r, http.StatusBadRequest, kind, "formulario inválido")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, kind, "falta el archivo")
		return
	}
	defer file.Close()

	s.ingest(w, r, kind, filepath.Base(header.Filename), file)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.dashboardParam(w, r)
	if !ok {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	path, ok := connectors.InboxPath(s.cfg.InboxDir, name)
	if !ok {
		s.renderError(w, r, http.StatusBadRequest, kind, "archivo de bandeja inválido")
		return
	}
	blob, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.renderError(w, r, http.StatusNotFound, kind, "el archivo ya no está en la bandeja")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.ingest(w, r, kind, name, bytes.NewReader(blob))
}

// ingest loads a workbook into a new session and redirects to its dashboard.
func (s *Server) ingest(w http.ResponseWriter, r *http.Request, kind internal.Dashboard, source string, body io.Reader) {
	start := time.Now()
	ds, err := pipeline.Load(body, source, kind, s.cfg.Dashboards)
	s.metrics.observeLoad(kind, time.Since(start), err)
	if err != nil {
		var loadErr *pipeline.DataLoadError
		if errors.As(err, &loadErr) {
			s.log.Info("workbook rejected", zap.String("dashboard", string(kind)), zap.String("source", source), zap.String("reason", loadErr.Reason))
			s.renderError(w, r, http.StatusUnprocessableEntity, kind, loadErr.Error())
			return
		}
		s.serverError(w, r, err)
		return
	}

	sess := s.sessions.put(ds)
	counts := ds.CategoryCounts()
	s.metrics.observeRows(counts)

	rec := internal.UploadRecord{ID: sess.ID, Dashboard: string(kind), Source: source, Hash: ds.Hash, Rows: ds.Len()}
	if err := s.db.InsertUpload(rec, counts); err != nil {
		s.log.Warn("record upload", zap.String("id", sess.ID), zap.Error(err))
	}

	s.log.Info("workbook loaded",
		zap.String("id", sess.ID),
		zap.String("dashboard", string(kind)),
		zap.String("source", source),
		zap.Int("rows", ds.Len()),
	)
	http.Redirect(w, r, "/"+string(kind)+"/"+sess.ID, http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	kind, sess, ok := s.sessionParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	p := page{
		Title:     dashboardTitles[kind],
		Dashboard: kind,
		Session:   sess,
		Query:     r.URL.RawQuery,
		ExportURL: "/" + string(kind) + "/" + sess.ID + "/export.xlsx",
	}
	if r.URL.RawQuery != "" {
		p.ExportURL += "?" + r.URL.RawQuery
	}

	rows := sess.Dataset.Projects.Rows
	switch kind {
	case internal.DashboardProjects:
		p.Projects = buildProjectsView(report.BuildProjects(rows, projectFilter(q), s.cfg.Dashboards), q)
	case internal.DashboardAugust:
		p.August = buildAugustView(report.BuildAugust(rows, s.cfg.Dashboards))
	case internal.DashboardMigration:
		p.Migration = buildMigrationView(report.BuildMigration(sess.Dataset.Migration, migrationFilter(q)))
	}
	s.render(w, r, http.StatusOK, "dashboard.html", p)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind, sess, ok := s.sessionParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var sheets []pipeline.Sheet
	switch kind {
	case internal.DashboardProjects:
		sheets = report.BuildProjects(sess.Dataset.Projects.Rows, projectFilter(q), s.cfg.Dashboards).Sheets()
	case internal.DashboardAugust:
		sheets = report.BuildAugust(sess.Dataset.Projects.Rows, s.cfg.Dashboards).Sheets()
	case internal.DashboardMigration:
		sheets = report.BuildMigration(sess.Dataset.Migration, migrationFilter(q)).Sheets()
	}

	var buf bytes.Buffer
	if err := pipeline.WriteWorkbook(&buf, sheets); err != nil {
		s.serverError(w, r, err)
		return
	}

	base := strings.TrimSuffix(sess.Dataset.Source, filepath.Ext(sess.Dataset.Source))
	filename := fmt.Sprintf("%s_%s.xlsx", kind, base)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) dashboardParam(w http.ResponseWriter, r *http.Request) (internal.Dashboard, bool) {
	kind, ok := internal.ParseDashboard(chi.URLParam(r, "dashboard"))
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "", "dashboard desconocido")
	}
	return kind, ok
}

// sessionParam resolves the session of the URL. The August dashboard reads
// the same export as the projects dashboard, so either can open it.
func (s *Server) sessionParam(w http.ResponseWriter, r *http.Request) (internal.Dashboard, *session, bool) {
	kind, ok := s.dashboardParam(w, r)
	if !ok {
		return "", nil, false
	}
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok || (kind == internal.DashboardMigration) != (sess.Dataset.Dashboard == internal.DashboardMigration) {
		s.renderError(w, r, http.StatusNotFound, kind, "la sesión no existe o expiró")
		return "", nil, false
	}
	return kind, sess, true
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, p); err != nil {
		s.serverError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, kind internal.Dashboard, msg string) {
	s.render(w, r, status, "error.html", page{Title: "Error", Dashboard: kind, Error: msg})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, "error interno", http.StatusInternalServerError)
}

package http

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"gameradar/internal/log"
	"gameradar/internal/notify"
	"gameradar/internal/reconciler"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	text, fileName := s.games.Export()
	NewResponse().
		Header("Content-Disposition", `attachment; filename="`+fileName+`"`).
		Text("text/csv; charset=utf-8", text).
		Write(w)
}

// handleImport replaces the whole store with an uploaded CSV. The body is
// either raw CSV text or a JSON object with a "csv" field.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	text, err := readImportText(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	res, err := s.games.Import(r.Context(), text)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Import failed",
			log.FieldOperation, log.OpImport,
			log.FieldError, err.Error())
		FromError(err).Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.imports, 1)
	NewResponse().JSON(res).Write(w)
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	rows, err := s.games.MirrorToSheet(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Sheet mirror failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err.Error())
		FromError(err).Write(w)
		return
	}
	NewResponse().JSON(map[string]int{"rows": rows}).Write(w)
}

// handlePoll runs one poll cycle now. A cycle already in flight yields 409.
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	var (
		res reconciler.Result
		err error
	)
	switch {
	case s.scheduler != nil:
		res, err = s.scheduler.TriggerNow(r.Context())
	case s.reconciler != nil:
		res, err = s.reconciler.Poll(r.Context())
	default:
		err = errors.New("poller not configured")
	}
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewResponse().JSON(res).Write(w)
}

type statusResponse struct {
	Poll         *reconciler.Status `json:"poll,omitempty"`
	Scheduler    string             `json:"scheduler"`
	Skipped      int64              `json:"skippedTicks"`
	Categories   int                `json:"categories"`
	Games        int                `json:"games"`
	Notification notify.Permission  `json:"notificationPermission,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Snapshot()
	resp := statusResponse{
		Scheduler:  "not_configured",
		Categories: len(snap.Categories),
		Games:      snap.TotalGames(),
	}
	if s.reconciler != nil {
		st := s.reconciler.Status()
		resp.Poll = &st
	}
	if s.scheduler != nil {
		resp.Scheduler = "stopped"
		if s.scheduler.IsRunning() {
			resp.Scheduler = "running"
		}
		resp.Skipped = s.scheduler.Skipped()
	}
	if s.gate != nil {
		resp.Notification = s.gate.Permission()
	}
	NewResponse().JSON(resp).Write(w)
}

type notificationsResponse struct {
	Permission notify.Permission     `json:"permission"`
	Recent     []notify.Notification `json:"recent"`
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	resp := notificationsResponse{
		Permission: notify.PermissionDefault,
		Recent:     []notify.Notification{},
	}
	if s.gate != nil {
		resp.Permission = s.gate.Permission()
	}
	if s.recent != nil {
		if recent := s.recent.Recent(); recent != nil {
			resp.Recent = recent
		}
	}
	NewResponse().JSON(resp).Write(w)
}

// handleNotificationPermission answers the one-time permission request. A
// permission that is already granted or denied does not change.
func (s *Server) handleNotificationPermission(w http.ResponseWriter, r *http.Request) {
	if s.gate == nil {
		ErrorResponse(http.StatusServiceUnavailable, "not_configured", "notifications are not configured").Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		FromError(err).Write(w)
		return
	}
	raw, err := p.Require("permission")
	if err != nil {
		FromError(err).Write(w)
		return
	}
	answer, err := notify.ParsePermission(raw)
	if err != nil {
		FromError(err).Write(w)
		return
	}

	got, err := s.gate.RequestPermission(r.Context(), notify.RequesterFunc(func(context.Context) (notify.Permission, error) {
		return answer, nil
	}))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewResponse().JSON(map[string]notify.Permission{"permission": got}).Write(w)
}

package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/courtsync/internal/domain/court"
)

func (h *Handler) ListCourts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCourts", routeAttr(r))
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.courts.Courts())
}

func (h *Handler) GetCourt(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCourt", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	c, err := h.courts.Court(id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, c)
}

// GetOverlay serves the broadcast read model. Overlay clients poll blindly,
// so an unknown or malformed court id gets an empty view instead of an
// error. ?format=flat drops the envelope for tools that bind to top-level
// fields.
func (h *Handler) GetOverlay(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOverlay", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		id = 0
	}
	view := h.courts.Overlay(id)
	if strings.EqualFold(r.URL.Query().Get("format"), "flat") {
		writeJSON(ctx, w, http.StatusOK, view)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, view)
}

func (h *Handler) ListChanges(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListChanges", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	changes, err := h.courts.ChangeLog(id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if changes == nil {
		changes = []court.Event{}
	}
	writeSuccess(ctx, w, http.StatusOK, changes)
}

func (h *Handler) StartCourt(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartCourt", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	c, err := h.courts.Start(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "start court failed", "court_id", id, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, c)
}

func (h *Handler) StopCourt(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StopCourt", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	c, err := h.courts.Stop(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, c)
}

func (h *Handler) NextMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.NextMatch", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	c, err := h.courts.Next(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, c)
}

func (h *Handler) PreviousMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PreviousMatch", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	c, err := h.courts.Previous(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, c)
}

func (h *Handler) RenameCourt(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RenameCourt", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req renameCourtRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	c, err := h.courts.Rename(ctx, id, req.Name)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, c)
}

func (h *Handler) StartAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartAll", routeAttr(r))
	defer span.End()

	started := h.courts.StartAll(ctx)
	if started == nil {
		started = []int{}
	}
	writeSuccess(ctx, w, http.StatusOK, startAllDTO{Started: started})
}

func (h *Handler) StopAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StopAll", routeAttr(r))
	defer span.End()

	h.courts.StopAll(ctx)
	writeSuccess(ctx, w, http.StatusOK, h.courts.Courts())
}

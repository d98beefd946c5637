package httpapi

import "net/http"

func (h *Handler) ReplaceQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReplaceQueue", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req replaceQueueRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	c, err := h.courts.ReplaceQueue(ctx, id, toMatchRefs(req.Matches))
	if err != nil {
		h.logger.WarnContext(ctx, "replace queue failed", "court_id", id, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, c)
}

func (h *Handler) AppendQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AppendQueue", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	var req appendQueueRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	c, err := h.courts.AppendQueue(ctx, id, toMatchRefs(req.Matches))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, c)
}

func (h *Handler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearQueue", routeAttr(r))
	defer span.End()

	id, err := courtIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	c, err := h.courts.ClearQueue(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, c)
}

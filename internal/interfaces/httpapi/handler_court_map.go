package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/usecase"
)

func (h *Handler) GetCourtMap(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCourtMap", routeAttr(r))
	defer span.End()

	if h.courtMap == nil {
		writeSuccess(ctx, w, http.StatusOK, courtMapDTO{Mappings: []court.Mapping{}})
		return
	}
	writeSuccess(ctx, w, http.StatusOK, courtMapDTO{Mappings: h.courtMap.All()})
}

// ReplaceCourtMap swaps the mapping and runs a reassignment pass right away
// so moved matches do not wait for the next sweep.
func (h *Handler) ReplaceCourtMap(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReplaceCourtMap", routeAttr(r))
	defer span.End()

	if h.courtMap == nil {
		writeError(ctx, w, fmt.Errorf("%w: court map is not configured", usecase.ErrDependencyUnavailable))
		return
	}
	var req replaceCourtMapRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.courtMap.Replace(ctx, req.toMappings()); err != nil {
		h.logger.ErrorContext(ctx, "replace court map failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	moved := h.courts.ReassignmentPass(ctx)
	writeSuccess(ctx, w, http.StatusOK, courtMapDTO{Mappings: h.courtMap.All(), Moved: moved})
}

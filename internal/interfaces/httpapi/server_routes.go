package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
}

func registerReadRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/courts", handler.ListCourts)
	mux.HandleFunc("GET /v1/courts/{courtID}", handler.GetCourt)
	mux.HandleFunc("GET /v1/courts/{courtID}/overlay", handler.GetOverlay)
	mux.HandleFunc("GET /v1/courts/{courtID}/changes", handler.ListChanges)
	mux.HandleFunc("GET /v1/court-map", handler.GetCourtMap)
}

func registerControlRoutes(mux *http.ServeMux, handler *Handler, token string) {
	guard := func(fn http.HandlerFunc) http.Handler {
		return RequireControlToken(token, fn)
	}

	mux.Handle("PUT /v1/courts/{courtID}/queue", guard(handler.ReplaceQueue))
	mux.Handle("POST /v1/courts/{courtID}/queue", guard(handler.AppendQueue))
	mux.Handle("DELETE /v1/courts/{courtID}/queue", guard(handler.ClearQueue))
	mux.Handle("PUT /v1/courts/{courtID}/name", guard(handler.RenameCourt))
	mux.Handle("POST /v1/courts/{courtID}/start", guard(handler.StartCourt))
	mux.Handle("POST /v1/courts/{courtID}/stop", guard(handler.StopCourt))
	mux.Handle("POST /v1/courts/{courtID}/next", guard(handler.NextMatch))
	mux.Handle("POST /v1/courts/{courtID}/previous", guard(handler.PreviousMatch))
	mux.Handle("POST /v1/courts/start-all", guard(handler.StartAll))
	mux.Handle("POST /v1/courts/stop-all", guard(handler.StopAll))
	mux.Handle("PUT /v1/court-map", guard(handler.ReplaceCourtMap))
}

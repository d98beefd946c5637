package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/courtsync/internal/domain/court"
	"github.com/riskibarqy/courtsync/internal/domain/match"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
	"github.com/riskibarqy/courtsync/internal/usecase"
)

const maxRequestBody = 1 << 20

// CourtService is the engine surface the HTTP layer drives.
type CourtService interface {
	Courts() []court.Court
	Court(id int) (court.Court, error)
	ChangeLog(id int) ([]court.Event, error)
	Overlay(id int) usecase.OverlayView

	Start(ctx context.Context, id int) (court.Court, error)
	Stop(ctx context.Context, id int) (court.Court, error)
	StartAll(ctx context.Context) []int
	StopAll(ctx context.Context)
	Next(ctx context.Context, id int) (court.Court, error)
	Previous(ctx context.Context, id int) (court.Court, error)
	Rename(ctx context.Context, id int, name string) (court.Court, error)

	ReplaceQueue(ctx context.Context, id int, refs []match.MatchRef) (court.Court, error)
	AppendQueue(ctx context.Context, id int, refs []match.MatchRef) (court.Court, error)
	ClearQueue(ctx context.Context, id int) (court.Court, error)

	ReassignmentPass(ctx context.Context) []usecase.Move
}

type CourtMap interface {
	All() []court.Mapping
	Replace(ctx context.Context, mappings []court.Mapping) error
}

type Handler struct {
	courts    CourtService
	courtMap  CourtMap
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(courts CourtService, courtMap CourtMap, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		courts:    courts,
		courtMap:  courtMap,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, out any) error {
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, out)
}

func courtIDFromPath(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("courtID"))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: court id %q must be a positive integer", usecase.ErrInvalidInput, raw)
	}
	return id, nil
}

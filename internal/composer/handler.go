package composer

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"hwc-composer/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Handler exposes compositor state and accepts display notifications from
// other processes over HTTP.
type Handler struct {
	comp *Compositor
	log  *slog.Logger
}

// NewHandler returns a Handler for comp.
func NewHandler(comp *Compositor, log *slog.Logger) *Handler {
	return &Handler{comp: comp, log: logger.OrDiscard(log)}
}

// Routes mounts the handler's endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/state", h.GetState)
	r.Route("/events", func(r chi.Router) {
		r.Post("/hotplug", h.PostHotplug)
		r.Post("/blank", h.PostBlank)
		r.Post("/video", h.PostVideo)
	})
}

type stateResponse struct {
	Analyzer AnalyzerState `json:"analyzer"`
	Cycles   CycleStats    `json:"cycles"`
}

// GetState handles GET /state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{
		Analyzer: h.comp.Analyzer().State(),
		Cycles:   h.comp.Stats(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("encode state failed", slog.String("error", err.Error()))
	}
}

// PostHotplug handles POST /events/hotplug. Body: {"connected": true}.
func (h *Handler) PostHotplug(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Connected *bool `json:"connected"`
	}
	if !h.decode(r, &body) || body.Connected == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.comp.Analyzer().PostHotplugEvent(*body.Connected)
	h.log.Info("hotplug event accepted", slog.Bool("connected", *body.Connected))
	w.WriteHeader(http.StatusAccepted)
}

// PostBlank handles POST /events/blank. Body: {"blank": true}.
func (h *Handler) PostBlank(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Blank *bool `json:"blank"`
	}
	if !h.decode(r, &body) || body.Blank == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.comp.Analyzer().PostBlankEvent(*body.Blank)
	h.log.Info("blank event accepted", slog.Bool("blank", *body.Blank))
	w.WriteHeader(http.StatusAccepted)
}

// PostVideo handles POST /events/video. Body: {"preparing": false, "playing": true}.
func (h *Handler) PostVideo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Preparing bool  `json:"preparing"`
		Playing   *bool `json:"playing"`
	}
	if !h.decode(r, &body) || body.Playing == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.comp.Analyzer().PostVideoEvent(body.Preparing, *body.Playing)
	h.log.Info("video event accepted",
		slog.Bool("preparing", body.Preparing),
		slog.Bool("playing", *body.Playing))
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) decode(r *http.Request, v any) bool {
	if r.Body == nil {
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Debug("invalid event body", slog.String("error", err.Error()))
		return false
	}
	return true
}

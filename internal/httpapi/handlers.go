package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/signalsfoundry/orbit-tracker/core"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/model"
)

type epochListResponse struct {
	Epochs []string `json:"epochs"`
	Count  int      `json:"count"`
	Total  int      `json:"total"`
	Offset int      `json:"offset"`
}

type speedResponse struct {
	Epoch    model.Epoch `json:"epoch"`
	SpeedKmS float64     `json:"speed_km_s"`
}

type locationResponse struct {
	Epoch model.Epoch `json:"epoch"`
	Frame string      `json:"frame"`
	model.GeoLocation
}

type nowResponse struct {
	Epoch    model.Epoch       `json:"epoch"`
	Position model.Vec3        `json:"position"`
	Velocity model.Vec3        `json:"velocity"`
	SpeedKmS float64           `json:"speed_km_s"`
	Location model.GeoLocation `json:"location"`
}

type statsResponse struct {
	Records         int     `json:"records"`
	FirstEpoch      string  `json:"first_epoch,omitempty"`
	LastEpoch       string  `json:"last_epoch,omitempty"`
	AverageSpeedKmS float64 `json:"average_speed_km_s"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Records    int    `json:"records"`
	LastIngest string `json:"last_ingest,omitempty"`
}

func (s *Server) handleListEpochs(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	limit, err := queryInt(r, "limit", -1)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if offset < 0 {
		s.writeError(w, r, http.StatusBadRequest, errors.New("offset must not be negative"))
		return
	}
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" && limit < 0 {
		s.writeError(w, r, http.StatusBadRequest, errors.New("limit must not be negative"))
		return
	}

	epochs := s.catalog.ListEpochs(offset, limit)
	writeJSON(w, http.StatusOK, epochListResponse{
		Epochs: epochs,
		Count:  len(epochs),
		Total:  s.catalog.Count(),
		Offset: offset,
	})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	epoch, ok := s.pathEpoch(w, r)
	if !ok {
		return
	}
	sv, err := s.catalog.Get(epoch)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	epoch, ok := s.pathEpoch(w, r)
	if !ok {
		return
	}
	speed, err := s.engine.SpeedAt(epoch)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, speedResponse{Epoch: epoch, SpeedKmS: speed})
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	epoch, ok := s.pathEpoch(w, r)
	if !ok {
		return
	}

	frame := core.FrameInertial
	frameName := "inertial"
	switch f := r.URL.Query().Get("frame"); f {
	case "", "inertial":
	case "ecef":
		frame = core.FrameECEF
		frameName = "ecef"
	default:
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("unknown frame %q", f))
		return
	}

	loc, err := s.engine.LocationAt(r.Context(), epoch, frame)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, locationResponse{Epoch: epoch, Frame: frameName, GeoLocation: loc})
}

func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Now(r.Context())
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, nowResponse{
		Epoch:    res.Record.Epoch,
		Position: res.Record.Position,
		Velocity: res.Record.Velocity,
		SpeedKmS: res.SpeedKmS,
		Location: res.Location,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Stats()
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	resp := statsResponse{
		Records:         st.Records,
		AverageSpeedKmS: st.AverageSpeedKmS,
	}
	if st.Records > 0 {
		resp.FirstEpoch = st.FirstEpoch.String()
		resp.LastEpoch = st.LastEpoch.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Records: s.catalog.Count()}
	if last := s.catalog.LastIngest(); !last.IsZero() {
		resp.LastIngest = last.UTC().Format("2006-01-02T15:04:05Z")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	force := true
	if raw := r.URL.Query().Get("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid force value %q", raw))
			return
		}
		force = parsed
	}

	summary, err := s.refresher.Refresh(r.Context(), force)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// pathEpoch parses the {epoch} path variable, answering 400 itself on
// malformed input.
func (s *Server) pathEpoch(w http.ResponseWriter, r *http.Request) (model.Epoch, bool) {
	raw := mux.Vars(r)["epoch"]
	epoch, err := model.ParseEpoch(raw)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return model.Epoch{}, false
	}
	return epoch, true
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidEpochFormat):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrEmptyInput):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrTransport), errors.Is(err, model.ErrMalformedFeed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed",
			logging.String("path", r.URL.Path),
			logging.String("error", err.Error()))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", key, raw)
	}
	return v, nil
}

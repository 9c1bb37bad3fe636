package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gilestrolab/ethosensor/internal/config"
	"github.com/gilestrolab/ethosensor/internal/logging"
	"github.com/gilestrolab/ethosensor/internal/storage"
)

// statusResponse is the reading+identity document served on /.
type statusResponse struct {
	ID          string  `json:"id"`
	IP          string  `json:"ip"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	Light       uint32  `json:"light"`
	Fresh       bool    `json:"fresh"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	env, ok := s.poller.Snapshot()
	cfg := s.Configuration()

	writeJSON(w, r, http.StatusOK, statusResponse{
		ID:          s.config.ID,
		IP:          s.config.IP,
		Name:        cfg.Name,
		Location:    cfg.Location,
		Temperature: env.Temperature,
		Humidity:    env.Humidity,
		Pressure:    env.Pressure,
		Light:       env.Light,
		Fresh:       ok,
	})
}

func (s *Server) handleID(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"id": s.config.ID})
}

// handleSet applies configuration field updates. Each recognized field goes
// through the storage façade; the in-memory mirror is only touched after the
// façade reports success, and the full record is re-saved at the end so the
// durable copy reflects the whole mirror.
func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	updates, err := decodeSetRequest(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}
	if len(updates) == 0 {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
		return
	}

	// Reject unknown fields before mutating anything.
	for field := range updates {
		if !config.IsField(field) {
			writeJSON(w, r, http.StatusBadRequest, map[string]string{
				"error": storage.ErrorString(storage.ErrInvalidField),
				"field": field,
			})
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, field := range config.Fields() {
		value, present := updates[field]
		if !present {
			continue
		}
		if err := s.store.UpdateField(field, value); err != nil {
			logging.Warn("Field update rejected",
				zap.String("field", field),
				zap.Error(err),
			)
			writeJSON(w, r, statusForStorageError(err), map[string]string{
				"error": storage.ErrorString(s.store.LastError()),
				"field": field,
			})
			return
		}
		s.cfg.Set(field, value)
		changed = true
	}

	if changed {
		if err := s.store.SaveConfig(&s.cfg); err != nil {
			writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "Failed to save configuration"})
			return
		}
		logging.Info("Configuration updated",
			zap.String("name", s.cfg.Name),
			zap.String("location", s.cfg.Location),
		)
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "Configuration updated successfully"})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "No changes made"})
}

// handleReset acknowledges and then asks the daemon to restart. The delay
// lets the response reach the client first. Reset is always an explicit
// caller action, never a storage-error side effect.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "OK", "message": "Resetting"})

	if s.restart != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.restart()
		}()
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "Not found"})
}

// decodeSetRequest accepts either a JSON object of field/value pairs or the
// firmware's HTML-form fallback (sensor_name/location fields).
func decodeSetRequest(r *http.Request) (map[string]string, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var updates map[string]string
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			return nil, err
		}
		return updates, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	updates := make(map[string]string)
	if v := r.PostForm.Get("sensor_name"); v != "" {
		updates[config.FieldName] = v
	}
	if r.PostForm.Has("location") {
		updates[config.FieldLocation] = r.PostForm.Get("location")
	}
	if len(updates) == 0 {
		return nil, errors.New("no recognized form fields")
	}
	return updates, nil
}

// statusForStorageError maps storage codes onto HTTP statuses: caller-input
// errors are 400s, everything else is the device's fault.
func statusForStorageError(err error) int {
	var code storage.Code
	if errors.As(err, &code) {
		switch code {
		case storage.ErrInvalidField:
			return http.StatusBadRequest
		case storage.ErrValidationFailed:
			// No valid prior record to update (block storage).
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
	}
	logging.LogHTTPResponse(r.RemoteAddr, r.URL.Path, status)
}

package sim

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lecztomek/furnace-panel/internal/api"
	"github.com/lecztomek/furnace-panel/internal/logging"
)

const (
	// writeWait is the time allowed to write a frame to a stream client.
	writeWait = 10 * time.Second

	// defaultStreamInterval is the push period when the client does not
	// request one via interval_ms.
	defaultStreamInterval = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The simulator is a LAN development tool, any origin is fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// routes builds the controller's HTTP surface.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /state/current", s.handleState)
	mux.HandleFunc("GET /config/modules", s.handleModules)
	mux.HandleFunc("GET /config/schema/{module}", s.handleSchema)
	mux.HandleFunc("GET /config/values/{module}", s.handleGetValues)
	mux.HandleFunc("PUT /config/values/{module}", s.handlePutValues)
	mux.HandleFunc("GET /config/value/{module}/{key}", s.handleGetValue)
	mux.HandleFunc("PUT /config/value/{module}/{key}", s.handlePutValue)
	mux.HandleFunc("GET /manual/current", s.handleManual)
	mux.HandleFunc("POST /manual/outputs", s.handleManualPatch)
	mux.HandleFunc("GET /ws/state", s.handleStateStream)

	return mux
}

// writeJSON writes a 200 response with a JSON body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode response", zap.Error(err))
	}
}

// writeDetail writes an error response in the controller's envelope shape.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.boiler.Snapshot())
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.boiler.Modules())
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	moduleID := r.PathValue("module")
	sch, ok := s.boiler.Schema(moduleID)
	if !ok {
		writeDetail(w, http.StatusNotFound, "unknown module "+moduleID)
		return
	}
	writeJSON(w, sch)
}

func (s *Server) handleGetValues(w http.ResponseWriter, r *http.Request) {
	moduleID := r.PathValue("module")
	vals, ok := s.boiler.Values(moduleID)
	if !ok {
		writeDetail(w, http.StatusNotFound, "unknown module "+moduleID)
		return
	}
	writeJSON(w, vals)
}

func (s *Server) handlePutValues(w http.ResponseWriter, r *http.Request) {
	moduleID := r.PathValue("module")

	var draft map[string]any
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reconciled, err := s.boiler.PutValues(moduleID, draft)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	logging.Info("Configuration saved",
		zap.String("module", moduleID),
		zap.Int("fields", len(reconciled)),
	)
	writeJSON(w, reconciled)
}

func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request) {
	v, err := s.boiler.Value(r.PathValue("module"), r.PathValue("key"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, v)
}

func (s *Server) handlePutValue(w http.ResponseWriter, r *http.Request) {
	var value any
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v, err := s.boiler.PutValue(r.PathValue("module"), r.PathValue("key"), value)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.boiler.Manual())
}

func (s *Server) handleManualPatch(w http.ResponseWriter, r *http.Request) {
	var patch api.ManualPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.boiler.PatchManual(&patch); err != nil {
		writeDetail(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, s.boiler.Manual())
}

// handleStateStream upgrades to a websocket and pushes state snapshots in
// the {"type":"state","data":...} envelope until the client goes away.
func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	interval := defaultStreamInterval
	if raw := r.URL.Query().Get("interval_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 100 {
			writeDetail(w, http.StatusBadRequest, "interval_ms must be an integer >= 100")
			return
		}
		interval = time.Duration(ms) * time.Millisecond
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("Websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	remoteAddr := r.RemoteAddr
	s.trackClient(remoteAddr, conn)
	defer func() {
		s.untrackClient(remoteAddr)
		_ = conn.Close()
		logging.Info("Stream client disconnected", zap.String("remote_addr", remoteAddr))
	}()

	logging.Info("Stream client connected",
		zap.String("remote_addr", remoteAddr),
		zap.Duration("interval", interval),
	)

	// Drain incoming frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		data, err := json.Marshal(s.boiler.Snapshot())
		if err != nil {
			continue
		}
		env := map[string]any{"type": "state", "data": json.RawMessage(data)}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(env); err != nil {
			return
		}
	}
}

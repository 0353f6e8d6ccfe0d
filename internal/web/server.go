package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"webp-converter-go/internal/config"
	"webp-converter-go/internal/converter"
	"webp-converter-go/internal/statistics"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server exposes a small web interface for running conversions: start a
// batch, watch per-file progress over WebSocket, cancel it, read the
// aggregate statistics.
type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.RWMutex

	// Current batch state. One batch at a time.
	batchMutex   sync.RWMutex
	isRunning    bool
	cancelBatch  context.CancelFunc
	currentStats *statistics.ConversionStats
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ConvertRequest is the body of POST /api/convert.
type ConvertRequest struct {
	Input        string `json:"input"`
	OutputFolder string `json:"output_folder,omitempty"`
	Quality      int    `json:"quality,omitempty"`
	Lossless     bool   `json:"lossless"`
	Method       *int   `json:"method,omitempty"`
	Recursive    bool   `json:"recursive"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewServer returns a configured server. cfg supplies the conversion
// defaults that requests may override.
func NewServer(cfg *config.Config, log *logrus.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local tool, no cross-origin concerns
			},
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/convert", s.handleConvert).Methods("POST")
	api.HandleFunc("/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/statistics", s.handleGetStatistics).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/", s.handleIndex).Methods("GET")
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Infof("Starting web server on http://localhost%s", addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.batchMutex.Lock()
	if s.cancelBatch != nil {
		s.cancelBatch()
	}
	s.batchMutex.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.batchMutex.RLock()
	running := s.isRunning
	stats := s.currentStats
	s.batchMutex.RUnlock()

	var statsData interface{}
	if stats != nil {
		statsData = stats.GetSnapshot()
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"running":    running,
			"statistics": statsData,
		},
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Input == "" {
		s.writeError(w, "Input path is required", http.StatusBadRequest)
		return
	}

	if _, err := os.Stat(req.Input); os.IsNotExist(err) {
		s.writeError(w, "Input path does not exist", http.StatusBadRequest)
		return
	}

	if req.Quality != 0 && (req.Quality < 1 || req.Quality > 100) {
		s.writeError(w, "Quality must be between 1 and 100", http.StatusBadRequest)
		return
	}
	if req.Method != nil && (*req.Method < 0 || *req.Method > 6) {
		s.writeError(w, "Method must be between 0 and 6", http.StatusBadRequest)
		return
	}

	s.batchMutex.Lock()
	if s.isRunning {
		s.batchMutex.Unlock()
		s.writeError(w, "Conversion already in progress", http.StatusConflict)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.isRunning = true
	s.cancelBatch = cancel
	s.currentStats = statistics.NewConversionStats()
	s.batchMutex.Unlock()

	go s.runConvertAsync(ctx, req)

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Conversion started",
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.batchMutex.Lock()
	if s.cancelBatch != nil {
		s.cancelBatch()
	}
	s.batchMutex.Unlock()

	s.broadcastWSMessage("stop_requested", map[string]interface{}{
		"message": "Conversion stop requested by user",
	})

	s.writeJSON(w, APIResponse{
		Success: true,
		Message: "Stop requested",
	})
}

func (s *Server) handleGetStatistics(w http.ResponseWriter, r *http.Request) {
	s.batchMutex.RLock()
	stats := s.currentStats
	s.batchMutex.RUnlock()

	if stats == nil {
		s.writeJSON(w, APIResponse{Success: true, Data: nil})
		return
	}

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"summary":    stats.GetSummary(),
			"statistics": stats.GetSnapshot(),
		},
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	s.log.Debug("WebSocket client connected")

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		s.log.Debug("WebSocket client disconnected")
	}()

	// Keep connection alive until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// runConvertAsync runs one batch in the background, streaming per-file
// events to connected WebSocket clients.
func (s *Server) runConvertAsync(ctx context.Context, req ConvertRequest) {
	s.batchMutex.RLock()
	stats := s.currentStats
	s.batchMutex.RUnlock()

	quality := s.cfg.Quality
	if req.Quality != 0 {
		quality = req.Quality
	}
	method := s.cfg.Method
	if req.Method != nil {
		method = *req.Method
	}

	convReq := converter.Request{
		Input:        req.Input,
		OutputFolder: req.OutputFolder,
		Quality:      quality,
		Lossless:     req.Lossless,
		Method:       method,
		Recursive:    req.Recursive,
	}

	s.broadcastWSMessage("convert_started", map[string]interface{}{
		"input":     req.Input,
		"quality":   quality,
		"lossless":  req.Lossless,
		"recursive": req.Recursive,
	})

	conv := converter.NewWebPConverter(quality, req.Lossless, method, s.log)
	batch := converter.NewBatch(conv, s.log, stats, s.cfg.Performance.Workers)
	batch.SetProgressFunc(func(event, path, message string) {
		s.broadcastWSMessage("file_"+event, map[string]interface{}{
			"path":    path,
			"message": message,
		})
	})

	err := batch.Run(ctx, convReq)

	s.batchMutex.Lock()
	s.isRunning = false
	if s.cancelBatch != nil {
		s.cancelBatch()
		s.cancelBatch = nil
	}
	s.batchMutex.Unlock()

	if err != nil {
		s.broadcastWSMessage("convert_error", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.broadcastWSMessage("convert_completed", map[string]interface{}{
		"summary":    stats.GetSummary(),
		"statistics": stats.GetSnapshot(),
	})
}

func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	message := WSMessage{
		Type: messageType,
		Data: data,
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	s.wsMutex.RLock()
	defer s.wsMutex.RUnlock()

	for conn := range s.wsClients {
		if err := conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			go func(c *websocket.Conn) {
				s.wsMutex.Lock()
				delete(s.wsClients, c)
				s.wsMutex.Unlock()
				c.Close()
			}(conn)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}

package sim

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lecztomek/furnace-panel/internal/logging"
	"github.com/lecztomek/furnace-panel/internal/state"
)

// Config holds the simulator configuration.
type Config struct {
	Host         string
	Port         int
	LogLevel     string
	TickInterval time.Duration
	InitialMode  state.Mode
}

// Server runs the simulated controller: the boiler model, its tick loop,
// and the HTTP/websocket API the panel talks to.
type Server struct {
	config *Config
	boiler *Boiler
	http   *http.Server

	mu      sync.Mutex
	clients map[string]*websocket.Conn

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a simulator from the given configuration.
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	mode := config.InitialMode
	if mode == "" {
		mode = state.ModeWork
	}

	s := &Server{
		config:  config,
		boiler:  NewBoiler(mode),
		clients: make(map[string]*websocket.Conn),
		done:    make(chan struct{}),
	}
	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streams write indefinitely
	}
	return s, nil
}

// Boiler exposes the underlying model, used by tests and the serve command.
func (s *Server) Boiler() *Boiler {
	return s.boiler
}

// Start runs the simulator and blocks until a shutdown signal or a listener
// error.
func (s *Server) Start() error {
	logging.Info("Starting furnace controller simulator",
		zap.String("addr", s.http.Addr),
		zap.String("mode", string(s.config.InitialMode)),
		zap.Duration("tick", s.config.TickInterval),
		zap.String("log_level", s.config.LogLevel),
	)

	s.wg.Add(1)
	go s.tickLoop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.http.ListenAndServe()
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping simulator...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// tickLoop advances the boiler model until shutdown.
func (s *Server) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.boiler.Tick()
		}
	}
}

// Shutdown stops the tick loop, closes stream clients, and drains the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down simulator...")

	close(s.done)

	s.mu.Lock()
	for addr, conn := range s.clients {
		logging.Info("Closing stream client", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		logging.Warn("HTTP shutdown did not complete cleanly", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Info("Simulator stopped")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	_ = logging.GetLogger().Sync()
	return nil
}

// ActiveStreamClients returns the number of connected stream clients.
func (s *Server) ActiveStreamClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) trackClient(addr string, conn *websocket.Conn) {
	s.mu.Lock()
	s.clients[addr] = conn
	s.mu.Unlock()
}

func (s *Server) untrackClient(addr string) {
	s.mu.Lock()
	delete(s.clients, addr)
	s.mu.Unlock()
}

package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/pose.report/internal/fsutil"
	"github.com/banshee-data/pose.report/internal/httputil"
	"github.com/banshee-data/pose.report/internal/monitoring"
	"github.com/banshee-data/pose.report/internal/pose/l1tensor"
	"github.com/banshee-data/pose.report/internal/pose/pipeline"
	"github.com/banshee-data/pose.report/internal/pose/storage/sqlite"
	"github.com/banshee-data/pose.report/internal/security"
	"github.com/banshee-data/pose.report/internal/version"
)

const (
	// maxTensorBytes caps a decode request body.
	maxTensorBytes = 64 << 20

	frameIDHeader = "X-Pose-Frame-Id"
	plotsPrefix   = "/debug/pose/plots/"
)

// WebServerConfig configures a WebServer. Decoder is required; the rest are
// optional.
type WebServerConfig struct {
	Address string
	Decoder *pipeline.Decoder
	// Store persists every decoded frame when set.
	Store *sqlite.Store
	// DebugDir is the directory the debug writer saves PNGs to.
	DebugDir string
	FS       fsutil.FileSystem
}

// WebServer is the pose HTTP front end.
type WebServer struct {
	address  string
	decoder  *pipeline.Decoder
	store    *sqlite.Store
	debugDir string
	fs       fsutil.FileSystem
	server   *http.Server

	mu         sync.RWMutex
	lastTensor *l1tensor.Tensor
	lastResult *pipeline.Result
}

// NewWebServer builds the server and its routes. It does not listen.
func NewWebServer(config WebServerConfig) (*WebServer, error) {
	if config.Decoder == nil {
		return nil, errors.New("monitor: decoder is required")
	}
	ws := &WebServer{
		address:  config.Address,
		decoder:  config.Decoder,
		store:    config.Store,
		debugDir: config.DebugDir,
		fs:       config.FS,
	}
	if ws.fs == nil {
		ws.fs = fsutil.OSFileSystem{}
	}

	mux, err := ws.setupRoutes()
	if err != nil {
		return nil, err
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws, nil
}

// Handler returns the route multiplexer.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// Start serves until ctx is cancelled, then shuts the server down. It
// returns early with the listen error if the server cannot start.
func (ws *WebServer) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("start http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	monitoring.Logf("HTTP server routine stopped")
	return nil
}

func (ws *WebServer) setupRoutes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/pose/decode", ws.handleDecode)
	mux.HandleFunc("/api/pose/frames", ws.handleFrames)
	mux.HandleFunc("/debug/pose/heatmap", ws.handleHeatmapChart)
	mux.HandleFunc("/debug/pose/bodies", ws.handleBodiesChart)
	mux.HandleFunc(plotsPrefix, ws.handlePlot)

	if ws.store != nil {
		if err := ws.store.AttachAdminRoutes(mux); err != nil {
			return nil, fmt.Errorf("attach admin routes: %w", err)
		}
	}
	return mux, nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleDecode decodes a tensor envelope and answers with the bodies in the
// wire format. The optional source query parameter labels the stored frame.
func (ws *WebServer) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}

	t, err := l1tensor.DecodeEnvelope(http.MaxBytesReader(w, r.Body, maxTensorBytes))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	res, err := ws.decoder.DecodeContext(r.Context(), t)
	if err != nil {
		if errors.Is(err, l1tensor.ErrShape) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}

	ws.mu.Lock()
	ws.lastTensor, ws.lastResult = t, res
	ws.mu.Unlock()

	if ws.store != nil {
		source := r.URL.Query().Get("source")
		if source == "" {
			source = "http"
		}
		id, err := ws.store.SaveFrame(source, res.Height, res.Width, res.Bodies)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to store frame: %v", err))
			return
		}
		w.Header().Set(frameIDHeader, id)
	}

	monitoring.Debugf("decoded %dx%d frame: %d bodies in %v", res.Width, res.Height, len(res.Bodies), res.Stats.Total())
	httputil.WriteJSONOK(w, pipeline.ToWire(res.Bodies))
}

// handleFrames lists recently stored frames, newest first.
func (ws *WebServer) handleFrames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	if ws.store == nil {
		httputil.ServiceUnavailable(w, "pose store not configured")
		return
	}

	limit := sqlite.DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid limit %q", s))
			return
		}
		limit = v
	}

	frames, err := ws.store.ListFrames(limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, frames)
}

// handlePlot serves one PNG from the debug directory.
func (ws *WebServer) handlePlot(w http.ResponseWriter, r *http.Request) {
	if ws.debugDir == "" {
		httputil.NotFound(w, "debug visualisation disabled")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, plotsPrefix)
	if filepath.Ext(name) != ".png" {
		httputil.BadRequest(w, "only .png plots are served")
		return
	}
	path, err := security.ResolveFile(ws.debugDir, name)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	data, err := ws.fs.ReadFile(path)
	if err != nil {
		httputil.NotFound(w, fmt.Sprintf("plot %s not found", name))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// last returns the most recent decode, or nils before the first one.
func (ws *WebServer) last() (*l1tensor.Tensor, *pipeline.Result) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.lastTensor, ws.lastResult
}

package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/simhost/internal/db"
	"github.com/banshee-data/simhost/internal/episode"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	episode *episode.Episode
	db      *db.DB
}

func NewServer(e *episode.Episode, database *db.DB) *Server {
	return &Server{
		episode: e,
		db:      database,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/layers", s.listLayers)
	mux.HandleFunc("/api/layers/load", s.loadLayers)
	mux.HandleFunc("/api/layers/unload", s.unloadLayers)
	mux.HandleFunc("/api/streaming/status", s.showStreamingStatus)
	mux.HandleFunc("/api/streaming/batches", s.listBatches)
	mux.HandleFunc("/api/episode", s.showEpisode)
	mux.HandleFunc("/api/episodes", s.listEpisodes)
	mux.HandleFunc("/api/objects", s.listObjects)
	mux.HandleFunc("/api/objects/enable", s.enableObjects)
	mux.HandleFunc("/api/signals", s.listSignals)
	mux.HandleFunc("/api/signals/lanes", s.showSignalLanes)
	return mux
}

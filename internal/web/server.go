// Package web puts an HTTP face on the doorbell: poll, list doors,
// open the door. The library's error families collapse to plain HTTP
// statuses here; only unauthorized keeps its own one.
package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/openviper/viperclient/internal/config"
	"github.com/openviper/viperclient/viper/message"
)

// Doorbell is the slice of the client the façade drives. *viper.Client
// satisfies it.
type Doorbell interface {
	Authorize(token string) (*message.AuthResponse, error)
	Configuration(addressbooks string) (*message.ConfigResponse, error)
	OpenDoor(vip *message.Vip) error
	Shutdown() error
}

// Server handles the façade routes. Each request dials a fresh client;
// the doorbell does not keep sessions around.
type Server struct {
	cfg     *config.Config
	dial    func() (Doorbell, error)
	poll    func() bool
	store   *DoorStore // nil disables the cache
	limiter *rate.Limiter
}

// New wires the façade. store may be nil.
func New(cfg *config.Config, dial func() (Doorbell, error), poll func() bool, store *DoorStore) *Server {
	every := cfg.OpenRateEvery
	if every <= 0 {
		every = time.Nanosecond
	}
	return &Server{
		cfg:     cfg,
		dial:    dial,
		poll:    poll,
		store:   store,
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}
}

// Handler builds the route table with logging, request ids and brotli
// compression applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/poll", s.handlePoll)
	mux.HandleFunc("GET /api/v1/doors", s.handleDoors)
	mux.HandleFunc("POST /api/v1/open", s.handleOpen)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	h := withCompression(mux)
	h = withRequestID(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", d).
			Msg("request")
	})(h)
	return hlog.NewHandler(log.With().Str("component", "web").Logger())(h)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type pollReply struct {
	Available bool `json:"available"`
}

type openReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	requestsTotal.WithLabelValues("poll", "ok").Inc()
	writeJSON(w, http.StatusOK, pollReply{Available: s.poll()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authorize dials and authenticates. The bool reports whether the
// doorbell accepted the token; err covers everything else.
func (s *Server) authorize() (Doorbell, bool, error) {
	client, err := s.dial()
	if err != nil {
		return nil, false, err
	}
	auth, err := client.Authorize(s.cfg.Token)
	if err != nil {
		client.Shutdown()
		return nil, false, err
	}
	if !auth.OK() {
		client.Shutdown()
		return nil, false, nil
	}
	return client, true, nil
}

func (s *Server) handleDoors(w http.ResponseWriter, r *http.Request) {
	client, ok, err := s.authorize()
	if err != nil {
		if s.serveCachedDoors(w, r) {
			return
		}
		requestsTotal.WithLabelValues("doors", "error").Inc()
		http.Error(w, "doorbell unreachable", http.StatusBadGateway)
		return
	}
	if !ok {
		requestsTotal.WithLabelValues("doors", "unauthorized").Inc()
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	defer client.Shutdown()

	cfg, err := client.Configuration("all")
	if err != nil {
		requestsTotal.WithLabelValues("doors", "error").Inc()
		http.Error(w, "configuration failed", http.StatusBadGateway)
		return
	}

	if s.store != nil {
		if payload, err := json.Marshal(cfg.Vip); err == nil {
			if err := s.store.SaveVip(s.cfg.DoorbellIP, payload); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("door cache write failed")
			}
		}
	}

	requestsTotal.WithLabelValues("doors", "ok").Inc()
	writeJSON(w, http.StatusOK, cfg.Vip)
}

// serveCachedDoors answers a doors request from sqlite when the
// doorbell is asleep. Reports whether it wrote a response.
func (s *Server) serveCachedDoors(w http.ResponseWriter, r *http.Request) bool {
	if s.store == nil {
		return false
	}
	payload, at, err := s.store.LoadVip(s.cfg.DoorbellIP)
	if err != nil || payload == nil {
		return false
	}

	doorsServedFromCache.Inc()
	requestsTotal.WithLabelValues("doors", "cached").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Viper-Cached-At", at.Format(time.RFC3339))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
	return true
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		requestsTotal.WithLabelValues("open", "throttled").Inc()
		http.Error(w, "door busy", http.StatusTooManyRequests)
		return
	}

	client, ok, err := s.authorize()
	if err != nil {
		requestsTotal.WithLabelValues("open", "error").Inc()
		http.Error(w, "doorbell unreachable", http.StatusBadGateway)
		return
	}
	if !ok {
		requestsTotal.WithLabelValues("open", "unauthorized").Inc()
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	defer client.Shutdown()

	cfg, err := client.Configuration("all")
	if err != nil {
		requestsTotal.WithLabelValues("open", "error").Inc()
		http.Error(w, "configuration failed", http.StatusBadGateway)
		return
	}

	start := time.Now()
	if err := client.OpenDoor(&cfg.Vip); err != nil {
		requestsTotal.WithLabelValues("open", "error").Inc()
		hlog.FromRequest(r).Error().Err(err).Msg("open door failed")
		writeJSON(w, http.StatusBadGateway, openReply{Success: false, Error: err.Error()})
		return
	}
	doorOpenSeconds.Observe(time.Since(start).Seconds())

	requestsTotal.WithLabelValues("open", "ok").Inc()
	writeJSON(w, http.StatusOK, openReply{Success: true})
}

// withRequestID tags every request with a fresh id, echoed in the
// response header and attached to the request's logger.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		logger := hlog.FromRequest(r).With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

// SPDX-License-Identifier: LGPL-3.0-or-later

package httpserver

import (
	"time"

	"github.com/gorilla/mux"
	"github.com/securechan/securechan/config"
	"github.com/securechan/securechan/internal/logger"
	"github.com/securechan/securechan/internal/store"
	"github.com/securechan/securechan/keyschedule"
	"github.com/securechan/securechan/session"
)

// pendingTTL bounds how long a sent M1 response waits for its matching M2
// request before the pending handshake is considered abandoned.
const pendingTTL = 2 * time.Minute

// Server wires the handshake, session and fileae packages to HTTP, backed
// by a store.Store for pending-handshake and object durability and a
// session.Manager for live session frame processing.
type Server struct {
	cfg     *config.SessionConfig
	jwt     *jwtVerifier
	store   store.Store
	log     logger.Logger
	sessMgr *session.Manager
	deriver keyschedule.Deriver
}

// New constructs a Server. cfg controls frame skew, idle/max-age policy and
// the key schedule variant; jwtSecret authenticates the file-upload bearer
// token (see auth.go).
func New(cfg *config.SessionConfig, st store.Store, jwtSecret string, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewDefaultLogger()
	}
	if cfg.NonceTTL == 0 {
		cfg.NonceTTL = 10 * time.Minute
	}
	sessMgr := session.NewManager()
	sessMgr.SetDefaultConfig(session.Config{
		MaxAge:      cfg.MaxAge,
		IdleTimeout: cfg.IdleTimeout,
	})

	var deriver keyschedule.Deriver
	if cfg.KeySchedule == "hkdf" {
		deriver = keyschedule.HKDFDeriver{}
	} else {
		deriver = keyschedule.HMACDeriver{}
	}

	return &Server{
		cfg:     cfg,
		jwt:     newJWTVerifier(jwtSecret),
		store:   st,
		log:     log,
		sessMgr: sessMgr,
		deriver: deriver,
	}
}

// Router builds the reference server's gorilla/mux router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/handshake/init", s.handleInit).Methods("POST")
	r.HandleFunc("/handshake/finalize", s.handleFinalize).Methods("POST")
	r.HandleFunc("/session/test", s.handleSessionTest).Methods("POST")
	r.HandleFunc("/files/one/encrypted", s.requireBearer(s.handleUpload)).Methods("POST")
	r.HandleFunc("/files/one/{id}", s.requireBearer(s.handleDownload)).Methods("GET")
	return r
}

// Close releases the session manager's background resources.
func (s *Server) Close() error {
	return s.sessMgr.Close()
}

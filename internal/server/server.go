// Package server is the transport and session layer: it authenticates
// websocket connections, feeds parsed commands into the game pipeline, and
// implements the gateway that delivers projected views and rejections.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/a-Leong/dutch.cards/internal/auth"
	"github.com/a-Leong/dutch.cards/internal/database"
	"github.com/a-Leong/dutch.cards/internal/game"
	"github.com/a-Leong/dutch.cards/internal/models"
)

const writeTimeout = 5 * time.Second

// clientEnvelope is one inbound frame. The player identity never comes from
// the wire; it is stamped from the authenticated session.
type clientEnvelope struct {
	Command models.Command `json:"command"`
}

// updateMessage wraps a projected view for delivery.
type updateMessage struct {
	ID    string            `json:"id"`
	State *game.ClientState `json:"state"`
}

// Server owns the websocket sessions for the single game room.
type Server struct {
	log  *logrus.Logger
	game *game.DutchGame

	mu    sync.Mutex
	conns map[uuid.UUID]*websocket.Conn
}

// New wires a Server to the game as its gateway.
func New(g *game.DutchGame, log *logrus.Logger) *Server {
	s := &Server{
		log:   log,
		game:  g,
		conns: make(map[uuid.UUID]*websocket.Conn),
	}
	g.BroadcastFn = s.broadcastUpdate
	g.RejectFn = s.sendReject
	return s
}

// Routes returns the HTTP mux: credential endpoints plus the game socket.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/token", s.handleToken)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// handleWS authenticates the caller, upgrades the connection, and runs the
// read loop. Malformed or unauthenticated requests never reach the game.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	uid, err := auth.VerifyToken(token)
	if err != nil {
		s.log.Warnf("ws auth failed: %v", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warnf("ws accept failed for %s: %v", uid, err)
		return
	}

	s.register(uid, conn)
	s.game.HandleCommand(uid, models.Command{ID: models.CmdConnectToRoom})
	s.log.WithField("player", uid).Info("connection established")

	defer func() {
		// A superseded session must not unseat the player behind the live
		// one; only the connection that still owns the mapping disconnects.
		if s.unregister(uid, conn) {
			s.game.HandleCommand(uid, models.Command{ID: models.CmdDisconnectFromRoom})
		}
		conn.Close(websocket.StatusNormalClosure, "session ended")
		s.log.WithField("player", uid).Info("connection closed")
	}()

	for {
		var env clientEnvelope
		if err := wsjson.Read(r.Context(), conn, &env); err != nil {
			return
		}
		if env.Command.ID == "" {
			// Malformed frame: reject at the transport, core never sees it.
			s.sendReject(uid, game.Rejection{
				ID:     "reject",
				Reason: "missing command id",
			})
			continue
		}
		s.game.HandleCommand(uid, env.Command)
	}
}

// broadcastUpdate delivers one tailored view per player. Deliveries are
// independent and fire-and-forget; a slow or dead connection never stalls
// the command pipeline.
func (s *Server) broadcastUpdate(views map[uuid.UUID]*game.ClientState) {
	s.mu.Lock()
	targets := make(map[uuid.UUID]*websocket.Conn, len(views))
	for uid := range views {
		if conn, ok := s.conns[uid]; ok {
			targets[uid] = conn
		}
	}
	s.mu.Unlock()

	for uid, conn := range targets {
		go s.write(uid, conn, updateMessage{ID: "update", State: views[uid]})
	}
}

// sendReject delivers a rejection to exactly one player.
func (s *Server) sendReject(player uuid.UUID, rej game.Rejection) {
	s.mu.Lock()
	conn, ok := s.conns[player]
	s.mu.Unlock()
	if !ok {
		return
	}
	go s.write(player, conn, rej)
}

func (s *Server) write(uid uuid.UUID, conn *websocket.Conn, v any) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, v); err != nil {
		s.log.WithField("player", uid).Debugf("write failed: %v", err)
	}
}

func (s *Server) register(uid uuid.UUID, conn *websocket.Conn) {
	s.mu.Lock()
	old := s.conns[uid]
	s.conns[uid] = conn
	s.mu.Unlock()
	if old != nil {
		// Close handshakes with the peer and can stall against one that has
		// stopped reading; keep it off the lock and off this session's path.
		go old.Close(websocket.StatusPolicyViolation, "superseded by new connection")
	}
}

// unregister drops the mapping if it still points at this connection and
// reports whether it did; a reconnect may already have replaced it.
func (s *Server) unregister(uid uuid.UUID, conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.conns[uid]; ok && cur == conn {
		delete(s.conns, uid)
		return true
	}
	return false
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// handleRegister creates an account. Requires the database.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if creds.Username == "" || creds.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}
	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		s.log.Errorf("hashing password: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	user, err := database.CreateUser(r.Context(), creds.Username, hash)
	if err != nil {
		s.log.Warnf("creating user %q: %v", creds.Username, err)
		http.Error(w, "could not create user", http.StatusConflict)
		return
	}
	s.issueToken(w, user.ID)
}

// handleToken exchanges credentials for a JWT. Without a database the server
// runs in guest mode and issues a token for a fresh identity.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if database.DB == nil {
		s.issueToken(w, uuid.New())
		return
	}

	user, err := database.GetUserByUsername(r.Context(), creds.Username)
	if errors.Is(err, database.ErrUserNotFound) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.log.Errorf("looking up user %q: %v", creds.Username, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, creds.Password); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	s.issueToken(w, user.ID)
}

func (s *Server) issueToken(w http.ResponseWriter, userID uuid.UUID) {
	token, err := auth.CreateToken(userID)
	if err != nil {
		s.log.Errorf("minting token: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tokenResponse{Token: token})
}

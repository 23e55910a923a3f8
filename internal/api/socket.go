package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/mithilsmehta/TaskFlow/internal/realtime"
	"github.com/mithilsmehta/TaskFlow/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	authTimeout  = 10 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingPeriod   = (readTimeout * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS settings of the API, not here
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var (
	errNoToken      = errors.New("no token provided")
	errInvalidToken = errors.New("invalid token")
)

// authSuccess is the payload of the auth:success frame
type authSuccess struct {
	UserID       string `json:"userId"`
	CompanyID    string `json:"companyId"`
	ConnectionID string `json:"connectionId"`
}

// SocketHandler handles GET /ws
// Protocol:
// 1. Client sends {"event":"auth","auth":{"token":"<jwt>"}} within 10s
// 2. Server validates the token and replies {"event":"auth:success","data":{...}},
//    or closes with code 4401 and an "authentication error: ..." reason
// 3. Server pushes notification:new and task:changed frames
// 4. Client may send notification:read and notifications:read_all, which are logged only
func (h *Handlers) SocketHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[SOCKET] Failed to upgrade connection from %s - %v", c.ClientIP(), err)
		return
	}

	client := realtime.NewClient(uuid.New().String())

	if err := h.authenticateSocket(conn, client); err != nil {
		log.Printf("[SOCKET] Authentication failed: connection_id=%s, remote=%s - %v", client.ID, c.ClientIP(), err)
		msg := websocket.FormatCloseMessage(realtime.CloseAuthFailed, "authentication error: "+err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		conn.Close()
		return
	}

	registry := h.hub.Registry()
	if err := registry.Add(client); err != nil {
		log.Printf("[SOCKET] Failed to register connection_id=%s: %v", client.ID, err)
		conn.Close()
		return
	}
	defer registry.Remove(client)

	// auth:success is written before the write pump starts, so it is always the first frame
	ack, err := realtime.EncodeFrame(realtime.EventAuthSuccess, authSuccess{
		UserID:       client.UserID,
		CompanyID:    client.CompanyID,
		ConnectionID: client.ID,
	})
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err = conn.WriteMessage(websocket.TextMessage, ack)
	}
	if err != nil {
		log.Printf("[SOCKET] Failed to send auth success: connection_id=%s - %v", client.ID, err)
		conn.Close()
		return
	}

	log.Printf("[SOCKET] CONNECTION_ESTABLISHED: connection_id=%s, user=%s, company=%s",
		client.ID, client.UserID, client.CompanyID)

	go writePump(conn, client)
	readLoop(conn, client)

	log.Printf("[SOCKET] CONNECTION_CLOSED: connection_id=%s, user=%s", client.ID, client.UserID)
}

// authenticateSocket reads the handshake frame and binds the verified identity
func (h *Handlers) authenticateSocket(conn *websocket.Conn, client *realtime.Client) error {
	if err := conn.SetReadDeadline(time.Now().Add(authTimeout)); err != nil {
		return err
	}

	messageType, message, err := conn.ReadMessage()
	if err != nil {
		return errNoToken
	}
	if messageType != websocket.TextMessage {
		return errNoToken
	}

	if err := validation.ValidateClientFrame(message); err != nil {
		log.Printf("[SOCKET] Rejected handshake frame: connection_id=%s - %v", client.ID, err)
		return errNoToken
	}
	frame, err := realtime.DecodeFrame(message)
	if err != nil || frame.Event != realtime.EventAuth {
		return errNoToken
	}

	claims, err := h.jwtService.ValidateToken(frame.Auth.Token)
	if err != nil {
		log.Printf("[SOCKET] Token rejected: connection_id=%s - %v", client.ID, err)
		return errInvalidToken
	}

	return client.Authenticate(claims.UserID, claims.CompanyID)
}

// writePump drains the client's queue onto the socket and keeps it alive with pings.
// It returns once the registry closes the queue.
func writePump(conn *websocket.Conn, client *realtime.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[SOCKET] Write failed: connection_id=%s - %v", client.ID, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// readLoop consumes inbound frames until the connection drops
func readLoop(conn *websocket.Conn, client *realtime.Client) {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SOCKET] Read failed: connection_id=%s - %v", client.ID, err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		if err := validation.ValidateClientFrame(message); err != nil {
			log.Printf("[SOCKET] Ignoring malformed frame: connection_id=%s - %v", client.ID, err)
			continue
		}
		frame, err := realtime.DecodeFrame(message)
		if err != nil {
			log.Printf("[SOCKET] Ignoring malformed frame: connection_id=%s - %v", client.ID, err)
			continue
		}

		switch frame.Event {
		case realtime.EventNotificationRead:
			var id string
			_ = json.Unmarshal(frame.Data, &id)
			log.Printf("[SOCKET] Notification %s marked as read by user %s", id, client.UserID)
		case realtime.EventNotificationsRead:
			log.Printf("[SOCKET] All notifications marked as read by user %s", client.UserID)
		default:
			log.Printf("[SOCKET] Ignoring event %q: connection_id=%s", frame.Event, client.ID)
		}
	}
}

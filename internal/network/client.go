package network

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trg-labs/retro-factory/server/internal/infra/storage"
	"github.com/trg-labs/retro-factory/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	commandTimeout = 5 * time.Second
)

// Command is an incoming request from a client.
type Command struct {
	Type string   `json:"type"`
	Args []string `json:"args,omitempty"`
}

// Response is the reply to a single Command, sent only to its sender.
type Response struct {
	Type  string      `json:"type"`
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Client represents an active WebSocket connection and its session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// NewClient creates a new WebSocket client. Every connection starts as a
// guest session until it logs in.
func NewClient(hub *Hub, conn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: storage.GuestSessionID,
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps commands from the websocket connection into the simulation.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("websocket read failed", "error", err)
				metrics.Get().RecordWSError()
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warn("unparseable command", "error", err)
			c.reply(Response{Type: "error", OK: false, Error: "invalid command payload"})
			continue
		}

		c.handleCommand(cmd)
	}
}

func (c *Client) reply(resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		c.hub.logger.Error("failed to serialize response", "error", err)
		return
	}
	select {
	case c.send <- payload:
		metrics.Get().RecordWSMessage(false)
	default:
		metrics.Get().RecordWSError()
	}
}

func (c *Client) fail(cmdType string, err error) {
	metrics.Get().RecordCommand(err)
	c.reply(Response{Type: cmdType, OK: false, Error: err.Error()})
}

func (c *Client) ok(cmdType string, data interface{}) {
	metrics.Get().RecordCommand(nil)
	c.reply(Response{Type: cmdType, OK: true, Data: data})
}

func (c *Client) handleCommand(cmd Command) {
	verb := strings.ToLower(cmd.Type)
	sim := c.hub.sim

	switch verb {
	case "list":
		c.ok(verb, sim.ListBrands())

	case "info":
		if len(cmd.Args) < 1 {
			c.fail(verb, errors.New("usage: info <brand>"))
			return
		}
		detail, err := sim.DescribeBrand(cmd.Args[0])
		if err != nil {
			c.fail(verb, err)
			return
		}
		c.ok(verb, detail)

	case "buy":
		if len(cmd.Args) < 1 {
			c.fail(verb, errors.New("usage: buy <brand>"))
			return
		}
		if err := sim.Buy(cmd.Args[0]); err != nil {
			c.fail(verb, err)
			return
		}
		c.ok(verb, sim.Summarize())

	case "sell":
		if len(cmd.Args) < 1 {
			c.fail(verb, errors.New("usage: sell <brand>"))
			return
		}
		if err := sim.Sell(cmd.Args[0]); err != nil {
			c.fail(verb, err)
			return
		}
		c.ok(verb, sim.Summarize())

	case "build":
		if len(cmd.Args) < 3 {
			c.fail(verb, errors.New("usage: build <brand> <machine> <quantity>"))
			return
		}
		qty, err := strconv.Atoi(cmd.Args[2])
		if err != nil {
			c.fail(verb, errors.New("quantity must be a number"))
			return
		}
		if err := sim.Build(cmd.Args[0], cmd.Args[1], qty); err != nil {
			c.fail(verb, err)
			return
		}
		detail, err := sim.DescribeBrand(cmd.Args[0])
		if err != nil {
			c.fail(verb, err)
			return
		}
		c.ok(verb, detail)

	case "upgrade":
		if len(cmd.Args) < 2 {
			c.fail(verb, errors.New("usage: upgrade <brand> <machine>"))
			return
		}
		if err := sim.Upgrade(cmd.Args[0], cmd.Args[1]); err != nil {
			c.fail(verb, err)
			return
		}
		detail, err := sim.DescribeBrand(cmd.Args[0])
		if err != nil {
			c.fail(verb, err)
			return
		}
		c.ok(verb, detail)

	case "next":
		c.ok(verb, sim.Advance())

	case "stats":
		c.ok(verb, sim.Summarize())

	case "events":
		c.ok(verb, sim.DueEvents())

	case "choose":
		if len(cmd.Args) < 2 {
			c.fail(verb, errors.New("usage: choose <event title> <choice>"))
			return
		}
		title := strings.Join(cmd.Args[:len(cmd.Args)-1], " ")
		choiceID := cmd.Args[len(cmd.Args)-1]
		applied, err := sim.ApplyChoice(title, choiceID)
		if err != nil {
			c.fail(verb, err)
			return
		}
		c.ok(verb, applied)

	case "login":
		c.handleLogin(cmd.Args)

	case "logout":
		c.handleLogout()

	case "save":
		c.handleSave()

	case "load":
		c.handleLoad()

	case "help":
		c.ok(verb, commandHelp)

	default:
		c.fail(verb, errors.New("unknown command, try help"))
	}
}

var commandHelp = map[string]string{
	"list":    "list all brands in the catalog",
	"info":    "info <brand>: show a brand's machines and production",
	"buy":     "buy <brand>: acquire a brand",
	"sell":    "sell <brand>: sell an owned brand",
	"build":   "build <brand> <machine> <quantity>: set up production units",
	"upgrade": "upgrade <brand> <machine>: improve reliability and popularity",
	"next":    "advance the clock one month",
	"stats":   "show the company summary",
	"events":  "list historical events awaiting a decision",
	"choose":  "choose <event title> <choice>: resolve a due event",
	"login":   "login <name>: open a named session and load its save",
	"logout":  "return to a guest session",
	"save":    "persist the current session (requires login)",
	"load":    "reload the session's last save (requires login)",
	"help":    "show this help",
}

func (c *Client) handleLogin(args []string) {
	if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
		c.fail("login", errors.New("usage: login <name>"))
		return
	}
	name := strings.TrimSpace(args[0])
	if name == storage.GuestSessionID {
		c.fail("login", errors.New("that name is reserved"))
		return
	}

	sim := c.hub.sim
	c.sessionID = name
	sim.SetSessionID(name)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	state, err := c.hub.saves.Load(ctx, name)
	if errors.Is(err, storage.ErrSaveNotFound) {
		c.hub.logger.Event("SESSION_LOGIN", name, "new session started")
		c.ok("login", sim.Summarize())
		return
	}
	if err != nil {
		c.fail("login", err)
		return
	}

	if err := sim.Restore(state); err != nil {
		c.fail("login", err)
		return
	}
	c.hub.logger.Event("SESSION_LOGIN", name, "session restored from save")
	c.ok("login", sim.Summarize())
}

func (c *Client) handleLogout() {
	name := c.sessionID
	c.sessionID = storage.GuestSessionID
	c.hub.sim.SetSessionID(storage.GuestSessionID)
	c.hub.logger.Event("SESSION_LOGOUT", name, "session closed")
	c.ok("logout", nil)
}

func (c *Client) handleSave() {
	if c.sessionID == storage.GuestSessionID {
		c.fail("save", storage.ErrGuestSession)
		return
	}

	state, err := c.hub.sim.Snapshot()
	if err != nil {
		c.fail("save", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := c.hub.saves.Save(ctx, state); err != nil {
		c.fail("save", err)
		return
	}
	c.hub.logger.Event("SESSION_SAVED", c.sessionID, "state persisted")
	c.ok("save", map[string]string{"session_id": c.sessionID})
}

func (c *Client) handleLoad() {
	if c.sessionID == storage.GuestSessionID {
		c.fail("load", storage.ErrGuestSession)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	state, err := c.hub.saves.Load(ctx, c.sessionID)
	if err != nil {
		c.fail("load", err)
		return
	}
	if err := c.hub.sim.Restore(state); err != nil {
		c.fail("load", err)
		return
	}
	c.hub.logger.Event("SESSION_LOADED", c.sessionID, "state restored")
	c.ok("load", c.hub.sim.Summarize())
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

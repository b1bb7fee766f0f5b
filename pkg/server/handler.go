package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"shogi/pkg/shogi"
)

type Handler struct {
	manager *Manager
}

// NewApp wires the REST and websocket routes for manager.
func NewApp(manager *Manager) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	h := &Handler{manager: manager}

	api := app.Group("/api")
	api.Post("/game", h.CreateGame)
	api.Get("/games", h.ListGames)
	api.Get("/game/:gameId", h.GetGame)
	api.Post("/game/:gameId/move", h.Move)
	api.Post("/game/:gameId/resign", h.Resign)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get("/ws/game/:gameId", websocket.New(h.HandleConnection, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}))
	return app
}

func (h *Handler) CreateGame(c *fiber.Ctx) error {
	req := CreateRequest{Black: "black", White: "white"}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, err)
		}
	}
	match := h.manager.CreateGame(req.Black, req.White)
	return c.Status(fiber.StatusCreated).JSON(match.View())
}

func (h *Handler) ListGames(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"games": h.manager.IDs()})
}

func (h *Handler) GetGame(c *fiber.Ctx) error {
	match, err := h.manager.Get(c.Params("gameId"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err)
	}
	return c.JSON(match.View())
}

func (h *Handler) Move(c *fiber.Ctx) error {
	var req MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	player, err := shogi.ParsePlayer(req.Player)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	if _, _, err := shogi.ParseMoveToken(req.Move); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	match, err := h.manager.Get(c.Params("gameId"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err)
	}
	reply, err := match.Move(c.UserContext(), player, req.Move)
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	if reply.Result != shogi.ValidOperation {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(reply)
	}
	return c.JSON(reply)
}

func (h *Handler) Resign(c *fiber.Ctx) error {
	var req MoveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	player, err := shogi.ParsePlayer(req.Player)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err)
	}
	match, err := h.manager.Get(c.Params("gameId"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err)
	}
	reply, err := match.Resign(c.UserContext(), player)
	if err != nil {
		return errorJSON(c, statusFor(err), err)
	}
	return c.JSON(reply)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrGameOver), errors.Is(err, ErrNotYourTurn):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// wsClient serialises writes from the game goroutine and the read loop.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (wc *wsClient) WriteJSON(v interface{}) error {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return wc.conn.WriteJSON(v)
}

// HandleConnection streams game states to the client and accepts "move" and
// "resign" messages until the connection closes.
func (h *Handler) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	client := &wsClient{conn: c}
	match, err := h.manager.Get(gameID)
	if err != nil {
		_ = client.WriteJSON(newMessage(MessageTypeError, err.Error()))
		c.Close()
		return
	}
	match.Subscribe(client)
	defer match.Unsubscribe(client)

	if err := client.WriteJSON(newMessage(MessageTypeGameState, match.View())); err != nil {
		log.Printf("game %s: write error: %v", gameID, err)
		return
	}

	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("game %s: read error: %v", gameID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		reply, err := handleMessage(match, data)
		if err != nil {
			_ = client.WriteJSON(newMessage(MessageTypeError, err.Error()))
			continue
		}
		if err := client.WriteJSON(newMessage(MessageTypeResult, reply)); err != nil {
			log.Printf("game %s: write error: %v", gameID, err)
			return
		}
	}
}

func handleMessage(match *Match, data []byte) (MoveReply, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return MoveReply{}, err
	}
	var req MoveRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return MoveReply{}, err
	}
	player, err := shogi.ParsePlayer(req.Player)
	if err != nil {
		return MoveReply{}, err
	}
	ctx := context.Background()
	switch msg.Type {
	case MessageTypeMove:
		if _, _, err := shogi.ParseMoveToken(req.Move); err != nil {
			return MoveReply{}, err
		}
		return match.Move(ctx, player, req.Move)
	case MessageTypeResign:
		return match.Resign(ctx, player)
	default:
		return MoveReply{}, errors.New("unknown message type: " + string(msg.Type))
	}
}

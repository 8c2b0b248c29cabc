package chat

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{}

type wsFrame struct {
	Type    string `json:"type"`
	Sender  string `json:"sender"`
	Content any    `json:"content"`
}

func sendWsFrame(ws *websocket.Conn, frameType, sender string, content any) {
	frame := wsFrame{
		Type:    frameType,
		Sender:  sender,
		Content: content,
	}
	jsonMsg, err := json.Marshal(frame)
	if err != nil {
		log.Printf("Chat: ERROR - Failed to marshal WebSocket frame: %v", err)
		return
	}
	if err := ws.WriteMessage(websocket.TextMessage, jsonMsg); err != nil {
		log.Printf("Chat: WebSocket write error: %v", err)
	}
}

// HandleWebSocket runs an interactive chat session over a websocket. Each
// inbound text frame is one user message and goes through the same turn
// processing as the HTTP endpoint.
func (h *Handler) HandleWebSocket(c echo.Context) error {
	conversationID := c.QueryParam("conversationId")
	customerID := c.QueryParam("customerId")
	if conversationID == "" || customerID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	log.Println("Chat: client connected via WebSocket")

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			log.Println("Chat: WebSocket read error:", err)
			break
		}
		if len(msg) == 0 {
			continue
		}

		resp, err := h.processTurn(c.Request().Context(), Request{
			Message:        string(msg),
			ConversationID: conversationID,
			CustomerID:     customerID,
		})
		if err != nil {
			log.Printf("Chat: WebSocket turn failed: %v", err)
			sendWsFrame(ws, "system_error", "System", "Internal server error")
			continue
		}

		sendWsFrame(ws, "agent_response", "Assistant", resp.Response)
		if resp.TicketCreated != nil {
			sendWsFrame(ws, "ticket_created", "System", resp.TicketCreated)
		}
	}
	return nil
}

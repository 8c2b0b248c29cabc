package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func postChat(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.HandleChat(c); err != nil {
		t.Fatalf("HandleChat returned error: %v", err)
	}
	return rec
}

func TestHandleChat_MissingFields(t *testing.T) {
	h := &Handler{}

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing message", `{"conversationId":"c1","customerId":"u1"}`},
		{"missing conversation", `{"message":"hi","customerId":"u1"}`},
		{"missing customer", `{"message":"hi","conversationId":"c1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(t, h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if resp["error"] == "" {
				t.Error("error body missing 'error' field")
			}
		})
	}
}

func TestHandleChat_MalformedJSON(t *testing.T) {
	rec := postChat(t, &Handler{}, `{"message":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// The wire contract: a non-escalated turn must serialize ticketCreated as a
// JSON null and leave conversationUpdate.status out entirely.
func TestResponse_NoTicketSerialization(t *testing.T) {
	resp := Response{
		Response: "All set!",
		ConversationUpdate: ConversationUpdate{
			Sentiment: "positive",
		},
		Metadata: Metadata{Sentiment: "positive", Model: "gpt-4"},
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"ticketCreated":null`) {
		t.Errorf("ticketCreated not null: %s", s)
	}
	if strings.Contains(s, `"status"`) {
		t.Errorf("conversationUpdate.status present without escalation: %s", s)
	}
	if !strings.Contains(s, `"shouldCreateTicket":false`) {
		t.Errorf("metadata.shouldCreateTicket missing: %s", s)
	}
}

func TestResponse_EscalatedSerialization(t *testing.T) {
	resp := Response{
		Response: "I've opened a ticket.",
		ConversationUpdate: ConversationUpdate{
			Sentiment: "negative",
			Status:    "escalated",
		},
		TicketCreated: &Ticket{
			ID:       "t1",
			Title:    "Double charge",
			Status:   "open",
			Priority: "medium",
			Category: "billing",
		},
		Metadata: Metadata{Sentiment: "negative", ShouldCreateTicket: true, Model: "gpt-4", Tokens: 99},
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"status":"escalated"`, `"category":"billing"`, `"tokens":99`} {
		if !strings.Contains(s, want) {
			t.Errorf("serialized response missing %s: %s", want, s)
		}
	}
}

package escalation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/caredesk/caredesk/pkg/llm"
)

// fakeProvider scripts each pipeline call by recognizing its instruction.
type fakeProvider struct {
	mu    sync.Mutex
	calls []string

	reply        string
	replyErr     error
	sentiment    string
	sentimentErr error
	escalate     string
	escalateErr  error
	title        string
	titleErr     error
	category     string
	categoryErr  error
}

func (f *fakeProvider) SendMessage(_ context.Context, req llm.MessageRequest) (*llm.MessageResponse, error) {
	kind := "reply"
	switch {
	case strings.HasPrefix(req.SystemPrompt, "Analyze the sentiment"):
		kind = "sentiment"
	case strings.Contains(req.SystemPrompt, "should be escalated"):
		kind = "escalate"
	case strings.Contains(req.SystemPrompt, "title for a support ticket"):
		kind = "title"
	case strings.HasPrefix(req.SystemPrompt, "Categorize"):
		kind = "category"
	}

	f.mu.Lock()
	f.calls = append(f.calls, kind)
	f.mu.Unlock()

	var content string
	var err error
	switch kind {
	case "reply":
		content, err = f.reply, f.replyErr
	case "sentiment":
		content, err = f.sentiment, f.sentimentErr
	case "escalate":
		content, err = f.escalate, f.escalateErr
	case "title":
		content, err = f.title, f.titleErr
	case "category":
		content, err = f.category, f.categoryErr
	}
	if err != nil {
		return nil, err
	}
	return &llm.MessageResponse{Content: content, Usage: llm.Usage{TotalTokens: 42}}, nil
}

func (f *fakeProvider) GetName() string                         { return "fake" }
func (f *fakeProvider) GetSupportedModels() []string            { return nil }
func (f *fakeProvider) ValidateConfig(llm.ProviderConfig) error { return nil }

func (f *fakeProvider) called(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == kind {
			n++
		}
	}
	return n
}

func newTestPipeline(f *fakeProvider) *Pipeline {
	p := NewPipeline(f)
	return p
}

func TestRun_EmptyMessage(t *testing.T) {
	p := newTestPipeline(&fakeProvider{})
	if _, err := p.Run(context.Background(), Input{Message: "   "}); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestRun_ReplyFailureIsFatal(t *testing.T) {
	f := &fakeProvider{replyErr: errors.New("provider down")}
	p := newTestPipeline(f)

	_, err := p.Run(context.Background(), Input{Message: "hello"})
	if err == nil {
		t.Fatal("expected error when reply generation fails")
	}
	if !strings.Contains(err.Error(), "generating reply") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "generating reply")
	}
	if got := f.called("sentiment"); got != 0 {
		t.Errorf("sentiment called %d times after fatal reply failure, want 0", got)
	}
}

func TestRun_SentimentFailureDefaultsToNeutral(t *testing.T) {
	f := &fakeProvider{
		reply:        "Happy to help!",
		sentimentErr: errors.New("timeout"),
		escalate:     "false",
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "thanks"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Sentiment != SentimentNeutral {
		t.Errorf("sentiment = %q, want %q", out.Sentiment, SentimentNeutral)
	}
}

func TestRun_UnrecognizedSentimentDefaultsToNeutral(t *testing.T) {
	f := &fakeProvider{
		reply:     "Sure thing.",
		sentiment: "Ecstatic!",
		escalate:  "false",
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "great"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Sentiment != SentimentNeutral {
		t.Errorf("sentiment = %q, want %q", out.Sentiment, SentimentNeutral)
	}
}

func TestRun_SentimentIsLowercasedAndTrimmed(t *testing.T) {
	f := &fakeProvider{
		reply:     "Sorry to hear that.",
		sentiment: "  Negative ",
		escalate:  "false",
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "this is broken"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Sentiment != SentimentNegative {
		t.Errorf("sentiment = %q, want %q", out.Sentiment, SentimentNegative)
	}
}

func TestRun_EscalationRequiresLiteralTrue(t *testing.T) {
	for _, answer := range []string{"false", "yes", "TRUE!", "maybe", ""} {
		f := &fakeProvider{
			reply:     "Let me check that.",
			sentiment: "neutral",
			escalate:  answer,
		}
		out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "question"})
		if err != nil {
			t.Fatalf("Run failed for answer %q: %v", answer, err)
		}
		if out.ShouldCreateTicket {
			t.Errorf("answer %q escalated, want no escalation", answer)
		}
		if got := f.called("title"); got != 0 {
			t.Errorf("answer %q: title generated without escalation", answer)
		}
	}
}

func TestRun_EscalationFailureDefaultsToFalse(t *testing.T) {
	f := &fakeProvider{
		reply:       "Let me check that.",
		sentiment:   "neutral",
		escalateErr: errors.New("rate limited"),
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "question"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.ShouldCreateTicket {
		t.Error("escalation fault escalated, want fail-safe false")
	}
}

func TestRun_EscalationCaseInsensitiveTrue(t *testing.T) {
	f := &fakeProvider{
		reply:     "I will escalate this.",
		sentiment: "negative",
		escalate:  " True\n",
		title:     "Billing dispute",
		category:  "billing",
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "refund now"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !out.ShouldCreateTicket {
		t.Fatal("expected escalation for trimmed 'True'")
	}
}

func TestRun_TitleFailureFallsBack(t *testing.T) {
	f := &fakeProvider{
		reply:     "Escalating.",
		sentiment: "negative",
		escalate:  "true",
		titleErr:  errors.New("boom"),
		category:  "technical",
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "app crashes"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.TicketTitle != DefaultTicketTitle {
		t.Errorf("title = %q, want %q", out.TicketTitle, DefaultTicketTitle)
	}
	if out.TicketCategory != "technical" {
		t.Errorf("category = %q, want %q", out.TicketCategory, "technical")
	}
}

func TestRun_CategoryFailureFallsBack(t *testing.T) {
	f := &fakeProvider{
		reply:       "Escalating.",
		sentiment:   "negative",
		escalate:    "true",
		title:       "App crash on login",
		categoryErr: errors.New("boom"),
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "app crashes"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.TicketCategory != DefaultCategory {
		t.Errorf("category = %q, want %q", out.TicketCategory, DefaultCategory)
	}
}

func TestRun_OutOfSetCategoryFallsBack(t *testing.T) {
	f := &fakeProvider{
		reply:     "Escalating.",
		sentiment: "negative",
		escalate:  "true",
		title:     "Strange issue",
		category:  "existential",
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "weird problem"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.TicketCategory != DefaultCategory {
		t.Errorf("category = %q, want %q", out.TicketCategory, DefaultCategory)
	}
}

func TestRun_EmptyReplyUsesFallbackText(t *testing.T) {
	f := &fakeProvider{
		reply:     "   ",
		sentiment: "neutral",
		escalate:  "false",
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "hello"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Response != DefaultReplyFallback {
		t.Errorf("response = %q, want fallback text", out.Response)
	}
}

// Scenario A from the product requirements: billing complaint that escalates.
func TestRun_BillingEscalationScenario(t *testing.T) {
	f := &fakeProvider{
		reply:     "I'm sorry about the double charge. Let me open a ticket for you.",
		sentiment: "negative",
		escalate:  "true",
		title:     "Double charge on account",
		category:  "billing",
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{
		Message: "Why was I charged twice?",
		Customer: CustomerProfile{
			Name:  "Dana",
			Email: "dana@example.com",
		},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.Response == "" {
		t.Error("expected non-empty response")
	}
	if !out.ShouldCreateTicket {
		t.Fatal("expected escalation")
	}
	if out.TicketCategory != "billing" {
		t.Errorf("category = %q, want %q", out.TicketCategory, "billing")
	}
	if out.TicketTitle != "Double charge on account" {
		t.Errorf("title = %q", out.TicketTitle)
	}
	if out.Tokens != 42 {
		t.Errorf("tokens = %d, want 42", out.Tokens)
	}
	if out.Model != "gpt-4" {
		t.Errorf("model = %q, want gpt-4", out.Model)
	}
}

// Scenario B: a simple answered question stays a conversation.
func TestRun_NoEscalationScenario(t *testing.T) {
	f := &fakeProvider{
		reply:     "Our business hours are 9-5 Eastern.",
		sentiment: "positive",
		escalate:  "false",
	}
	out, err := newTestPipeline(f).Run(context.Background(), Input{Message: "What are your hours?"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.ShouldCreateTicket {
		t.Error("expected no escalation")
	}
	if out.TicketTitle != "" || out.TicketCategory != "" {
		t.Errorf("ticket fields set without escalation: %q / %q", out.TicketTitle, out.TicketCategory)
	}
	if out.Sentiment != SentimentPositive {
		t.Errorf("sentiment = %q, want positive", out.Sentiment)
	}
}

// Package escalation decides what happens after each customer chat turn:
// it generates the assistant's reply, classifies sentiment, and determines
// whether the turn should open a support ticket (and if so, with what title
// and category). All persistence belongs to the caller; the pipeline only
// computes values.
package escalation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/caredesk/caredesk/pkg/llm"
)

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"

	// Fallbacks when the advisory title/category calls fail.
	DefaultTicketTitle   = "Customer Support Request"
	DefaultCategory      = "general"
	DefaultReplyFallback = "I'm sorry, I couldn't process your request right now. Please try again."

	replyMaxTokens    = 500
	classifyMaxTokens = 10
	titleMaxTokens    = 20
)

var validCategories = map[string]bool{
	"billing":         true,
	"technical":       true,
	"general":         true,
	"refund":          true,
	"bug_report":      true,
	"feature_request": true,
	"account":         true,
}

type CustomerProfile struct {
	Name        string
	Email       string
	Company     string
	Preferences map[string]any
}

type TicketSummary struct {
	Title       string
	Description string
	Status      string
	Category    string
	Resolution  string
}

// Input is one conversation turn plus the background context the caller
// read from storage: the trimmed history (oldest first) and the customer's
// recent tickets.
type Input struct {
	Message         string
	History         []llm.Message
	Customer        CustomerProfile
	PreviousTickets []TicketSummary
}

type Outcome struct {
	Response           string
	Sentiment          string
	ShouldCreateTicket bool
	TicketTitle        string
	TicketCategory     string
	Model              string
	Tokens             int
}

type Pipeline struct {
	Provider        llm.Provider
	ChatModel       string // reply generation
	ClassifierModel string // sentiment/escalation/title/category
	CallTimeout     time.Duration
}

func NewPipeline(provider llm.Provider) *Pipeline {
	return &Pipeline{
		Provider:        provider,
		ChatModel:       "gpt-4",
		ClassifierModel: "gpt-3.5-turbo",
		CallTimeout:     30 * time.Second,
	}
}

// Run executes one turn. A reply-generation fault fails the whole run; every
// classification call absorbs its own faults and substitutes a safe default,
// so the returned error is non-nil only when no reply could be produced.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Outcome, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("empty message")
	}

	reply, tokens, err := p.generateReply(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	// Sentiment and escalation only depend on the message and reply, so they
	// run concurrently once the reply exists.
	var (
		wg        sync.WaitGroup
		sentiment string
		escalate  bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sentiment = p.analyzeSentiment(ctx, in.Message)
	}()
	go func() {
		defer wg.Done()
		escalate = p.shouldEscalate(ctx, in.Message, reply)
	}()
	wg.Wait()

	out := &Outcome{
		Response:           reply,
		Sentiment:          sentiment,
		ShouldCreateTicket: escalate,
		Model:              p.ChatModel,
		Tokens:             tokens,
	}

	if escalate {
		var title, category string
		wg.Add(2)
		go func() {
			defer wg.Done()
			title = p.generateTitle(ctx, in.Message)
		}()
		go func() {
			defer wg.Done()
			category = p.categorizeIssue(ctx, in.Message)
		}()
		wg.Wait()
		out.TicketTitle = title
		out.TicketCategory = category
	}

	return out, nil
}

func (p *Pipeline) generateReply(ctx context.Context, in Input) (string, int, error) {
	messages := make([]llm.Message, 0, len(in.History)+1)
	messages = append(messages, in.History...)
	messages = append(messages, llm.Message{Role: "user", Content: in.Message})

	resp, err := p.send(ctx, llm.MessageRequest{
		Messages:     messages,
		SystemPrompt: buildSystemPrompt(in.Customer, in.PreviousTickets),
		MaxTokens:    replyMaxTokens,
		Model:        p.ChatModel,
		Temperature:  llm.Temp(0.7),
	})
	if err != nil {
		return "", 0, err
	}

	reply := resp.Content
	if strings.TrimSpace(reply) == "" {
		reply = DefaultReplyFallback
	}
	return reply, resp.Usage.TotalTokens, nil
}

// analyzeSentiment classifies the raw user message. Any fault or
// unrecognized answer degrades to neutral rather than failing the turn.
func (p *Pipeline) analyzeSentiment(ctx context.Context, message string) string {
	resp, err := p.send(ctx, llm.MessageRequest{
		Messages:     []llm.Message{{Role: "user", Content: message}},
		SystemPrompt: sentimentPrompt,
		MaxTokens:    classifyMaxTokens,
		Model:        p.ClassifierModel,
		Temperature:  llm.Temp(0),
	})
	if err != nil {
		log.Printf("Escalation: sentiment classification failed, defaulting to neutral: %v", err)
		return SentimentNeutral
	}

	switch s := strings.ToLower(strings.TrimSpace(resp.Content)); s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return s
	default:
		return SentimentNeutral
	}
}

// shouldEscalate answers whether this turn should open a ticket. Only the
// literal answer "true" escalates; faults default to not escalating.
func (p *Pipeline) shouldEscalate(ctx context.Context, userMessage, aiResponse string) bool {
	resp, err := p.send(ctx, llm.MessageRequest{
		Messages: []llm.Message{{
			Role:    "user",
			Content: fmt.Sprintf("Customer message: %q\nAI response: %q", userMessage, aiResponse),
		}},
		SystemPrompt: escalationPrompt,
		MaxTokens:    classifyMaxTokens,
		Model:        p.ClassifierModel,
		Temperature:  llm.Temp(0),
	})
	if err != nil {
		log.Printf("Escalation: escalation check failed, defaulting to false: %v", err)
		return false
	}

	return strings.ToLower(strings.TrimSpace(resp.Content)) == "true"
}

func (p *Pipeline) generateTitle(ctx context.Context, message string) string {
	resp, err := p.send(ctx, llm.MessageRequest{
		Messages:     []llm.Message{{Role: "user", Content: message}},
		SystemPrompt: titlePrompt,
		MaxTokens:    titleMaxTokens,
		Model:        p.ClassifierModel,
		Temperature:  llm.Temp(0.3),
	})
	if err != nil {
		log.Printf("Escalation: title generation failed, using fallback: %v", err)
		return DefaultTicketTitle
	}

	title := strings.TrimSpace(resp.Content)
	if title == "" {
		return DefaultTicketTitle
	}
	return title
}

func (p *Pipeline) categorizeIssue(ctx context.Context, message string) string {
	resp, err := p.send(ctx, llm.MessageRequest{
		Messages:     []llm.Message{{Role: "user", Content: message}},
		SystemPrompt: categoryPrompt,
		MaxTokens:    classifyMaxTokens,
		Model:        p.ClassifierModel,
		Temperature:  llm.Temp(0),
	})
	if err != nil {
		log.Printf("Escalation: categorization failed, using fallback: %v", err)
		return DefaultCategory
	}

	category := strings.ToLower(strings.TrimSpace(resp.Content))
	if !validCategories[category] {
		return DefaultCategory
	}
	return category
}

// send applies the per-call timeout bound. Callers treat a deadline like any
// other provider fault.
func (p *Pipeline) send(ctx context.Context, req llm.MessageRequest) (*llm.MessageResponse, error) {
	timeout := p.CallTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Provider.SendMessage(ctx, req)
}

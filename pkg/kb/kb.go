// Package kb stores help-center articles with embeddings so agents can
// search them semantically instead of by keyword.
package kb

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/sashabaranov/go-openai"
)

const searchLimit = 5

type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  *string   `json:"category"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	db           *pgxpool.Pool
	openaiClient *openai.Client
}

func NewStore(db *pgxpool.Pool, openaiClient *openai.Client) *Store {
	return &Store{db: db, openaiClient: openaiClient}
}

// createEmbedding uses the OpenAI API to create an embedding for the given text.
func (s *Store) createEmbedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.openaiClient.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.AdaEmbeddingV2,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding: %w", err)
	}
	return resp.Data[0].Embedding, nil
}

// AddArticle embeds title and content together and stores the article.
func (s *Store) AddArticle(ctx context.Context, title, content string, category *string, tags []string) (*Article, error) {
	embeddingText := fmt.Sprintf("Title: %s. Content: %s", title, content)
	embedding, err := s.createEmbedding(ctx, embeddingText)
	if err != nil {
		return nil, err
	}

	var a Article
	err = s.db.QueryRow(ctx, `
		INSERT INTO knowledge_base (title, content, category, tags, embedding)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, title, content, category, tags, created_at, updated_at
	`, title, content, category, tags, pgvector.NewVector(embedding)).
		Scan(&a.ID, &a.Title, &a.Content, &a.Category, &a.Tags, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("storing article: %w", err)
	}
	return &a, nil
}

// Search performs a semantic vector search against the knowledge base.
func (s *Store) Search(ctx context.Context, query string) ([]Article, error) {
	queryEmbedding, err := s.createEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("creating query embedding: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, title, content, category, tags, created_at, updated_at
		FROM knowledge_base
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(queryEmbedding), searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching knowledge base: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

func (s *Store) List(ctx context.Context) ([]Article, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, title, content, category, tags, created_at, updated_at
		FROM knowledge_base
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing knowledge base: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

func scanArticles(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Category, &a.Tags, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading articles: %w", err)
	}
	return articles, nil
}

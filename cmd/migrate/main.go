package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set.")
	}

	conn, err := pgx.Connect(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v\n", err)
	}
	defer conn.Close(context.Background())

	log.Println("Connected to database.")

	_, err = conn.Exec(context.Background(), "CREATE EXTENSION IF NOT EXISTS vector;")
	if err != nil {
		log.Fatalf("Failed to create pgvector extension: %v\n", err)
	}
	log.Println("pgvector extension created successfully")

	statements := []struct {
		name string
		sql  string
	}{
		{"users", `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'agent', 'admin')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
		`},
		{"organizations", `
CREATE TABLE IF NOT EXISTS organizations (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name TEXT NOT NULL,
	subscription_plan TEXT NOT NULL DEFAULT 'starter',
	subscription_status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
		`},
		{"organization_members", `
CREATE TABLE IF NOT EXISTS organization_members (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role TEXT NOT NULL DEFAULT 'agent',
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE(organization_id, user_id)
);
		`},
		{"customers", `
CREATE TABLE IF NOT EXISTS customers (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL UNIQUE REFERENCES users(id),
	organization_id UUID REFERENCES organizations(id),
	email TEXT NOT NULL,
	name TEXT,
	phone TEXT,
	company TEXT,
	preferences JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
		`},
		{"conversations", `
CREATE TABLE IF NOT EXISTS conversations (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	customer_id UUID NOT NULL REFERENCES customers(id),
	organization_id UUID REFERENCES organizations(id),
	title TEXT,
	status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'escalated', 'resolved', 'closed')),
	sentiment TEXT NOT NULL DEFAULT 'neutral',
	priority TEXT NOT NULL DEFAULT 'medium',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_conversations_customer ON conversations(customer_id);
		`},
		{"messages", `
CREATE TABLE IF NOT EXISTS messages (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
	content TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
		`},
		{"tickets", `
CREATE TABLE IF NOT EXISTS tickets (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	conversation_id UUID REFERENCES conversations(id),
	customer_id UUID NOT NULL REFERENCES customers(id),
	organization_id UUID REFERENCES organizations(id),
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'in_progress', 'resolved', 'closed')),
	priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
	category TEXT,
	assigned_to UUID REFERENCES users(id),
	resolution TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	resolved_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_tickets_customer ON tickets(customer_id, created_at);
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
		`},
		{"knowledge_base", `
CREATE TABLE IF NOT EXISTS knowledge_base (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	category TEXT,
	tags TEXT[],
	embedding VECTOR(1536),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
		`},
		{"usage_tracking", `
CREATE TABLE IF NOT EXISTS usage_tracking (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	conversation_id UUID REFERENCES conversations(id),
	event_type TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
		`},
	}

	for _, stmt := range statements {
		if _, err := conn.Exec(context.Background(), stmt.sql); err != nil {
			log.Fatalf("Failed to create %s table: %v\n", stmt.name, err)
		}
		log.Printf("%s table is ready.", stmt.name)
	}

	log.Println("Migration completed successfully.")
}

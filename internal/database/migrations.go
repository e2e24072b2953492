package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	// Accounts are unique per email and (when linked) per external OAuth id.
	// Every account carries at least one credential path: a password hash,
	// an external id, or both after linking.
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		display_name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		external_id VARCHAR(255) UNIQUE,
		password_hash VARCHAR(255),
		role VARCHAR(50) NOT NULL DEFAULT 'user',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_login_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (password_hash IS NOT NULL OR external_id IS NOT NULL)
	)`,

	`CREATE TABLE IF NOT EXISTS strategies (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS trades (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		strategy_id UUID REFERENCES strategies(id) ON DELETE SET NULL,
		symbol VARCHAR(32) NOT NULL,
		side VARCHAR(10) NOT NULL,
		quantity NUMERIC(18,8) NOT NULL,
		entry_price NUMERIC(18,8) NOT NULL,
		exit_price NUMERIC(18,8),
		opened_at TIMESTAMP WITH TIME ZONE NOT NULL,
		closed_at TIMESTAMP WITH TIME ZONE,
		notes TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS tags (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS trade_tags (
		trade_id UUID NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (trade_id, tag_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_trades_user_id ON trades(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_user_symbol ON trades(user_id, symbol)`,
	`CREATE INDEX IF NOT EXISTS idx_strategies_user_id ON strategies(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tags_user_id ON tags(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trade_tags_tag_id ON trade_tags(tag_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

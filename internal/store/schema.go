package store

// schema is applied on open. The daily_stats rollup is recomputed by an
// external maintenance job; the core only creates the table.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS opportunities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		organization TEXT DEFAULT '',
		source TEXT NOT NULL,
		source_key TEXT DEFAULT '',
		link TEXT NOT NULL,
		publish_date TEXT DEFAULT '',
		deadline TEXT DEFAULT '',
		country TEXT DEFAULT 'Bangladesh',
		document_type TEXT CHECK(document_type IN ('ToR', 'RFP', 'EOI', 'RFQ', 'Tender', 'Other')),
		budget_range TEXT DEFAULT '',
		reference_no TEXT DEFAULT '',
		keywords TEXT DEFAULT '[]',
		relevance_score INTEGER DEFAULT 0,

		is_read BOOLEAN DEFAULT FALSE,
		is_favorite BOOLEAN DEFAULT FALSE,
		is_archived BOOLEAN DEFAULT FALSE,
		is_duplicate BOOLEAN DEFAULT FALSE,
		duplicate_of INTEGER DEFAULT 0,

		first_seen_at TIMESTAMP NOT NULL,
		last_seen_at TIMESTAMP NOT NULL,
		version INTEGER DEFAULT 1,
		raw_data TEXT DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS scraping_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_key TEXT NOT NULL,
		status TEXT CHECK(status IN ('pending', 'running', 'completed', 'failed')) DEFAULT 'pending',
		items_found INTEGER DEFAULT 0,
		items_new INTEGER DEFAULT 0,
		items_updated INTEGER DEFAULT 0,
		items_duplicate INTEGER DEFAULT 0,
		error_message TEXT DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		logs TEXT DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS keyword_mentions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword TEXT NOT NULL,
		opportunity_id INTEGER NOT NULL,
		count INTEGER DEFAULT 1,
		UNIQUE(keyword, opportunity_id)
	)`,

	`CREATE TABLE IF NOT EXISTS daily_stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT UNIQUE NOT NULL,
		total_opportunities INTEGER DEFAULT 0,
		new_opportunities INTEGER DEFAULT 0,
		expiring_opportunities INTEGER DEFAULT 0,
		by_source TEXT DEFAULT '{}',
		by_type TEXT DEFAULT '{}',
		created_at TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_opportunities_fingerprint ON opportunities(fingerprint)`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_source ON opportunities(source)`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_deadline ON opportunities(deadline)`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_document_type ON opportunities(document_type)`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_relevance ON opportunities(relevance_score)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_started ON scraping_sessions(started_at)`,
}

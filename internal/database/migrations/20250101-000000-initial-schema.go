package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250101-000000",
		Description: "Initial schema",
		Up: []string{
			// Publishers - one row per canonical domain, shared across jobs
			`CREATE TABLE IF NOT EXISTS publishers (
				id TEXT PRIMARY KEY,
				domain TEXT UNIQUE NOT NULL,
				name TEXT NOT NULL,
				homepage_url TEXT NOT NULL,
				waf_detected INTEGER NOT NULL DEFAULT 0,
				waf_type TEXT,
				tos_url TEXT,
				tos_permissions_json TEXT,
				robots_found INTEGER NOT NULL DEFAULT 0,
				sitemap_urls_json TEXT,
				rss_feeds_json TEXT,
				rsl_detected INTEGER NOT NULL DEFAULT 0,
				ai_bot_block_json TEXT,
				organization_json TEXT,
				has_paywall INTEGER NOT NULL DEFAULT 0,
				fetch_strategy TEXT,
				last_checked_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_publishers_domain ON publishers(domain)`,

			// Resolution jobs - one per submitted article URL
			`CREATE TABLE IF NOT EXISTS resolution_jobs (
				id TEXT PRIMARY KEY,
				submitted_url TEXT NOT NULL,
				canonical_url TEXT NOT NULL,
				publisher_id TEXT NOT NULL REFERENCES publishers(id),
				status TEXT NOT NULL DEFAULT 'pending',
				error_message TEXT,
				waf_result_json TEXT,
				tos_result_json TEXT,
				robots_result_json TEXT,
				ai_bot_result_json TEXT,
				sitemap_result_json TEXT,
				rss_result_json TEXT,
				rsl_result_json TEXT,
				metadata_result_json TEXT,
				article_result_json TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_resolution_jobs_publisher_id ON resolution_jobs(publisher_id)`,
			`CREATE INDEX IF NOT EXISTS idx_resolution_jobs_status ON resolution_jobs(status)`,
			`CREATE INDEX IF NOT EXISTS idx_resolution_jobs_canonical_url ON resolution_jobs(canonical_url)`,

			// Article metadata - one row per (job, article URL)
			`CREATE TABLE IF NOT EXISTS article_metadata (
				id TEXT PRIMARY KEY,
				job_id TEXT NOT NULL REFERENCES resolution_jobs(id) ON DELETE CASCADE,
				article_url TEXT NOT NULL,
				jsonld_fields TEXT,
				opengraph_fields TEXT,
				microdata_fields TEXT,
				twitter_cards TEXT,
				paywall_status TEXT NOT NULL DEFAULT 'unknown',
				signals_json TEXT,
				llm_summary TEXT,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_article_metadata_job_id ON article_metadata(job_id)`,
		},
	})
}

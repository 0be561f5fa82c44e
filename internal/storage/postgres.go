package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/geongi-im/news-tracker/internal/news"
)

// Postgres implements Store against a direct database connection, for
// deployments without the REST API in front.
type Postgres struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	log     *slog.Logger
}

func OpenPostgres(dsn string, log *slog.Logger) (*Postgres, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		log:     log,
	}
	if err := p.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	log.Info("postgres storage connected")
	return p, nil
}

func (p *Postgres) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS news_rss (
		mq_idx SERIAL PRIMARY KEY,
		mq_company VARCHAR(100) NOT NULL,
		mq_category VARCHAR(50) NOT NULL,
		mq_rss TEXT NOT NULL,
		mq_status SMALLINT NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS news_article (
		id SERIAL PRIMARY KEY,
		category VARCHAR(50),
		title TEXT NOT NULL,
		content TEXT,
		company VARCHAR(100),
		source_url TEXT UNIQUE NOT NULL,
		published_date TIMESTAMP,
		step1_score INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_news_article_source_url ON news_article(source_url);
	CREATE INDEX IF NOT EXISTS idx_news_article_created_at ON news_article(created_at);
	`

	if _, err := p.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (p *Postgres) ActiveFeeds(ctx context.Context) ([]news.FeedSource, error) {
	query, args, err := p.builder.
		Select("mq_idx", "mq_company", "mq_category", "mq_rss").
		From("news_rss").
		Where(sq.Eq{"mq_status": 1}).
		OrderBy("mq_idx").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feeds query: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query active feeds: %w", err)
	}
	defer rows.Close()

	var sources []news.FeedSource
	for rows.Next() {
		var id int64
		var src news.FeedSource
		if err := rows.Scan(&id, &src.Company, &src.Category, &src.FeedURL); err != nil {
			return nil, fmt.Errorf("scan feed row: %w", err)
		}
		src.ID = fmt.Sprintf("%d", id)
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed rows: %w", err)
	}
	return sources, nil
}

func (p *Postgres) Exists(ctx context.Context, url string) (bool, error) {
	query, args, err := p.builder.
		Select("COUNT(*)").
		From("news_article").
		Where(sq.Eq{"source_url": url}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var count int
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("check news exists: %w", err)
	}
	return count > 0, nil
}

func (p *Postgres) ExistsBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return result, nil
	}

	query, args, err := p.builder.
		Select("source_url").
		From("news_article").
		Where(sq.Expr("source_url = ANY(?)", pq.Array(urls))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build batch exists query: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("batch check news exists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan url row: %w", err)
		}
		result[url] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate url rows: %w", err)
	}
	return result, nil
}

func (p *Postgres) InsertNews(ctx context.Context, rec news.Record) error {
	var published any
	if rec.Published != nil {
		published = *rec.Published
	}

	query, args, err := p.builder.
		Insert("news_article").
		Columns("category", "title", "content", "company", "source_url", "published_date", "step1_score").
		Values(rec.Category, rec.Title, rec.Content, rec.Company, rec.SourceURL, published, rec.Score).
		Suffix("ON CONFLICT (source_url) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert news %q: %w", rec.Title, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

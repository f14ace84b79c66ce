package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"clearcrawl/internal/types"
)

// SQLiteStorage provides SQLite-based storage for queryable crawl data.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) a SQLite database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT UNIQUE NOT NULL,
		title TEXT,
		description TEXT,
		keywords TEXT,
		content TEXT,
		crawled_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	CREATE INDEX IF NOT EXISTS idx_pages_crawled_at ON pages(crawled_at);

	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_url TEXT NOT NULL,
		target_url TEXT NOT NULL,
		FOREIGN KEY (source_url) REFERENCES pages(url)
	);

	CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_url);

	CREATE TABLE IF NOT EXISTS resources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_url TEXT NOT NULL,
		kind TEXT NOT NULL,
		resource_url TEXT NOT NULL,
		FOREIGN KEY (page_url) REFERENCES pages(url)
	);

	CREATE INDEX IF NOT EXISTS idx_resources_page ON resources(page_url);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// SavePage upserts a page along with its links and resources.
func (s *SQLiteStorage) SavePage(page types.StoredPage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO pages (url, title, description, keywords, content, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			keywords = excluded.keywords,
			content = excluded.content,
			crawled_at = excluded.crawled_at`,
		page.URL,
		page.Data.Metadata.Title,
		page.Data.Metadata.Description,
		page.Data.Metadata.Keywords,
		page.Data.Content,
		page.CrawledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source_url = ?`, page.URL); err != nil {
		return fmt.Errorf("failed to clear links: %w", err)
	}
	for _, link := range page.Data.Links {
		if _, err := tx.Exec(`INSERT INTO links (source_url, target_url) VALUES (?, ?)`,
			page.URL, link); err != nil {
			return fmt.Errorf("failed to save link: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM resources WHERE page_url = ?`, page.URL); err != nil {
		return fmt.Errorf("failed to clear resources: %w", err)
	}
	for kind, urls := range map[string][]string{
		"image":      page.Data.Resources.Images,
		"script":     page.Data.Resources.Scripts,
		"stylesheet": page.Data.Resources.Stylesheets,
	} {
		for _, u := range urls {
			if _, err := tx.Exec(`INSERT INTO resources (page_url, kind, resource_url) VALUES (?, ?, ?)`,
				page.URL, kind, u); err != nil {
				return fmt.Errorf("failed to save resource: %w", err)
			}
		}
	}

	return tx.Commit()
}

// LoadPages reads back every stored page with its links and resources.
func (s *SQLiteStorage) LoadPages() ([]types.StoredPage, error) {
	rows, err := s.db.Query(`
		SELECT url, title, description, keywords, content, crawled_at
		FROM pages ORDER BY crawled_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	pages := make([]types.StoredPage, 0)
	for rows.Next() {
		var page types.StoredPage
		if err := rows.Scan(
			&page.URL,
			&page.Data.Metadata.Title,
			&page.Data.Metadata.Description,
			&page.Data.Metadata.Keywords,
			&page.Data.Content,
			&page.CrawledAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pages: %w", err)
	}

	for i := range pages {
		if err := s.loadPageDetails(&pages[i]); err != nil {
			return nil, err
		}
	}

	return pages, nil
}

func (s *SQLiteStorage) loadPageDetails(page *types.StoredPage) error {
	rows, err := s.db.Query(`SELECT target_url FROM links WHERE source_url = ? ORDER BY id`, page.URL)
	if err != nil {
		return fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	page.Data.Links = make([]string, 0)
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return fmt.Errorf("failed to scan link: %w", err)
		}
		page.Data.Links = append(page.Data.Links, link)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	resRows, err := s.db.Query(`SELECT kind, resource_url FROM resources WHERE page_url = ? ORDER BY id`, page.URL)
	if err != nil {
		return fmt.Errorf("failed to query resources: %w", err)
	}
	defer resRows.Close()

	page.Data.Resources = types.Resources{
		Images:      make([]string, 0),
		Scripts:     make([]string, 0),
		Stylesheets: make([]string, 0),
	}
	for resRows.Next() {
		var kind, u string
		if err := resRows.Scan(&kind, &u); err != nil {
			return fmt.Errorf("failed to scan resource: %w", err)
		}
		switch kind {
		case "image":
			page.Data.Resources.Images = append(page.Data.Resources.Images, u)
		case "script":
			page.Data.Resources.Scripts = append(page.Data.Resources.Scripts, u)
		case "stylesheet":
			page.Data.Resources.Stylesheets = append(page.Data.Resources.Stylesheets, u)
		}
	}
	return resRows.Err()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// ensure both backends satisfy the interface
var (
	_ Backend = (*Storage)(nil)
	_ Backend = (*SQLiteStorage)(nil)
)

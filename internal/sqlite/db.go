package sqlite

import (
	"io"
	"log/slog"
	"os"
)

// DB is a read-only session over one database file. It owns the file handle
// and a lazily populated page cache sized to the in-header page count; pages
// are decoded on first access and retained until Close. A DB holds no
// cross-query state and is not safe for concurrent use.
type DB struct {
	file   *os.File
	path   string
	header *Header
	pages  []*Page
	logger *slog.Logger
}

// Option configures a DB session.
type Option func(*DB)

// WithLogger attaches a structured logger to the session.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		db.logger = logger
	}
}

// Open opens a database file read-only, decodes and validates its header
// and prepares the page cache.
func Open(path string, options ...Option) (*DB, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, newDatabaseError("open_database", 0, ErrIO, map[string]interface{}{
			"path":  path,
			"cause": err.Error(),
		})
	}

	db := &DB{
		file:   file,
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(db)
	}

	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(file, buf); err != nil {
		file.Close()
		return nil, newDatabaseError("read_header", 0, ErrTruncated, map[string]interface{}{
			"path":  path,
			"cause": err.Error(),
		})
	}
	header, err := ParseHeader(buf)
	if err != nil {
		file.Close()
		return nil, err
	}

	db.header = header
	db.pages = make([]*Page, header.PageCount)
	db.logger.Debug("database opened",
		"path", path,
		"page_size", header.PageSize,
		"page_count", header.PageCount,
		"usable_size", header.UsableSize())
	return db, nil
}

// Header returns the decoded file header.
func (db *DB) Header() *Header {
	return db.header
}

// Page returns the decoded page with the given 1-based number, reading and
// decoding it on first access.
func (db *DB) Page(n int) (*Page, error) {
	if n < 1 || n > len(db.pages) {
		return nil, newDatabaseError("load_page", n, ErrCellOffsetOutOfBounds, map[string]interface{}{
			"page_count": len(db.pages),
		})
	}
	if p := db.pages[n-1]; p != nil {
		return p, nil
	}

	raw := make([]byte, db.header.PageSize)
	offset := int64(n-1) * int64(db.header.PageSize)
	if _, err := db.file.ReadAt(raw, offset); err != nil {
		return nil, newDatabaseError("load_page", n, ErrIO, map[string]interface{}{
			"offset": offset,
			"cause":  err.Error(),
		})
	}

	headerStart := 0
	if n == 1 {
		headerStart = HeaderSize
	}
	page, err := DecodePage(raw[:db.header.UsableSize()], n, headerStart)
	if err != nil {
		return nil, err
	}
	db.pages[n-1] = page
	return page, nil
}

// Close releases the file handle.
func (db *DB) Close() error {
	if db.file == nil {
		return nil
	}
	err := db.file.Close()
	db.file = nil
	return err
}

// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations
//	├── books/           # Book catalog CRUD and reading statistics
//	├── documents/       # Scanned document rows
//	├── grants/          # Directory grants the scanner walks
//	├── notifications/   # Job completion notifications
//	└── settings/        # Application settings
//
// # Using Sub-packages
//
// Open wires every repository onto the returned Database:
//
//	db, err := database.Open(cfg.Database, logger.Warn)
//
//	book, err := db.Books.GetByID(123)
//	uris, err := db.Documents.KnownURIs()
//	roots, err := db.Grants.List()
//
// Repositories can also be built directly from a *gorm.DB, which is how
// the sub-package tests use them:
//
//	repo := books.NewRepository(gormDB)
//
// Cross-entity operations (book, document, cover file) are not wrapped in
// a transaction; each repository call stands alone.
//
// # Adding a New Domain
//
// To add a new domain (e.g., analytics):
//
//  1. Create a new sub-package: internal/database/analytics/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add the entity to the AutoMigrate list in Open
//  6. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// NewTest opens an isolated in-memory database for tests.
func NewTest() (*gorm.DB, error) {
	// A private in-memory SQLite database exists per connection, so pooled
	// connections would each see an empty schema. A uniquely named
	// shared-cache database keeps one schema per NewTest call instead.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
}

// persistence/interface.go
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/sweeper/models"
)

// Database archives finished games. Nothing in it is read back into live
// rooms.
type Database interface {
	SaveGameRecord(ctx context.Context, record *models.GameRecord) error
	LoadGameRecord(ctx context.Context, id string) (*models.GameRecord, error)
	// RecentGameRecords returns up to limit records, newest first.
	RecentGameRecords(ctx context.Context, limit int) ([]models.GameRecord, error)
	GameStats(ctx context.Context) (*models.GameStats, error)
	Close() error
}

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownDriver  = errors.New("unknown database driver")
)

type Options struct {
	Driver   string // gorm or pq
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

func (o Options) dsn() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		o.Host, o.Port, o.User, o.Password, o.DBName)
}

// Open connects to the archive selected by opts.Driver.
func Open(opts Options) (Database, error) {
	switch opts.Driver {
	case "gorm", "":
		return NewGormPostgreSQL(opts)
	case "pq":
		return NewPostgreSQL(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

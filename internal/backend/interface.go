package backend

import (
	"context"

	"gameradar/internal/notify"
	"gameradar/internal/sheets"
	"gameradar/internal/storage"
)

// CleanupFunc releases whatever a factory opened.
type CleanupFunc func() error

// Result bundles everything the process needs beyond the catalog itself.
type Result struct {
	Gateway  storage.Gateway
	Notifier notify.Notifier
	Gate     *notify.Gate
	// Recent keeps the last notifications that passed the gate.
	Recent *notify.Recorder
	// Mirror is nil when no spreadsheet is configured.
	Mirror  sheets.RowWriter
	Cleanup CleanupFunc
}

// Factory builds the persistence gateway and the outbound integrations.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	SeedFile     string

	NotifyPermission notify.Permission
	NotifyLog        bool

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

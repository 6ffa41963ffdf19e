package backend

import (
	"context"
	"errors"
	"fmt"

	"gameradar/internal/amqp"
	"gameradar/internal/log"
	"gameradar/internal/notify"
	gsheet "gameradar/internal/sheets/google"
	"gameradar/internal/storage"
	"gameradar/internal/storage/memory"
)

const recentNotifications = 50

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// Create opens the gateway and wires the optional integrations. AMQP and
// Sheets failures are logged and the process continues without them.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	var closers []func() error

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Gateway = repo
		closers = append(closers, repo.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		if config.SeedFile != "" {
			res.Gateway = memory.NewFromFile(config.SeedFile)
		} else {
			res.Gateway = memory.New()
		}
		f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.SeedFile)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	res.Recent = notify.NewRecorder(recentNotifications)
	channels := notify.Multi{res.Recent}
	if config.NotifyLog {
		channels = append(channels, notify.NewLogNotifier(f.logger.WithComponent(log.ComponentNotify)))
	}
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue,
			f.logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without it", log.FieldError, err)
		} else {
			channels = append(channels, amqp.NewNotifier(client))
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}
	res.Gate = notify.NewGate(config.NotifyPermission, channels, f.logger.WithComponent(log.ComponentNotify))
	res.Notifier = res.Gate

	if config.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize Google Sheets mirror", log.FieldError, err)
		} else {
			res.Mirror = client
			f.logger.InfoContext(ctx, "Initialized Google Sheets mirror", "sheet", config.GoogleSheetName)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return res, nil
}

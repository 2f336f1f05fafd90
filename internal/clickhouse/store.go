package clickhouse

import (
	"context"
	"crypto/tls"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/creatorly/churnalytics/internal/config"
	"github.com/creatorly/churnalytics/internal/logger"
)

// ClickHouseStore wraps the native ClickHouse connection.
type ClickHouseStore struct {
	conn driver.Conn
	log  *logger.Logger
}

// NewClickHouseStore opens a connection to ClickHouse and verifies it.
func NewClickHouseStore(cfg config.ClickHouseConfig, log *logger.Logger) (*ClickHouseStore, error) {
	opts := &clickhouse.Options{
		Addr: []string{cfg.Address},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	}
	if cfg.UseTLS {
		opts.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}

	log.Infow("Connected to ClickHouse", "address", cfg.Address, "database", cfg.Database)

	return &ClickHouseStore{conn: conn, log: log}, nil
}

// GetConn returns the underlying connection.
func (s *ClickHouseStore) GetConn() driver.Conn {
	return s.conn
}

// Ping checks the ClickHouse connection.
func (s *ClickHouseStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the connection.
func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}

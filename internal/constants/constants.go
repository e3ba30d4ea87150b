package constants

import "time"

const (
	DatabaseTimeout = 5 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	RecentMatchLimit = 10
)

const (
	WSWriteTimeout    = 10 * time.Second
	WSPingInterval    = 30 * time.Second
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
)

package constants

import "time"

const (
	RequestTimeout     = 30 * time.Second
	DatabaseTimeout    = 5 * time.Second
	MetadataTimeout    = 10 * time.Second
	ObjectStoreTimeout = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// OptimizeQueueCapacity bounds the in-process background optimization
	// queue; enqueue fails fast when full rather than blocking uploads.
	OptimizeQueueCapacity = 256
)

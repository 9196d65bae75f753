package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// TrainRequestTimeout bounds a synchronous train or forecast request
	TrainRequestTimeout = 5 * time.Minute

	// ObservationTimeout bounds a single online update triggered by a message
	ObservationTimeout = 30 * time.Second
)

// Store Timeouts
const (
	// StoreOpTimeout is the timeout for a single model store operation
	StoreOpTimeout = 5 * time.Second

	// PublishTimeout is the timeout for publishing a forecast event
	PublishTimeout = 5 * time.Second
)

// =============================================================================
// Forecast Constants
// =============================================================================

const (
	// ForecastInterval1d is the spacing between consecutive daily forecasts
	ForecastInterval1d = 24 * time.Hour

	// ExportDays is the number of daily entries produced by the JSON export
	ExportDays = 30
)

// =============================================================================
// Retry and Backoff Constants
// =============================================================================

const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond

	// MaxRetryBackoff is the maximum backoff duration
	MaxRetryBackoff = 5 * time.Second
)

// =============================================================================
// Buffer and Batch Size Constants
// =============================================================================

const (
	// DefaultBufferSize is the default buffer size for channels
	DefaultBufferSize = 100

	// MaxObservationBatch is the largest values[] accepted in one update
	MaxObservationBatch = 10000
)

// =============================================================================
// Queue Type Constants
// =============================================================================
// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)

// =============================================================================
// Store Type Constants
// =============================================================================

// StoreType represents the model snapshot backend
type StoreType string

const (
	// StoreTypeMemory keeps snapshots in process memory
	StoreTypeMemory StoreType = "memory"

	// StoreTypeRedis keeps snapshots in Redis
	StoreTypeRedis StoreType = "redis"
)

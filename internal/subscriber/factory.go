package subscriber

import (
	"fmt"
	"strings"

	"github.com/soltixdb/sitecast/internal/config"
	"github.com/soltixdb/sitecast/internal/utils"
)

// NewSubscriber creates a new Subscriber based on the queue configuration
func NewSubscriber(cfg config.QueueConfig, subCfg Config) (Subscriber, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))
	if queueType == "" {
		queueType = utils.QueueTypeNATS
	}
	if subCfg.NodeID == "" {
		subCfg.NodeID = cfg.NodeID
	}
	if subCfg.ConsumerGroup == "" {
		subCfg.ConsumerGroup = cfg.ConsumerGroup
	}
	subCfg = subCfg.withDefaults()

	switch queueType {
	case utils.QueueTypeNATS:
		return NewNATSSubscriber(cfg.URL, subCfg)
	case utils.QueueTypeRedis:
		addr := cfg.URL
		if addr == "" {
			addr = "localhost:6379"
		}
		return NewRedisSubscriber(RedisConfig{
			Addr:     addr,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
		}, subCfg)
	case utils.QueueTypeKafka:
		return NewKafkaSubscriber(cfg.KafkaBrokers, subCfg)
	case utils.QueueTypeMemory:
		return NewMemorySubscriber()
	default:
		return nil, fmt.Errorf("unsupported queue type: %s", queueType)
	}
}

package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamDefinitionKey returns the cache key for an exam's scoring definition
func (r *CacheKeyStruct) ExamDefinitionKey(examID string) string {
	return fmt.Sprintf("exam:%s:definition", examID)
}

// ResultUpdatesChannel returns the Redis PubSub channel for live score updates
func (r *CacheKeyStruct) ResultUpdatesChannel() string {
	return "results:updates"
}

var CacheKey = NewCacheKeyStruct()

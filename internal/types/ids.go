// internal/types/ids.go
package types

import "github.com/google/uuid"

type InsightID string
type RequestID string

func NewInsightID() InsightID {
	return InsightID(uuid.New().String())
}

func NewRequestID() RequestID {
	return RequestID(uuid.New().String())
}

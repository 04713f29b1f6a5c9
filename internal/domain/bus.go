package domain

import (
	"context"
)

// EventBus defines the interface for event-driven communication.
// Supports Go channels (Community) or NATS (Pro).
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string

	// Channel settings (Community tier)
	ChannelBufferSize int

	// NATS settings (Pro tier)
	NATSUrl           string
	NATSToken         string
	NATSMaxReconnects int
	NATSReconnectWait int // seconds
}

// Standard topic names for the analysis pipeline.
const (
	TopicAnalysisRequested = "harrier.analysis.requested"
	TopicAnalysisCompleted = "harrier.analysis.completed"
	TopicAnalysisFailed    = "harrier.analysis.failed"
)

// AnalysisRequestedEvent is the payload published on TopicAnalysisRequested.
type AnalysisRequestedEvent struct {
	RequestID   string        `json:"requestId"`
	DatasetType DatasetType   `json:"datasetType"`
	Lines       []string      `json:"lines"`
	Processor   ProcessorSpec `json:"processor"`
	Detector    DetectorSpec  `json:"detector"`
	Filter      string        `json:"filter,omitempty"`
}

// AnalysisCompletedEvent is the payload published on TopicAnalysisCompleted.
type AnalysisCompletedEvent struct {
	RequestID        string      `json:"requestId"`
	AnalysisID       string      `json:"analysisId"`
	DatasetType      DatasetType `json:"datasetType"`
	DetectorName     string      `json:"detectorName"`
	ProcessorName    string      `json:"processorName,omitempty"`
	TransactionCount int         `json:"transactionCount"`
	AnomalyCount     int         `json:"anomalyCount"`
	TotalMs          int64       `json:"totalMs"`
}

// AnalysisFailedEvent is the payload published on TopicAnalysisFailed.
type AnalysisFailedEvent struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
}

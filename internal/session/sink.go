package session

import (
	"context"
	"fmt"
)

// Sink appends completed recordings to durable storage
type Sink interface {
	Record(ctx context.Context, name, audioURI string) error
}

// RecordingName is the persisted label for a slot, numbered from 1
func RecordingName(slot int) string {
	return fmt.Sprintf("Recording %d", slot+1)
}

type discardSink struct{}

func (discardSink) Record(context.Context, string, string) error { return nil }

package enums

import "fmt"

// OutboxKind names a background task emitted through the transactional outbox.
type OutboxKind string

const (
	OutboxKindListSubscribe OutboxKind = "list.subscribe"
)

var validOutboxKinds = []OutboxKind{
	OutboxKindListSubscribe,
}

// IsValid reports whether the value matches the canonical outbox kind enum.
func (k OutboxKind) IsValid() bool {
	for _, candidate := range validOutboxKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseOutboxKind converts raw input into OutboxKind.
func ParseOutboxKind(value string) (OutboxKind, error) {
	for _, candidate := range validOutboxKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox kind %q", value)
}

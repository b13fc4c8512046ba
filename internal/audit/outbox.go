package audit

import (
	"github.com/google/uuid"

	id "custos/pkg/domain"
)

// OutboxEntry is a committed event awaiting relay to Kafka. Payload is
// the JSON-encoded Event exactly as consumers will receive it.
type OutboxEntry struct {
	ID        uuid.UUID
	EventSeq  uint64
	ProductID id.ProductID
	Kind      Kind
	Payload   []byte
}

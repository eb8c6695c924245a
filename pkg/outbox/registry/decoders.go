package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type versionedType struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry is the consumer side: it turns the data of a delivered
// envelope into a typed payload, keyed by event type and envelope version.
type DecoderRegistry struct {
	mu       sync.RWMutex
	decoders map[versionedType]func(json.RawMessage) (any, error)
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: map[versionedType]func(json.RawMessage) (any, error){}}
}

func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decode func(json.RawMessage) (any, error)) {
	r.mu.Lock()
	r.decoders[versionedType{eventType, version}] = decode
	r.mu.Unlock()
}

// Decode fails for any (type, version) pair nobody registered.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (any, error) {
	r.mu.RLock()
	decode, ok := r.decoders[versionedType{eventType, version}]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
	}
	return decode(payload)
}

// RegisterJSON registers a decoder that unmarshals into *T and then runs check, if given.
func RegisterJSON[T any](r *DecoderRegistry, eventType enums.OutboxEventType, version int, check func(*T) error) {
	r.Register(eventType, version, func(raw json.RawMessage) (any, error) {
		v := new(T)
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, err
		}
		if check != nil {
			if err := check(v); err != nil {
				return nil, err
			}
		}
		return v, nil
	})
}

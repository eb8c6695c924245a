package models

import (
	"github.com/google/uuid"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model, in dependency order, for schema bootstrapping.
func All() []any {
	return []any{
		&User{},
		&Collection{},
		&Product{},
		&Review{},
		&Cart{},
		&CartItem{},
		&Customer{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}

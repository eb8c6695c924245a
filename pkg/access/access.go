// Package access holds the per-route authorization policy for the store API.
package access

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type Resource string

const (
	ResourceCollections     Resource = "collections"
	ResourceProducts        Resource = "products"
	ResourceReviews         Resource = "reviews"
	ResourceCarts           Resource = "carts"
	ResourceCustomers       Resource = "customers"
	ResourceCustomerSelf    Resource = "customer_self"
	ResourceCustomerHistory Resource = "customer_history"
	ResourceOrders          Resource = "orders"
)

type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// Principal is the caller as seen by the policy. The zero value is anonymous.
type Principal struct {
	UserID        uuid.UUID
	Authenticated bool
	IsStaff       bool
	Permissions   []string
}

// Has reports whether the principal holds the named capability.
func (p Principal) Has(permission string) bool {
	for _, candidate := range p.Permissions {
		if candidate == permission {
			return true
		}
	}
	return false
}

type requirement int

const (
	allowAnyone requirement = iota
	requireAuthenticated
	requireStaff
	requireViewHistory
	deny
)

var policy = map[Resource]map[Action]requirement{
	ResourceCollections: catalogRules(),
	ResourceProducts:    catalogRules(),
	ResourceReviews:     openRules(),
	ResourceCarts:       openRules(),
	ResourceCustomers: {
		ActionList:     requireStaff,
		ActionRetrieve: requireStaff,
		ActionCreate:   requireStaff,
		ActionUpdate:   requireStaff,
		ActionDelete:   requireStaff,
	},
	ResourceCustomerSelf: {
		ActionRetrieve: requireAuthenticated,
		ActionUpdate:   requireAuthenticated,
	},
	ResourceCustomerHistory: {
		ActionRetrieve: requireViewHistory,
	},
	ResourceOrders: {
		ActionList:     requireAuthenticated,
		ActionRetrieve: requireAuthenticated,
		ActionCreate:   requireAuthenticated,
		ActionUpdate:   requireStaff,
		ActionDelete:   requireStaff,
	},
}

func catalogRules() map[Action]requirement {
	return map[Action]requirement{
		ActionList:     allowAnyone,
		ActionRetrieve: allowAnyone,
		ActionCreate:   requireStaff,
		ActionUpdate:   requireStaff,
		ActionDelete:   requireStaff,
	}
}

func openRules() map[Action]requirement {
	return map[Action]requirement{
		ActionList:     allowAnyone,
		ActionRetrieve: allowAnyone,
		ActionCreate:   allowAnyone,
		ActionUpdate:   allowAnyone,
		ActionDelete:   allowAnyone,
	}
}

// Authorize returns nil when p may perform action on resource. Anonymous callers on
// gated routes get Unauthorized; authenticated callers lacking the role get Forbidden.
func Authorize(p Principal, resource Resource, action Action) error {
	req, ok := policy[resource][action]
	if !ok {
		req = deny
	}

	switch req {
	case allowAnyone:
		return nil
	case deny:
		return pkgerrors.New(pkgerrors.CodeForbidden, "action not permitted")
	}

	if !p.Authenticated {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication credentials were not provided")
	}

	switch req {
	case requireStaff:
		if !p.IsStaff {
			return pkgerrors.New(pkgerrors.CodeForbidden, "staff access required")
		}
	case requireViewHistory:
		if !p.Has(string(enums.PermissionViewHistory)) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "view_history permission required")
		}
	}
	return nil
}

// Scope narrows order queries to what the principal may see.
type Scope struct {
	All    bool
	UserID uuid.UUID
}

// OrderScope lets staff see every order and everyone else only their own customer's.
func OrderScope(p Principal) Scope {
	if p.IsStaff {
		return Scope{All: true, UserID: p.UserID}
	}
	return Scope{UserID: p.UserID}
}

package enums

// Permission is a capability granted to a user on top of the staff flag.
type Permission string

// PermissionViewHistory lets a user read any customer's order history.
const PermissionViewHistory Permission = "view_history"

func (p Permission) String() string { return string(p) }

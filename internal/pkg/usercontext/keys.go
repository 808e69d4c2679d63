package usercontext

// Shared Locals/session keys. The dashboard writes the session keys; this
// service only reads them.
const (
	KeyCustomerID    = "customer_id"
	KeyAdminID       = "admin_id"
	KeyUsername      = "username"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"

	localsKey = "USER_CONTEXT"
)

package domain

// Principal identifies who a mutation is attributed to in audit fields. Calls
// made without an authenticated user (provider callbacks, system-initiated
// sends) must pass SystemPrincipal explicitly so the call site acknowledges it
// is acting on its own authority.
type Principal struct {
	UserID string
	System bool
}

func UserPrincipal(userID string) Principal { return Principal{UserID: userID} }

var SystemPrincipal = Principal{UserID: "system", System: true}

func (p Principal) AuditID() string {
	if p.System {
		return "system"
	}
	return p.UserID
}

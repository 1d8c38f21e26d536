package types

// Role identifies one of the ledger's access control role sets.
type Role string

const (
	// RoleOwner is the super-admin role. It manages every other role, the
	// blockchain registry, fund withdrawal and the pause switch.
	RoleOwner Role = "OWNER"

	// RoleAdmin tunes fee, quote and per-chain minimum parameters.
	RoleAdmin Role = "ADMIN"

	// RoleMonitor is the trusted off-chain relayer allowed to submit
	// AcceptTransfer calls.
	RoleMonitor Role = "MONITOR"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMonitor:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

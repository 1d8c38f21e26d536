package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	bridgeerrors "github.com/brzbridge/ledger-lib/common/errors"
	"github.com/brzbridge/ledger-lib/common/types"
)

// Access control facet. Only Owner holders may grant or revoke roles,
// including the Owner role itself. A duplicate grant and a revoke of an
// absent holder are no-op successes; the events are only emitted when
// membership actually changes.

// HasRole reports whether account holds the given role.
func (b *Bridge) HasRole(role types.Role, account common.Address) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.roles[role][account]
}

// GrantRole adds account to the role set. Owner only, pause-gated.
func (b *Bridge) GrantRole(caller common.Address, role types.Role, account common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grantRole(caller, role, account)
}

// RevokeRole removes account from the role set. Owner only, pause-gated.
// An owner can never revoke their own Owner role; transferring ownership
// requires granting it to another account first and revoking from there.
func (b *Bridge) RevokeRole(caller common.Address, role types.Role, account common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revokeRole(caller, role, account)
}

// RenounceRole removes the caller from a role set they hold. Renouncing
// the Owner role fails while the caller is the last owner, so the ledger
// can never be left without a super-admin.
func (b *Bridge) RenounceRole(caller common.Address, role types.Role) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if !role.Valid() {
		return bridgeerrors.ErrUnknownRole
	}

	if role == types.RoleOwner && b.roles[types.RoleOwner][caller] && len(b.roles[types.RoleOwner]) == 1 {
		return bridgeerrors.ErrLastOwner
	}

	if !b.roles[role][caller] {
		return nil
	}

	delete(b.roles[role], caller)
	b.emit(types.EventRoleRevoked, types.RoleChange{Role: role, Account: caller, Sender: caller})

	b.logger.WithFields(logrus.Fields{
		"role":    role.String(),
		"account": caller.Hex(),
	}).Info("Role renounced")
	return nil
}

// AddMonitor grants the Monitor role. Owner only, pause-gated.
func (b *Bridge) AddMonitor(caller, account common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grantRole(caller, types.RoleMonitor, account)
}

// DelMonitor revokes the Monitor role. Owner only, pause-gated.
func (b *Bridge) DelMonitor(caller, account common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revokeRole(caller, types.RoleMonitor, account)
}

// AddAdmin grants the Admin role. Owner only, pause-gated.
func (b *Bridge) AddAdmin(caller, account common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grantRole(caller, types.RoleAdmin, account)
}

// DelAdmin revokes the Admin role. Owner only, pause-gated.
func (b *Bridge) DelAdmin(caller, account common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revokeRole(caller, types.RoleAdmin, account)
}

// grantRole must be called with the mutex held.
func (b *Bridge) grantRole(caller common.Address, role types.Role, account common.Address) error {
	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.requireRole(types.RoleOwner, caller, bridgeerrors.ErrNotOwner); err != nil {
		return err
	}
	if !role.Valid() {
		return bridgeerrors.ErrUnknownRole
	}

	if b.roles[role][account] {
		return nil
	}

	b.roles[role][account] = true
	b.emit(types.EventRoleGranted, types.RoleChange{Role: role, Account: account, Sender: caller})

	b.logger.WithFields(logrus.Fields{
		"role":    role.String(),
		"account": account.Hex(),
		"sender":  caller.Hex(),
	}).Info("Role granted")
	return nil
}

// revokeRole must be called with the mutex held.
func (b *Bridge) revokeRole(caller common.Address, role types.Role, account common.Address) error {
	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.requireRole(types.RoleOwner, caller, bridgeerrors.ErrNotOwner); err != nil {
		return err
	}
	if !role.Valid() {
		return bridgeerrors.ErrUnknownRole
	}

	if role == types.RoleOwner && account == caller {
		return bridgeerrors.ErrSelfRevokeOwner
	}

	if !b.roles[role][account] {
		return nil
	}

	delete(b.roles[role], account)
	b.emit(types.EventRoleRevoked, types.RoleChange{Role: role, Account: account, Sender: caller})

	b.logger.WithFields(logrus.Fields{
		"role":    role.String(),
		"account": account.Hex(),
		"sender":  caller.Hex(),
	}).Info("Role revoked")
	return nil
}

package models

import (
	"landgrid/pkg/domain"
)

// State is the single administrative record of the registry: role
// assignments, the emergency-stop flag, and the one-way upgrade pointer.
type State struct {
	Administrator        domain.AccountID
	PendingAdministrator domain.AccountID
	Treasurer            domain.AccountID
	Paused               bool

	// UpgradedTo is advisory metadata for external callers. Once set it can
	// never be changed or cleared.
	UpgradedTo string
}

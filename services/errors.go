package services

import "errors"

// Group-creation refusals. These are business outcomes, not store failures;
// controllers translate them to 4xx responses. Every other operation in
// this package signals business refusals with a nil/false result instead.
var (
	ErrOwnerNotFound    = errors.New("owner user does not exist")
	ErrOwnerDisabled    = errors.New("owner account is disabled")
	ErrOwnerNotEligible = errors.New("owner is not allowed to create groups")
	ErrAlreadyOwnsGroup = errors.New("owner already has an active group")
)

// errGroupFull aborts the membership transaction when the conditional
// capacity increment finds no free slot. Never escapes the services package.
var errGroupFull = errors.New("group is at capacity")

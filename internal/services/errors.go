// Package services defines the business logic for orders, accounts, and
// notifications. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Order-related errors.
var (
	// ErrOrderNotFound indicates that the requested order does not exist or is
	// not accessible to the current user.
	ErrOrderNotFound = errors.New("order not found")

	// ErrEmptyOrder is returned when an order is submitted without items or
	// without the required customer fields.
	ErrEmptyOrder = errors.New("order is missing required fields")

	// ErrInvalidOrderType is returned when the order type is neither delivery
	// nor pickup.
	ErrInvalidOrderType = errors.New("invalid order type")

	// ErrAddressRequired is returned when a delivery order carries no address.
	ErrAddressRequired = errors.New("delivery orders require an address")

	// ErrTotalMismatch is returned when the submitted total does not equal the
	// item sum plus the delivery surcharge.
	ErrTotalMismatch = errors.New("total price does not match items")

	// ErrPickupCodeMismatch is returned when the supplied pickup code does not
	// match the one issued for the order. Not a system error; the status is
	// left unchanged.
	ErrPickupCodeMismatch = errors.New("pickup code does not match")

	// ErrNotPickupOrder is returned when pickup verification is attempted on a
	// delivery order.
	ErrNotPickupOrder = errors.New("order is not a pickup order")
)

// Account-related errors.
var (
	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned on a failed sign-in. The same value is
	// used for an unknown identifier and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrLoginTaken is returned when registration hits the unique constraint
	// on login or phone.
	ErrLoginTaken = errors.New("login or phone already taken")

	// ErrPasswordMismatch is returned when the registration confirmation does
	// not match the password.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrAccountBlocked is returned when a blocked account attempts to sign in
	// or act.
	ErrAccountBlocked = errors.New("account is blocked")

	// ErrAlreadyBlocked is returned when the owner blocks an account that
	// already has an active block.
	ErrAlreadyBlocked = errors.New("user is already blocked")
)

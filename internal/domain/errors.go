package domain

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeNoActiveAuction    Code = "NO_ACTIVE_AUCTION"
	CodeWrongLot           Code = "WRONG_LOT"
	CodeInvalidIncrement   Code = "INVALID_INCREMENT"
	CodeInsufficientBudget Code = "INSUFFICIENT_BUDGET"
	CodeNoItemsAvailable   Code = "NO_ITEMS_AVAILABLE"
)

// Error is a local, non-fatal validation failure. Two errors match with
// errors.Is when their codes are equal.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "an auction is already running"}
	ErrInvalidState       = &Error{Code: CodeInvalidState, Message: "invalid state"}
	ErrNoActiveAuction    = &Error{Code: CodeNoActiveAuction, Message: "no active auction"}
	ErrWrongLot           = &Error{Code: CodeWrongLot, Message: "item is not currently being auctioned"}
	ErrInvalidIncrement   = &Error{Code: CodeInvalidIncrement, Message: "invalid bid increment"}
	ErrInsufficientBudget = &Error{Code: CodeInsufficientBudget, Message: "insufficient budget"}
	ErrNoItemsAvailable   = &Error{Code: CodeNoItemsAvailable, Message: "no pending items available"}
)

func NotFound(kind, id string) error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s with id %s not found", kind, id)}
}

func Conflict(currentItemID string) error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf("an auction is already running for item %s", currentItemID)}
}

func InvalidState(msg string) error {
	return &Error{Code: CodeInvalidState, Message: msg}
}

func WrongLot(itemID string) error {
	return &Error{Code: CodeWrongLot, Message: fmt.Sprintf("item %s is not currently being auctioned", itemID)}
}

func InvalidIncrement(current, increment, got int64) error {
	return &Error{
		Code: CodeInvalidIncrement,
		Message: fmt.Sprintf("bid must be exactly %d (current %d + increment %d), got %d",
			current+increment, current, increment, got),
	}
}

func InsufficientBudget(bidderID string, budget, amount int64) error {
	return &Error{
		Code:    CodeInsufficientBudget,
		Message: fmt.Sprintf("insufficient budget for bidder %s: has %d, needs %d", bidderID, budget, amount),
	}
}

// CodeOf returns the taxonomy code of err, or "" for infrastructure errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

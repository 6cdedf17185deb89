package order

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	ErrRoomNotFound           ErrorCode = "ROOM_NOT_FOUND"
	ErrSetNotFound            ErrorCode = "SET_NOT_FOUND"
	ErrSetDuplicate           ErrorCode = "SET_DUPLICATE"
	ErrItemNotFound           ErrorCode = "ITEM_NOT_FOUND"
	ErrItemKindMismatch       ErrorCode = "ITEM_KIND_MISMATCH"
	ErrItemUnavailable        ErrorCode = "ITEM_UNAVAILABLE"
	ErrSugarNotSupported      ErrorCode = "SUGAR_NOT_SUPPORTED"
	ErrSpecialStatusActive    ErrorCode = "SPECIAL_STATUS_ACTIVE"
	ErrPaymentAckRequired     ErrorCode = "PAYMENT_ACK_REQUIRED"
	ErrStaffOnly              ErrorCode = "STAFF_ONLY"
	ErrStaffNameRequired      ErrorCode = "STAFF_NAME_REQUIRED"
	ErrCombineRoomInvalid     ErrorCode = "COMBINE_ROOM_INVALID"
	ErrCombineRoomSelf        ErrorCode = "COMBINE_ROOM_SELF"
	ErrCombineRoomDuplicate   ErrorCode = "COMBINE_ROOM_DUPLICATE"
	ErrBreakfastNotAuthorized ErrorCode = "BREAKFAST_NOT_AUTHORIZED"
	ErrOrderingLocked         ErrorCode = "ORDERING_LOCKED"
	ErrDateOutOfRange         ErrorCode = "DATE_OUT_OF_RANGE"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code ErrorCode, message string, status int, details map[string]any) *Error {
	return &Error{Code: code, Message: message, StatusCode: status, Details: details}
}

func ValidationError(code ErrorCode, message string, details map[string]any) *Error {
	return newError(code, message, http.StatusBadRequest, details)
}

func ForbiddenError(code ErrorCode, message string, details map[string]any) *Error {
	return newError(code, message, http.StatusForbidden, details)
}

func ConflictError(code ErrorCode, message string, details map[string]any) *Error {
	return newError(code, message, http.StatusConflict, details)
}

func NotFoundError(code ErrorCode, message string, details map[string]any) *Error {
	return newError(code, message, http.StatusNotFound, details)
}

// AsError unwraps err into an *Error when it is one.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// HasCode reports whether err is an order error with the given code.
func HasCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

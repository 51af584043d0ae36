package cms

import "errors"

// Sentinel errors for cms operations
var (
	ErrGenericNotFound   = errors.New("not found")
	ErrMissingField      = errors.New("required field missing")
	ErrCircularParent    = errors.New("this parent would create a circular page hierarchy")
	ErrUnknownParent     = errors.New("parent page does not exist")
	ErrPathTaken         = errors.New("another page already uses this path")
	ErrInvalidSlug       = errors.New("slug may only contain lowercase letters, numbers, and -")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidStatus     = errors.New("unknown page status")
	ErrValidationFailed  = errors.New("page failed publish validation")
	ErrInvalidSection    = errors.New("invalid template section")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrInvalidRule       = errors.New("invalid internal link rule")
	ErrInvalidRedirect   = errors.New("invalid redirect")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidSchemaType = errors.New("unknown schema type")
)

package complaint

import "errors"

var (
	ErrInvalidStatus   = errors.New("invalid status value")
	ErrInvalidAssignee = errors.New("invalid assignee")
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidLocation = errors.New("invalid location")
	ErrImageNotFound   = errors.New("image not found")
)

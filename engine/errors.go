package engine

import (
	"errors"
	"fmt"
)

// NotFoundError reports a referenced record that does not exist. Handlers
// translate it to a 404.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

var (
	ErrInvalidStatus          = errors.New("invalid pipeline status")
	ErrInvalidInteractionType = errors.New("invalid interaction type")
	ErrStageOutsidePipeline   = errors.New("stage does not belong to pipeline")
)

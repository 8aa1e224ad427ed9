package repository

import "errors"

// ErrConstraint marks a storage-layer constraint violation, e.g. creating an
// instrument whose symbol already exists. Match with errors.Is.
var ErrConstraint = errors.New("constraint violation")

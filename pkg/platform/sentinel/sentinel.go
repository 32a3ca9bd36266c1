package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so handlers can translate them into domain errors.
//
// - ErrNotFound: entity does not exist in store
// - ErrConflict: entity already exists
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

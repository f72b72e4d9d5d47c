package core

import (
	"errors"
	"fmt"
)

// Stage is a step of the persistence startup sequence.
//
//	Disconnected -> ServerConnected -> DatabaseEnsured ->
//	DatabaseConnected -> TableEnsured -> Ready
//
// Closed is entered by teardown from any stage.
type Stage int

const (
	StageDisconnected Stage = iota
	StageServerConnected
	StageDatabaseEnsured
	StageDatabaseConnected
	StageTableEnsured
	StageReady
	StageClosed
)

var stageNames = [...]string{
	StageDisconnected:      "disconnected",
	StageServerConnected:   "server_connected",
	StageDatabaseEnsured:   "database_ensured",
	StageDatabaseConnected: "database_connected",
	StageTableEnsured:      "table_ensured",
	StageReady:             "ready",
	StageClosed:            "closed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// ErrNotReady is returned when an operation needs a connection that the
// provisioner does not hold in its current stage.
var ErrNotReady = errors.New("database connection not ready")

// PersistenceError reports a failure connecting, provisioning or inserting.
// Stage is where the sequence was when Op failed.
type PersistenceError struct {
	Stage Stage
	Op    string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsPersistence reports whether err is (or wraps) a *PersistenceError.
func IsPersistence(err error) bool {
	var perr *PersistenceError
	return errors.As(err, &perr)
}

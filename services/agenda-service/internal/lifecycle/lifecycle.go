// Package lifecycle holds the appointment status rules.
//
//	create            -> pending
//	pending   confirm -> confirmed
//	confirmed revert  -> pending
//	pending   cancel  -> canceled
//	confirmed cancel  -> canceled
//	canceled  delete  -> (removed)
//
// Generic edits are allowed only while pending; the status-aware update
// path also accepts confirmed records and may move them between pending and
// confirmed.
package lifecycle

import (
	"fmt"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
)

type Op string

const (
	OpCreate  Op = "create"
	OpConfirm Op = "confirm"
	OpRevert  Op = "revert"
	OpCancel  Op = "cancel"
	OpDelete  Op = "delete"
	OpEdit    Op = "edit"
	OpUpdate  Op = "update"
)

// TransitionError is a violated guard. Message is meant for end users.
type TransitionError struct {
	From    model.Status
	Op      Op
	Message string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s appointment in status %s", e.Op, e.From)
}

func (e *TransitionError) Unwrap() error {
	return model.ErrInvalidTransition
}

func reject(from model.Status, op Op, msg string) error {
	return &TransitionError{From: from, Op: op, Message: msg}
}

// Next returns the status reached by a status-changing op.
func Next(from model.Status, op Op) (model.Status, error) {
	switch op {
	case OpConfirm:
		if from != model.StatusPending {
			return from, reject(from, op, MsgConfirmNotPending)
		}
		return model.StatusConfirmed, nil
	case OpRevert:
		if from != model.StatusConfirmed {
			return from, reject(from, op, MsgRevertNotConfirm)
		}
		return model.StatusPending, nil
	case OpCancel:
		if from == model.StatusCanceled {
			return from, reject(from, op, MsgAlreadyCanceled)
		}
		return model.StatusCanceled, nil
	default:
		return from, fmt.Errorf("op %q does not change status", op)
	}
}

// CheckEdit guards the generic field edit.
func CheckEdit(from model.Status) error {
	switch from {
	case model.StatusPending:
		return nil
	case model.StatusConfirmed:
		return reject(from, OpEdit, MsgEditConfirmed)
	default:
		return reject(from, OpEdit, MsgEditCanceled)
	}
}

// CheckUpdate guards the status-aware update. target is the requested
// status, or "" to keep the current one.
func CheckUpdate(from, target model.Status) error {
	if from != model.StatusPending && from != model.StatusConfirmed {
		return reject(from, OpUpdate, MsgEditCanceled)
	}
	switch target {
	case "", model.StatusPending, model.StatusConfirmed:
		return nil
	default:
		return reject(from, OpUpdate, MsgInvalidStatus)
	}
}

// CheckDelete allows permanent removal only of canceled records.
func CheckDelete(from model.Status) error {
	if from != model.StatusCanceled {
		return reject(from, OpDelete, MsgDeleteNotCanceled)
	}
	return nil
}

// SuccessMessage is the message returned when op succeeds.
func SuccessMessage(op Op) string {
	switch op {
	case OpCreate:
		return MsgCreated
	case OpConfirm:
		return MsgConfirmed
	case OpRevert:
		return MsgReverted
	case OpCancel:
		return MsgCanceled
	case OpDelete:
		return MsgDeleted
	default:
		return MsgUpdated
	}
}

// Occupies reports whether an appointment in status s blocks its slot.
func Occupies(s model.Status) bool {
	return s != model.StatusCanceled
}

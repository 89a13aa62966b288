package models

import (
	"errors"
	"time"
)

type ApprovalState string

const (
	StatePending  ApprovalState = "Pending"
	StateApproved ApprovalState = "Approved"
	StateRejected ApprovalState = "Rejected"
)

var ErrInvalidTransition = errors.New("invalid approval transition")

func (s ApprovalState) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected:
		return true
	}
	return false
}

// Listing is a product offered by the user account OwnerID.
type Listing struct {
	ID              string
	OwnerID         string
	Name            string
	Price           float64
	RollNo          string
	CollegeName     string
	GoogleDriveLink string
	Description     string
	Dept            string
	PhoneNo         string
	ApprovedStatus  bool
	ApprovedString  ApprovalState
	PhotoKey        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OwnedListing is a listing annotated with its owner's email for feeds that
// span accounts.
type OwnedListing struct {
	Listing
	OwnerEmail string
}

// Timestamp is the current UTC time at the millisecond precision all stores
// keep.
func Timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Touch stamps UpdatedAt before a write.
func (l *Listing) Touch() {
	l.UpdatedAt = Timestamp()
}

func (l Listing) State() ApprovalState {
	return l.ApprovedString
}

// setState keeps ApprovedStatus and ApprovedString in agreement.
func (l *Listing) setState(state ApprovalState) {
	l.ApprovedString = state
	l.ApprovedStatus = state == StateApproved
}

// MarkPending returns the listing to review. Owner edits always land here,
// whatever the prior state.
func (l *Listing) MarkPending() {
	l.setState(StatePending)
}

// Approve moves a pending listing to Approved. Approving an approved listing
// is a no-op.
func (l *Listing) Approve() error {
	return l.decide(StateApproved)
}

// Reject moves a pending listing to Rejected. Rejecting a rejected listing is
// a no-op.
func (l *Listing) Reject() error {
	return l.decide(StateRejected)
}

func (l *Listing) decide(target ApprovalState) error {
	switch l.ApprovedString {
	case target:
		l.setState(target)
		return nil
	case StatePending:
		l.setState(target)
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Normalize repairs a listing read from storage whose two approval fields
// disagree or are unset. The string form wins when it is recognised.
func (l *Listing) Normalize() {
	if !l.ApprovedString.Valid() {
		if l.ApprovedStatus {
			l.setState(StateApproved)
			return
		}
		l.setState(StatePending)
		return
	}
	l.setState(l.ApprovedString)
}

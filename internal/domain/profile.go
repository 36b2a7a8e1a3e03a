package domain

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	MinPublicID = 100000
	MaxPublicID = 999999
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	publicIDPattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// OwnerProfile is the read-only view of an owner supplied by the profile store.
// PensionTargetYear is the only field the engine writes.
type OwnerProfile struct {
	ID                uuid.UUID
	DisplayName       string
	Email             string
	PublicID          int
	PensionTargetYear *int
}

// RecipientRef identifies the receiver of a peer transfer.
// Exactly one of PublicID or Email is set.
type RecipientRef struct {
	PublicID int
	Email    string
}

// ParseRecipientRef validates the raw identifiers typed by the sender.
// Supplying both, neither, or a malformed identifier is a ValidationError.
func ParseRecipientRef(rawPublicID, rawEmail string) (RecipientRef, error) {
	idValue := strings.TrimSpace(rawPublicID)
	emailValue := strings.TrimSpace(rawEmail)

	switch {
	case idValue == "" && emailValue == "":
		return RecipientRef{}, NewValidationError("recipient", "please enter either a WealthNest ID or an email address")
	case idValue != "" && emailValue != "":
		return RecipientRef{}, NewValidationError("recipient", "please enter either an ID or an email, not both")
	case idValue != "":
		if !publicIDPattern.MatchString(idValue) {
			return RecipientRef{}, NewValidationError("recipient_public_id", "invalid WealthNest ID, please enter a valid 6-digit ID")
		}
		publicID, err := strconv.Atoi(idValue)
		if err != nil || publicID < MinPublicID || publicID > MaxPublicID {
			return RecipientRef{}, NewValidationError("recipient_public_id", "invalid WealthNest ID, please enter a valid 6-digit ID")
		}
		return RecipientRef{PublicID: publicID}, nil
	default:
		if !emailPattern.MatchString(emailValue) {
			return RecipientRef{}, NewValidationError("recipient_email", "please enter a valid email address")
		}
		return RecipientRef{Email: strings.ToLower(emailValue)}, nil
	}
}

// ByPublicID reports whether the reference is a public id (otherwise an email)
func (r RecipientRef) ByPublicID() bool {
	return r.PublicID != 0
}

func (r RecipientRef) String() string {
	if r.ByPublicID() {
		return strconv.Itoa(r.PublicID)
	}
	return r.Email
}

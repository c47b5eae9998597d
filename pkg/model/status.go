package model

// ExpiryStatus is the derived state of a dated document (license,
// registration, insurance).
type ExpiryStatus string

const (
	StatusValid         ExpiryStatus = "Valid"
	StatusAboutToExpire ExpiryStatus = "AboutToExpire"
	StatusExpired       ExpiryStatus = "Expired"
)

// StatusDraft is the sentinel key forced onto status fields of draft
// submissions.
const StatusDraft = "Draft"

// DateLayout is the wire format for date-only fields.
const DateLayout = "2006-01-02"

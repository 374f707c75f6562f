// Package entities contains domain entities for the media pipeline
package entities

// Kind is the media kind a user asked for
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindBoth  Kind = "both"
)

// Suffix returns the kind-specific staging suffix. Video and audio fetches
// for the same URL must never collide on disk.
func (k Kind) Suffix() string {
	return string(k)
}

// MediaRequest represents one user-selected download. Created when a user
// presses an inline button, consumed once by the pipeline, never persisted.
type MediaRequest struct {
	ChatID int64
	UserID int64
	URL    string
	Kind   Kind
}

// ByteSize is a byte count that may be unknown. Upstream metadata does not
// always report a size, and an unknown size must not be confused with zero.
type ByteSize struct {
	Bytes int64
	Known bool
}

// KnownSize returns a known byte size
func KnownSize(n int64) ByteSize {
	return ByteSize{Bytes: n, Known: true}
}

// UnknownSize returns an unknown byte size
func UnknownSize() ByteSize {
	return ByteSize{}
}

// MediaMetadata is the result of a metadata-only probe. Read-only downstream.
type MediaMetadata struct {
	ID       string
	Title    string
	Uploader string
	Size     ByteSize
	Ext      string
}

// StagedFile is a fetched file awaiting delivery. It is exclusively owned by
// the pipeline run that created it and is removed on every exit path.
type StagedFile struct {
	Path string
	Size int64
}

// OutcomeStatus is the terminal state of one pipeline run
type OutcomeStatus string

const (
	StatusDelivered          OutcomeStatus = "delivered"
	StatusRejectedSize       OutcomeStatus = "rejected_size"
	StatusRejectedRestricted OutcomeStatus = "rejected_restricted"
	StatusFailed             OutcomeStatus = "failed"
)

// Outcome is the terminal result of one pipeline run together with the
// user-facing message that was shown for it
type Outcome struct {
	Kind    Kind
	Status  OutcomeStatus
	Message string
}

// Delivered reports whether the run ended with the media handed to the user
func (o Outcome) Delivered() bool {
	return o.Status == StatusDelivered
}

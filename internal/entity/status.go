package entity

// Status of a dead letter.
type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Processed  Status = "processed"
	Failed     Status = "failed"
)

// DerivationState is where a single storage event ended up.
type DerivationState string

const (
	Received     DerivationState = "received"
	Skipped      DerivationState = "skipped"
	InProgress   DerivationState = "processing"
	Done         DerivationState = "done"
	DeadLettered DerivationState = "dead_lettered"
)

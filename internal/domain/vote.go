package domain

const (
	// DefaultMinVote is the lowest card in the estimation deck
	DefaultMinVote = 1
	// DefaultMaxVote is the highest card in the estimation deck
	DefaultMaxVote = 13
)

// VoteRange is the closed interval of accepted vote values
type VoteRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultVoteRange returns [1,13]
func DefaultVoteRange() VoteRange {
	return VoteRange{Min: DefaultMinVote, Max: DefaultMaxVote}
}

// Contains reports whether v lies within the range, bounds included
func (r VoteRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// VoteRequest represents a vote submission request
type VoteRequest struct {
	TableID int64 `json:"table_id"`
	Vote    *int  `json:"vote"`
}

// VoteStatus answers whether a participant has voted in the current round
type VoteStatus struct {
	ParticipantID int64 `json:"participant_id"`
	HasVoted      bool  `json:"has_voted"`
}

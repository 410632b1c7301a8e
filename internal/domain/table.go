package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// BlankTableName is used when a table is created without a name
	BlankTableName = "Blank"
	// DefaultTableName is used when GetActiveTable has to create a table
	DefaultTableName = "Default Table"
)

// Table represents one estimation session
type Table struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	Closed    bool       `json:"is_closed"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// IsOpen reports whether the table still accepts joins and votes
func (t *Table) IsOpen() bool {
	return !t.Closed
}

// TableStatus is a read view of a table and the progress of its current round
type TableStatus struct {
	Table            Table `json:"table"`
	ParticipantCount int   `json:"participant_count"`
	VotedCount       int   `json:"voted_count"`
	ReadyToClose     bool  `json:"ready_to_close"`
}

// NewTableStatus builds the status view from the bound participants
func NewTableStatus(table Table, participants []*Participant) *TableStatus {
	status := &TableStatus{
		Table:            table,
		ParticipantCount: len(participants),
	}
	for _, p := range participants {
		if p.HasCastVote() {
			status.VotedCount++
		}
	}
	status.ReadyToClose = table.IsOpen() && status.ParticipantCount > 0 && status.VotedCount == status.ParticipantCount
	return status
}

// TablePolicy controls how many open tables may exist at once
type TablePolicy string

const (
	// TablePolicyMulti allows any number of named open tables
	TablePolicyMulti TablePolicy = "multi"
	// TablePolicySingle allows at most one open table system-wide
	TablePolicySingle TablePolicy = "single"
)

// ParseTablePolicy maps a case-insensitive config value to a policy.
// An empty value means multi.
func ParseTablePolicy(s string) (TablePolicy, error) {
	switch p := TablePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return TablePolicyMulti, nil
	case TablePolicyMulti, TablePolicySingle:
		return p, nil
	default:
		return "", fmt.Errorf("invalid table policy %q: must be multi or single", s)
	}
}

package model

import (
	"slices"
	"time"
)

// Block is the program block a visitor is interested in.
type Block string

// Program blocks accepted on lead submission.
const (
	BlockOne       Block = "block1"
	BlockTwo       Block = "block2"
	BlockBoth      Block = "both"
	BlockFull      Block = "full"
	BlockUndecided Block = "undecided"
)

// Blocks lists every accepted block in display order.
var Blocks = []Block{BlockOne, BlockTwo, BlockBoth, BlockFull, BlockUndecided}

// Valid reports whether b is an accepted block.
func (b Block) Valid() bool {
	return slices.Contains(Blocks, b)
}

// Label returns a human readable label for notifications.
func (b Block) Label() string {
	switch b {
	case BlockOne:
		return "Block 1: January 12 - February 15, 2026"
	case BlockTwo:
		return "Block 2: February 16 - March 22, 2026"
	case BlockBoth:
		return "Both Blocks"
	case BlockFull:
		return "Full 10-Week Program"
	case BlockUndecided:
		return "Not Sure Yet"
	default:
		return string(b)
	}
}

// LeadStatus tracks follow-up progress on a lead.
type LeadStatus string

// Lead statuses.
const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadConverted LeadStatus = "converted"
	LeadArchived  LeadStatus = "archived"
)

// Lead is a persisted registration of interest.
type Lead struct {
	ID             string
	Name           string
	Email          string // normalized, lower-cased
	Block          Block
	ConversationID string
	Conversation   []Message
	Score          int
	Source         string
	Status         LeadStatus
	CreatedAt      time.Time
}

// LeadStats summarizes non-archived leads for the public counter.
type LeadStats struct {
	Total       int
	ThisWeek    int
	Last24Hours int
	// Latest is the creation time of the newest lead, nil when there are none.
	Latest *time.Time
}

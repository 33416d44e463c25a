package model

import "time"

// AnchorGroup holds the anchors recorded under one ledger mode.
type AnchorGroup struct {
	Mode    LedgerMode
	Anchors []Anchor
}

type AnchorReport struct {
	WalletAddress string
	GeneratedAt   time.Time
	Total         int
	Groups        []AnchorGroup
}

// GroupAnchorsByMode keeps the input order inside each group; groups follow
// the order in which their mode first appears.
func GroupAnchorsByMode(anchors []Anchor) []AnchorGroup {
	index := make(map[LedgerMode]int)
	var groups []AnchorGroup
	for _, anchor := range anchors {
		i, ok := index[anchor.LedgerMode]
		if !ok {
			i = len(groups)
			index[anchor.LedgerMode] = i
			groups = append(groups, AnchorGroup{Mode: anchor.LedgerMode})
		}
		groups[i].Anchors = append(groups[i].Anchors, anchor)
	}
	return groups
}

package ast

// NodeID addresses a node inside one parsed document. IDs are assigned in
// pre-order during parsing, so they are stable for identical input.
type NodeID uint32

// NoNodeID marks the absence of a node reference.
const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }

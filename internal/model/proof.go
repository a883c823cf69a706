package model

// ProofNode is one node in the explainability tree. The tree is rooted at
// the claim node and has exactly one verdict node reachable from the root.
type ProofNode struct {
	ID         string        `json:"id"`
	Type       ProofNodeType `json:"type"`
	Label      string        `json:"label"`
	Status     ProofStatus   `json:"status"`
	Confidence float64       `json:"confidence"` // 0-1
	Children   []string      `json:"children,omitempty"`
}

// ProofNodeType classifies a node in the proof tree
type ProofNodeType string

const (
	ProofClaim     ProofNodeType = "claim"
	ProofPremise   ProofNodeType = "premise"
	ProofEvidence  ProofNodeType = "evidence"
	ProofPredicate ProofNodeType = "predicate"
	ProofRule      ProofNodeType = "rule"
	ProofInference ProofNodeType = "inference"
	ProofVerdict   ProofNodeType = "verdict"
)

// ProofStatus summarizes what the node contributes to the argument
type ProofStatus string

const (
	ProofSupported    ProofStatus = "supported"
	ProofContradicted ProofStatus = "contradicted"
	ProofUngrounded   ProofStatus = "ungrounded"
	ProofNeutral      ProofStatus = "neutral"
)

// ProofTree is the assembled explainability structure for one claim.
type ProofTree struct {
	RootID    string               `json:"root_id"`
	VerdictID string               `json:"verdict_id"`
	Nodes     map[string]ProofNode `json:"nodes"`
}

// Walk visits nodes breadth-first from the root, calling fn for each.
func (t *ProofTree) Walk(fn func(ProofNode)) {
	if t == nil || len(t.Nodes) == 0 {
		return
	}
	seen := map[string]bool{t.RootID: true}
	queue := []string{t.RootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		node, ok := t.Nodes[id]
		if !ok {
			continue
		}
		fn(node)
		for _, child := range node.Children {
			if !seen[child] {
				seen[child] = true
				queue = append(queue, child)
			}
		}
	}
}

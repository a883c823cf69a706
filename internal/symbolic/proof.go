package symbolic

import (
	"fmt"

	"github.com/provato/provato/internal/model"
)

// proofBuilder assembles the explainable proof tree: the claim at the
// root, one premise per sub-claim holding its evidence and predicates,
// the fired rules as inference nodes, and a single verdict leaf.
type proofBuilder struct {
	tree   *model.ProofTree
	nextID int
}

func newProofBuilder() *proofBuilder {
	return &proofBuilder{tree: &model.ProofTree{Nodes: make(map[string]model.ProofNode)}}
}

func (b *proofBuilder) add(node model.ProofNode) string {
	b.nextID++
	node.ID = fmt.Sprintf("n-%d", b.nextID)
	b.tree.Nodes[node.ID] = node
	return node.ID
}

func (b *proofBuilder) attach(parentID, childID string) {
	parent := b.tree.Nodes[parentID]
	parent.Children = append(parent.Children, childID)
	b.tree.Nodes[parentID] = parent
}

// BuildProof constructs the proof tree for one analyzed claim.
func BuildProof(claim string, subClaims []model.SubClaim, evidence []model.EvidenceItem, preds []model.Predicate, firings []model.RuleFiring, verdict model.VerdictLabel, score float64) *model.ProofTree {
	b := newProofBuilder()

	rootID := b.add(model.ProofNode{
		Type:   model.ProofClaim,
		Label:  claim,
		Status: statusForVerdict(verdict),
	})
	b.tree.RootID = rootID

	evBySubClaim := make(map[string][]model.EvidenceItem)
	for _, ev := range evidence {
		evBySubClaim[ev.SubClaimID] = append(evBySubClaim[ev.SubClaimID], ev)
	}
	predsBySubClaim := make(map[string][]model.Predicate)
	for _, p := range preds {
		predsBySubClaim[p.SubClaimID] = append(predsBySubClaim[p.SubClaimID], p)
	}

	for _, sc := range subClaims {
		premiseID := b.add(model.ProofNode{
			Type:   model.ProofPremise,
			Label:  sc.Text,
			Status: premiseStatus(predsBySubClaim[sc.ID], evBySubClaim[sc.ID]),
		})
		b.attach(rootID, premiseID)

		for _, ev := range evBySubClaim[sc.ID] {
			evID := b.add(model.ProofNode{
				Type:       model.ProofEvidence,
				Label:      fmt.Sprintf("[%s] %s", ev.Tier, ev.Source),
				Status:     statusForStance(ev.Stance),
				Confidence: reliability(ev),
			})
			b.attach(premiseID, evID)
		}

		for _, p := range predsBySubClaim[sc.ID] {
			predID := b.add(model.ProofNode{
				Type:   model.ProofPredicate,
				Label:  predicateLabel(p),
				Status: predicateStatus(p),
			})
			b.attach(premiseID, predID)
		}
	}

	for _, f := range firings {
		ruleID := b.add(model.ProofNode{
			Type:       model.ProofRule,
			Label:      fmt.Sprintf("%s: %s", f.Rule, f.Conclusion),
			Status:     statusForFiring(f),
			Confidence: f.ConfidenceDelta,
		})
		b.attach(rootID, ruleID)
	}

	verdictID := b.add(model.ProofNode{
		Type:       model.ProofVerdict,
		Label:      string(verdict),
		Status:     statusForVerdict(verdict),
		Confidence: score / 100,
	})
	b.attach(rootID, verdictID)
	b.tree.VerdictID = verdictID

	return b.tree
}

func predicateLabel(p model.Predicate) string {
	switch {
	case p.ClaimedValue != nil && p.GroundValue != nil:
		return fmt.Sprintf("%s(%s) claimed %.4g, grounded %.4g", p.Type, p.Args["metric"], *p.ClaimedValue, *p.GroundValue)
	case p.ClaimedValue != nil:
		return fmt.Sprintf("%s(%s) claimed %.4g, ungrounded", p.Type, p.Args["metric"], *p.ClaimedValue)
	default:
		return string(p.Type)
	}
}

func predicateStatus(p model.Predicate) model.ProofStatus {
	if !p.Grounded {
		return model.ProofUngrounded
	}
	return model.ProofSupported
}

func premiseStatus(preds []model.Predicate, evidence []model.EvidenceItem) model.ProofStatus {
	var oppose, support int
	for _, ev := range evidence {
		switch ev.Stance {
		case model.StanceOppose:
			oppose++
		case model.StanceSupport:
			support++
		}
	}
	switch {
	case oppose > support:
		return model.ProofContradicted
	case support > 0:
		return model.ProofSupported
	case len(preds) > 0 && !anyGrounded(preds):
		return model.ProofUngrounded
	default:
		return model.ProofNeutral
	}
}

func anyGrounded(preds []model.Predicate) bool {
	for _, p := range preds {
		if p.Grounded {
			return true
		}
	}
	return false
}

func statusForStance(s model.Stance) model.ProofStatus {
	switch s {
	case model.StanceSupport:
		return model.ProofSupported
	case model.StanceOppose:
		return model.ProofContradicted
	default:
		return model.ProofNeutral
	}
}

func statusForFiring(f model.RuleFiring) model.ProofStatus {
	switch f.SuggestedVerdict {
	case model.VerdictSupported:
		return model.ProofSupported
	case model.VerdictContradicted:
		return model.ProofContradicted
	default:
		return model.ProofNeutral
	}
}

func statusForVerdict(v model.VerdictLabel) model.ProofStatus {
	switch v {
	case model.VerdictSupported:
		return model.ProofSupported
	case model.VerdictContradicted:
		return model.ProofContradicted
	default:
		return model.ProofNeutral
	}
}

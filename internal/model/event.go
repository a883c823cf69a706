package model

// VerificationEvent is one observable pipeline milestone. Events are
// emitted on the channel returned by Verify and are not persisted.
type VerificationEvent struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// EventType tags a pipeline milestone
type EventType string

const (
	EventDecomposeStart  EventType = "decompose_start"
	EventDecomposeDone   EventType = "decompose_done"
	EventRetrieveStart   EventType = "retrieve_start"
	EventEvidenceFound   EventType = "evidence_found"
	EventRetrieveDone    EventType = "retrieve_done"
	EventEvaluateStart   EventType = "evaluate_start"
	EventEvaluateDone    EventType = "evaluate_done"
	EventSynthesizeStart EventType = "synthesize_start"
	EventSubClaimVerdict EventType = "subclaim_verdict"
	EventSynthesizeDone  EventType = "synthesize_done"
	EventProvenanceStart EventType = "provenance_start"
	EventProvenanceDone  EventType = "provenance_done"
	EventCorrectionStart EventType = "correction_start"
	EventCorrectionDone  EventType = "correction_done"
	EventComplete        EventType = "complete"
)

// StageEvents returns the ordered start/done event pairs for the pipeline,
// used by the CLI progress display and by ordering tests.
func StageEvents() [][2]EventType {
	return [][2]EventType{
		{EventDecomposeStart, EventDecomposeDone},
		{EventRetrieveStart, EventRetrieveDone},
		{EventEvaluateStart, EventEvaluateDone},
		{EventSynthesizeStart, EventSynthesizeDone},
		{EventProvenanceStart, EventProvenanceDone},
		{EventCorrectionStart, EventCorrectionDone},
	}
}

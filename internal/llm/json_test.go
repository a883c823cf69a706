package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON_RawObject(t *testing.T) {
	raw := ExtractJSON(`{"verdict": "supported", "confidence": 0.8}`)
	if raw == nil {
		t.Fatal("expected raw JSON object to parse")
	}

	var out struct {
		Verdict    string  `json:"verdict"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Verdict != "supported" || out.Confidence != 0.8 {
		t.Errorf("unexpected payload: %+v", out)
	}
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	text := "Here is the analysis:\n```json\n{\"subclaims\": [\"a\", \"b\"]}\n```\nDone."
	raw := ExtractJSON(text)
	if raw == nil {
		t.Fatal("expected fenced JSON to parse")
	}

	var out struct {
		SubClaims []string `json:"subclaims"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.SubClaims) != 2 {
		t.Errorf("expected 2 subclaims, got %d", len(out.SubClaims))
	}
}

func TestExtractJSON_EmbeddedInProse(t *testing.T) {
	text := `The model concluded the following: {"label": "contradicted", "note": "growth {mismatch}"} which ends the analysis.`
	raw := ExtractJSON(text)
	if raw == nil {
		t.Fatal("expected embedded JSON to parse")
	}

	var out struct {
		Label string `json:"label"`
		Note  string `json:"note"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Label != "contradicted" {
		t.Errorf("label = %q", out.Label)
	}
	if out.Note != "growth {mismatch}" {
		t.Errorf("brace inside string mangled: %q", out.Note)
	}
}

func TestExtractJSON_Array(t *testing.T) {
	text := `Sub-claims: ["revenue grew 25%", "revenue reached $120M"]`
	raw := ExtractJSON(text)
	if raw == nil {
		t.Fatal("expected embedded array to parse")
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 entries, got %d", len(out))
	}
}

func TestExtractJSON_Garbage(t *testing.T) {
	for _, text := range []string{
		"",
		"no json here at all",
		"{unclosed",
		"{broken: json}",
		"42", // bare scalar is not a usable payload
	} {
		if raw := ExtractJSON(text); raw != nil {
			t.Errorf("ExtractJSON(%q) = %s, want nil", text, raw)
		}
	}
}

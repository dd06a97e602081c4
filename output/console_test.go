package output

import (
	"bytes"
	"strings"
	"testing"

	"hashvet/reputation"
)

func TestPrintVerdictMalicious(t *testing.T) {
	raw := []byte(`{"response_code":1,"total":60,"positives":12}`)
	entity := testEntity(t, []byte("evil payload"), &reputation.Report{ResponseCode: 1, Total: 60, Positives: 12}, raw)

	var buf bytes.Buffer
	PrintVerdict(&buf, entity, 0.10)
	out := buf.String()

	if !strings.Contains(out, "Potentially malicious hash "+entity.Digest) {
		t.Fatalf("missing malicious line: %s", out)
	}
	if !strings.Contains(out, "12 of 60 engines") {
		t.Fatalf("missing engine counts: %s", out)
	}
	if !strings.Contains(out, string(raw)) {
		t.Fatalf("raw result not echoed: %s", out)
	}
}

func TestPrintVerdictBenign(t *testing.T) {
	raw := []byte(`{"response_code":1,"total":60,"positives":1}`)
	entity := testEntity(t, []byte("clean payload"), &reputation.Report{ResponseCode: 1, Total: 60, Positives: 1}, raw)

	var buf bytes.Buffer
	PrintVerdict(&buf, entity, 0.10)
	out := buf.String()

	if !strings.Contains(out, "not recognized as malicious") {
		t.Fatalf("missing benign line: %s", out)
	}
	if strings.Contains(out, "Potentially malicious") {
		t.Fatalf("benign entity reported malicious: %s", out)
	}
}

func TestPrintVerdictUnknown(t *testing.T) {
	entity := testEntity(t, []byte("never queried"), nil, nil)

	var buf bytes.Buffer
	PrintVerdict(&buf, entity, 0.10)
	out := buf.String()

	if !strings.Contains(out, "No reputation data for hash "+entity.Digest) {
		t.Fatalf("missing unknown line: %s", out)
	}
	if strings.Contains(out, "Raw result") {
		t.Fatalf("no raw result should print without a stored response: %s", out)
	}
}

func TestPrintVerdictBoundaryRatio(t *testing.T) {
	// Exactly 10% flags as malicious.
	raw := []byte(`{"response_code":1,"total":60,"positives":6}`)
	entity := testEntity(t, []byte("borderline"), &reputation.Report{ResponseCode: 1, Total: 60, Positives: 6}, raw)

	var buf bytes.Buffer
	PrintVerdict(&buf, entity, 0.10)
	if !strings.Contains(buf.String(), "Potentially malicious") {
		t.Fatalf("boundary ratio must be malicious: %s", buf.String())
	}
}

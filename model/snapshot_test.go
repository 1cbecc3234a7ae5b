package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSnapshot_PublishRequest_JSONShape(t *testing.T) {
	seq := uint64(7)
	req := PublishRequest{
		Key:      "b64-key-envelope",
		Value:    "bafy-target-1",
		Sequence: &seq,
	}

	b, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent failed: %v", err)
	}

	const want = "{\n" +
		"  \"key\": \"b64-key-envelope\",\n" +
		"  \"value\": \"bafy-target-1\",\n" +
		"  \"sequence\": 7\n" +
		"}"

	if string(b) != want {
		t.Fatalf("snapshot mismatch:\n%s", string(b))
	}
}

func TestSnapshot_PublishResult_JSONShape(t *testing.T) {
	res := PublishResult{
		Name:       "k51-name-1",
		Value:      "bafy-target-1",
		Sequence:   7,
		Validity:   time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC),
		RoutingKey: []byte("/ipns/demo"),
	}

	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent failed: %v", err)
	}

	const want = "{\n" +
		"  \"name\": \"k51-name-1\",\n" +
		"  \"value\": \"bafy-target-1\",\n" +
		"  \"sequence\": 7,\n" +
		"  \"validity\": \"2027-01-02T03:04:05Z\",\n" +
		"  \"routingKey\": \"L2lwbnMvZGVtbw==\"\n" +
		"}"

	if string(b) != want {
		t.Fatalf("snapshot mismatch:\n%s", string(b))
	}
}

func TestSnapshot_ResolutionResult_JSONShape(t *testing.T) {
	ok := ResolutionResult{
		Success: true,
		Name:    "k51-name-1",
		Value:   "bafy-target-1",
		Source:  "routing",
	}

	b, err := json.MarshalIndent(ok, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent failed: %v", err)
	}

	const wantOK = "{\n" +
		"  \"success\": true,\n" +
		"  \"name\": \"k51-name-1\",\n" +
		"  \"value\": \"bafy-target-1\",\n" +
		"  \"source\": \"routing\"\n" +
		"}"

	if string(b) != wantOK {
		t.Fatalf("snapshot mismatch:\n%s", string(b))
	}

	failed := ResolutionResult{
		Success: false,
		Name:    "k51-name-1",
		Err:     NewError(ErrAllStrategiesExhausted, "no strategy answered"),
	}

	b, err = json.MarshalIndent(failed, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent failed: %v", err)
	}

	const wantFailed = "{\n" +
		"  \"success\": false,\n" +
		"  \"name\": \"k51-name-1\",\n" +
		"  \"error\": {\n" +
		"    \"code\": \"ALL_STRATEGIES_EXHAUSTED\",\n" +
		"    \"message\": \"no strategy answered\"\n" +
		"  }\n" +
		"}"

	if string(b) != wantFailed {
		t.Fatalf("snapshot mismatch:\n%s", string(b))
	}
}

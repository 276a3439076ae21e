package shared

import (
	"bytes"
	"testing"
)

func TestShared(t *testing.T) {
	t.Run("NewLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		logger.Error("boom")
		if !bytes.Contains(buf.Bytes(), []byte("boom")) {
			t.Error("expected log output to reach the writer")
		}
	})

	t.Run("GenerateID", func(t *testing.T) {
		first := GenerateID()
		second := GenerateID()
		if first == "" || first == second {
			t.Errorf("expected distinct non-empty IDs, got %q and %q", first, second)
		}
	})

	t.Run("GenerateState", func(t *testing.T) {
		first, err := GenerateState()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := GenerateState()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first == "" || first == second {
			t.Error("expected distinct non-empty state tokens")
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		data := map[string]int{"a": 1}

		compact, err := MarshalJSON(data, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		pretty, err := MarshalJSON(data, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if bytes.Contains(compact, []byte("\n")) {
			t.Error("compact output should be single-line")
		}
		if !bytes.Contains(pretty, []byte("\n")) {
			t.Error("pretty output should be indented")
		}
	})
}

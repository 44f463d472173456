package resources

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDataKind(t *testing.T) {
	tests := []struct {
		input   string
		want    DataKind
		wantErr bool
	}{
		{"text", DataKindText, false},
		{"crf", DataKindCRF, false},
		{"fst", DataKindFST, false},
		{" CRF ", DataKindCRF, false},
		{"", "", true},
		{"models", "", true},
		{"crf/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDataKind(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDataKind) {
					t.Errorf("ParseDataKind(%q) error = %v, want ErrInvalidDataKind", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDataKind(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDataKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		outcome   Outcome
		name      string
		available bool
	}{
		{AlreadyPresent, "already-present", true},
		{Downloaded, "downloaded", true},
		{Failed, "failed", false},
		{MissingSource, "missing-source", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.outcome.Available(); got != tt.available {
				t.Errorf("Available() = %v, want %v", got, tt.available)
			}

			var parsed Outcome
			if err := parsed.UnmarshalText([]byte(tt.name)); err != nil {
				t.Fatalf("UnmarshalText(%q) error = %v", tt.name, err)
			}
			if parsed != tt.outcome {
				t.Errorf("UnmarshalText(%q) = %v, want %v", tt.name, parsed, tt.outcome)
			}
		})
	}

	t.Run("zero value", func(t *testing.T) {
		var o Outcome
		if o.String() != "outcome(0)" {
			t.Errorf("String() = %q, want %q", o.String(), "outcome(0)")
		}
		if o.Available() {
			t.Error("zero Outcome should not be available")
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		var o Outcome
		if err := o.UnmarshalText([]byte("pending")); err == nil {
			t.Error("UnmarshalText(pending) should fail")
		}
	})
}

func TestArtifactResultJSON(t *testing.T) {
	res := ArtifactResult{
		Name:       "crf-en",
		Kind:       DataKindCRF,
		SourceURL:  "https://store.example/crf-en.bin",
		TargetPath: "/r/crf-en.bin",
		Outcome:    Failed,
		Err:        errors.New("boom"),
		Error:      "boom",
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got["outcome"] != "failed" {
		t.Errorf("outcome = %v, want %q", got["outcome"], "failed")
	}
	if got["kind"] != "crf" {
		t.Errorf("kind = %v, want %q", got["kind"], "crf")
	}
	if got["error"] != "boom" {
		t.Errorf("error = %v, want %q", got["error"], "boom")
	}
	if _, ok := got["Err"]; ok {
		t.Error("Err should not be serialized")
	}
}

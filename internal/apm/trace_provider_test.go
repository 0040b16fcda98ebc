package apm

import (
	"io"
	"testing"

	"github.com/mvaldes/flashcycle/internal/logger"
)

func TestParseOTLPHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "empty",
			raw:  "",
			want: map[string]string{},
		},
		{
			name: "single pair",
			raw:  "authorization=Bearer abc",
			want: map[string]string{"authorization": "Bearer abc"},
		},
		{
			name: "multiple pairs with spaces",
			raw:  "a=1, b=2",
			want: map[string]string{"a": "1", "b": "2"},
		},
		{
			name: "malformed entries dropped",
			raw:  "a=1,nonsense,=orphan",
			want: map[string]string{"a": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseOTLPHeaders(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d headers, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("header %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestWithProvider_UnknownFallsBackToEmpty(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	tp := NewTraceProvider(log, WithProvider("bogus", log))
	if tp == nil {
		t.Fatal("expected a trace provider")
	}
	if err := tp.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

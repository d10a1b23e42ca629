package sealer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeal_Deterministic(t *testing.T) {
	a := Seal("secret", "user-1", "client")
	b := Seal("secret", "user-1", "client")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Seal("secret", "user-1", "admin"))
	assert.NotEqual(t, a, Seal("other", "user-1", "client"))
}

func TestVerify(t *testing.T) {
	seal := Seal("secret", "user-1", "client")

	tests := []struct {
		name  string
		seal  string
		parts []string
		want  bool
	}{
		{"valid", seal, []string{"user-1", "client"}, true},
		{"prefixed", "sha256=" + seal, []string{"user-1", "client"}, true},
		{"empty", "", []string{"user-1", "client"}, false},
		{"not hex", "zz", []string{"user-1", "client"}, false},
		{"other payload", seal, []string{"user-1", "admin"}, false},
		{"truncated", seal[:10], []string{"user-1", "client"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify("secret", tt.seal, tt.parts...))
		})
	}
}

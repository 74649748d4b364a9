package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconciledQty(t *testing.T) {
	tests := []struct {
		name         string
		old, ordered int
		want         int
	}{
		{"ordered less than held", 5, 2, 3},
		{"ordered exactly held", 3, 3, 0},
		{"ordered more than held", 2, 5, 0},
		{"nothing ordered", 4, 0, 4},
		{"single item bought", 1, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReconciledQty(tt.old, tt.ordered))
		})
	}
}

package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusAfterFailure(t *testing.T) {
	tests := []struct {
		retryCount int
		maxRetries int
		want       string
	}{
		{0, 10, "pending"},
		{8, 10, "pending"},
		{9, 10, "failed"},
		{0, 1, "failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusAfterFailure(tt.retryCount, tt.maxRetries))
	}
}

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMethodName(t *testing.T) {
	service, method := splitMethodName("/grpc.health.v1.Health/Check")
	assert.Equal(t, "grpc.health.v1.Health", service)
	assert.Equal(t, "Check", method)

	service, method = splitMethodName("Check")
	assert.Equal(t, "unknown", service)
	assert.Equal(t, "Check", method)
}

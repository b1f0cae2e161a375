package logs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceType(t *testing.T) {
	assert.Equal(t, "AWS::Logs::LogGroup", LogGroup{}.ResourceType())
}

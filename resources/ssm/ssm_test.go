package ssm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceType(t *testing.T) {
	assert.Equal(t, "AWS::SSM::Parameter", Parameter{}.ResourceType())
}

package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIDPrefersConfiguredValue(t *testing.T) {
	t.Setenv(envInstanceID, "api-7")
	assert.Equal(t, "api-7", GetID())
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv(envInstanceID, "")
	assert.NotEmpty(t, GetID())
}

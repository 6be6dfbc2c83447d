package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Spanish", DisplayName("es"))
	assert.Equal(t, "Japanese", DisplayName("ja"))
	// Unknown codes are not validated; they fall back to English.
	assert.Equal(t, "English", DisplayName("xx"))
	assert.Equal(t, "English", DisplayName(""))
}

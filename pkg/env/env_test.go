package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringPrefersFirstSetKey(t *testing.T) {
	t.Setenv("CELLAR_TEST_PRIMARY", "")
	t.Setenv("CELLAR_TEST_SECONDARY", " console ")

	assert.Equal(t, "console", String("json", "CELLAR_TEST_PRIMARY", "CELLAR_TEST_SECONDARY"))

	t.Setenv("CELLAR_TEST_PRIMARY", "json")
	assert.Equal(t, "json", String("x", "CELLAR_TEST_PRIMARY", "CELLAR_TEST_SECONDARY"))

	assert.Equal(t, "fallback", String("fallback", "CELLAR_TEST_UNSET"))
}

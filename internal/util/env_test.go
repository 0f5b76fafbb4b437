package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("PROMANAGE_TEST_VALUE", "set")
	assert.Equal(t, "set", EnvOrDefault("PROMANAGE_TEST_VALUE", "fallback"))

	t.Setenv("PROMANAGE_TEST_VALUE", "")
	assert.Equal(t, "fallback", EnvOrDefault("PROMANAGE_TEST_VALUE", "fallback"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, SplitList(" http://a, ,http://b "))
	assert.Nil(t, SplitList(""))
}

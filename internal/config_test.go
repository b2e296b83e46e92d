package internal

import (
	"os"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults_From_Environ(t *testing.T) {
	req := require.New(t)

	// Given only the required keys
	t.Setenv("PORT", "8080")
	t.Setenv("ADMIN_PORT", "9090")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_TOKEN_SECRET", "secret")
	t.Setenv("ALLOWED_ORIGINS", "example.com, *.example.org ,")

	// When the config is read
	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	// Then defaults are applied
	req.NoError(err)
	req.Equal(8080, config.Port)
	req.Equal("badger", config.StorageDriver)
	req.Equal("broadcast", config.TypingScope)
	req.Equal(30*time.Second, config.PingInterval)
	req.Equal(200*time.Millisecond, config.RestartInterval)
	req.Equal([]string{"example.com", "*.example.org"}, config.Origins())
}

func TestConfig_Missing_Required_Key(t *testing.T) {
	req := require.New(t)
	// Given no required key in the environment
	for _, key := range []string{"PORT", "ADMIN_PORT", "ADMIN_USERNAME", "ADMIN_TOKEN_SECRET"} {
		t.Setenv(key, "")
		req.NoError(os.Unsetenv(key))
	}

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	req.Error(err)
}

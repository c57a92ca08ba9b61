package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	app := newApp()
	for _, name := range []string{"migrate", "seed", "create-user", "cleanup-tokens"} {
		assert.NotNil(t, app.Command(name), name)
	}
}

func TestCreateUser_RejectsBadInputBeforeConnecting(t *testing.T) {
	cases := map[string][]string{
		"role":     {"--email", "a@b.c", "--password", "long-enough", "--name", "A", "--role", "ghost"},
		"password": {"--email", "a@b.c", "--password", "short", "--name", "A"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			app := newApp()
			var out bytes.Buffer
			app.Writer = &out
			app.ErrWriter = &out

			err := app.Run(append([]string{"lmsctl", "--config", "does-not-exist.yaml", "create-user"}, args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

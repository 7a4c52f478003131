package discord

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range Commands() {
		names[c.Name] = true
		switch c.Name {
		case "post", "times":
			require.Len(t, c.Options, 1)
			assert.Equal(t, "content", c.Options[0].Name)
			assert.True(t, c.Options[0].Required)
		case "add_channel_id", "remove_channel_id":
			require.Len(t, c.Options, 1)
			assert.Equal(t, "channel_id", c.Options[0].Name)
		case "show_channel_id":
			assert.Empty(t, c.Options)
		}
	}
	assert.Len(t, names, 5)
}

func TestRegistrar_GuildScoped(t *testing.T) {
	fd, client := newFakeDiscord(t)
	session, err := NewSession("tok", client)
	require.NoError(t, err)

	created, err := NewRegistrar(session, "app1", "guild1").Register(context.Background())
	require.NoError(t, err)
	assert.Len(t, created, 5)

	fd.mu.Lock()
	defer fd.mu.Unlock()
	assert.Equal(t, "/api/v9/applications/app1/guilds/guild1/commands", fd.cmdPath)
	assert.Len(t, fd.commands, 5)
}

func TestRegistrar_Global(t *testing.T) {
	fd, client := newFakeDiscord(t)
	session, err := NewSession("tok", client)
	require.NoError(t, err)

	_, err = NewRegistrar(session, "app1", "").Register(context.Background())
	require.NoError(t, err)

	fd.mu.Lock()
	defer fd.mu.Unlock()
	assert.Equal(t, "/api/v9/applications/app1/commands", fd.cmdPath)
}

func TestRegistrar_RequiresApplicationID(t *testing.T) {
	_, client := newFakeDiscord(t)
	session, err := NewSession("tok", client)
	require.NoError(t, err)

	_, err = NewRegistrar(session, "", "").Register(context.Background())
	assert.Error(t, err)
}

package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegisterCommandValidates(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.RegisterCommand("start", Command{Handler: noop, Description: "x"}), ErrInvalidRoute)
	assert.ErrorIs(t, reg.RegisterCommand("/start", Command{Description: "x"}), ErrInvalidRoute)
	assert.ErrorIs(t, reg.RegisterCommand("/start", Command{Handler: noop}), ErrInvalidRoute)

	require.NoError(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "Menu", Aliases: []string{"menu"}}))
	assert.ErrorIs(t, reg.RegisterCommand("/START", Command{Handler: noop, Description: "again"}), ErrDuplicateRoute)
	assert.ErrorIs(t, reg.RegisterCommand("/menu", Command{Handler: noop, Description: "clash"}), ErrDuplicateRoute)
	assert.ErrorIs(t, reg.RegisterCommand("/help", Command{Handler: noop, Description: "h", Aliases: []string{"/start"}}), ErrDuplicateRoute)
	assert.Len(t, reg.Commands(), 1)
}

func TestLookupCommand(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "Menu", Aliases: []string{"Menu"}}))

	for _, text := range []string{"/start", "/start@shop_bot", " /start deep-link ", "menu", "MENU"} {
		name, cmd, ok := reg.LookupCommand(text)
		require.True(t, ok, text)
		assert.Equal(t, "/start", name)
		assert.Equal(t, "Menu", cmd.Description)
	}
	for _, text := range []string{"", "hello", "/stop", "menu please"} {
		_, _, ok := reg.LookupCommand(text)
		assert.False(t, ok, text)
	}
}

func TestMenuCommandsHidesAdminAndHidden(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "Menu"}))
	require.NoError(t, reg.RegisterCommand("/about", Command{Handler: noop, Description: "About"}))
	require.NoError(t, reg.RegisterCommand("/skip", Command{Handler: noop, Description: "Skip", Hidden: true}))
	require.NoError(t, reg.RegisterCommand("/refresh", Command{Handler: noop, Description: "Refresh", AdminOnly: true}))

	assert.Equal(t, []tele.Command{
		{Text: "/about", Description: "About"},
		{Text: "/start", Description: "Menu"},
	}, reg.MenuCommands())
}

func TestCallbacks(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.RegisterCallback("", noop), ErrInvalidRoute)
	assert.ErrorIs(t, reg.RegisterCallback("cart", nil), ErrInvalidRoute)
	require.NoError(t, reg.RegisterCallback("cart", noop))
	require.NoError(t, reg.RegisterCallback("add_to_cart", noop))
	assert.ErrorIs(t, reg.RegisterCallback("cart", noop), ErrDuplicateRoute)
	assert.Equal(t, []string{"add_to_cart", "cart"}, reg.CallbackKeys())

	h, ok := reg.Callback("cart")
	assert.True(t, ok)
	assert.NotNil(t, h)

	h, ok = reg.Callback("nope")
	assert.False(t, ok)
	assert.NotNil(t, h)

	var hit bool
	reg.SetCallbackNotFound(func(tele.Context) error { hit = true; return nil })
	reg.SetCallbackNotFound(nil)
	h, _ = reg.Callback("nope")
	require.NoError(t, h(nil))
	assert.True(t, hit)
}

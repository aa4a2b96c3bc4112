package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_SubcommandsRegistered(t *testing.T) {
	expected := []string{
		"add", "list", "edit", "done", "undone", "delete", "clear",
		"assign", "undo", "redo", "remind", "stats", "duplicate", "refresh",
	}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "command %q must be registered on root", name)
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", "2,3", " 4 "})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, ids)

	_, err = parseIDs([]string{"abc"})
	assert.Error(t, err)

	_, err = parseIDs(nil)
	assert.Error(t, err)

	_, err = parseIDs([]string{","})
	assert.Error(t, err)
}

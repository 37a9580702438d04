package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/backend/internal/application/services"
)

func TestSeedFlags_Options(t *testing.T) {
	flags := seedFlags{
		count:         5,
		counts:        "users:40, appointments:200",
		collections:   "users,appointments,users",
		clear:         true,
		linkAuthUsers: true,
	}

	opts, err := flags.options()
	require.NoError(t, err)

	assert.Equal(t, services.SeedOptions{
		Count:         5,
		Counts:        map[string]int{"users": 40, "appointments": 200},
		Collections:   []string{"users", "appointments"},
		Clear:         true,
		LinkAuthUsers: true,
	}, opts)
}

func TestSeedFlags_RejectsUnknownCollection(t *testing.T) {
	_, err := seedFlags{collections: "invoices"}.options()
	assert.Error(t, err)

	_, err = seedFlags{counts: "doctor_profiles:3"}.options()
	assert.Error(t, err)
}

func TestRootCmd_HelpSucceeds(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--help"})
	assert.NoError(t, cmd.Execute())
}

func TestRootCmd_MissingEnvFileFails(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--env-file", t.TempDir() + "/missing.env"})
	cmd.SilenceErrors = true
	assert.Error(t, cmd.Execute())
}

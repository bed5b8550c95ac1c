package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"cowriter/config"
	"cowriter/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func useMockConfig(t *testing.T) {
	t.Helper()
	prevCfg, prevLogger, prevOutput := cfg, logger, winnersOutput
	t.Cleanup(func() { cfg, logger, winnersOutput = prevCfg, prevLogger, prevOutput })

	cfg = config.DefaultConfig()
	cfg.Provider.Mock = true
	logger = zap.NewNop()
}

func TestWinnersCommand_Prints(t *testing.T) {
	useMockConfig(t)
	winnersOutput = ""

	var out bytes.Buffer
	winnersCmd.SetOut(&out)
	winnersCmd.SetContext(context.Background())
	t.Cleanup(func() { winnersCmd.SetOut(nil) })

	require.NoError(t, winnersCmd.RunE(winnersCmd, []string{"Coca-Cola", "Scholars"}))

	var winners []models.WinnerIdentifier
	require.NoError(t, json.Unmarshal(out.Bytes(), &winners))
	assert.Len(t, winners, 3)
}

func TestWinnersCommand_WritesFile(t *testing.T) {
	useMockConfig(t)
	winnersOutput = filepath.Join(t.TempDir(), "winners.json")
	winnersCmd.SetContext(context.Background())

	require.NoError(t, winnersCmd.RunE(winnersCmd, []string{"Coca-Cola Scholars"}))

	data, err := os.ReadFile(winnersOutput)
	require.NoError(t, err)
	var winners []models.WinnerIdentifier
	require.NoError(t, json.Unmarshal(data, &winners))
	assert.Equal(t, "Maya Thompson", winners[0].WinnerName)
}

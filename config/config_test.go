package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *config)

	programs, err := config.Programs()
	require.NoError(t, err)
	assert.Equal(t, token2022.DefaultPrograms(), programs)
	assert.Equal(t, rpc.CommitmentFinalized, config.CommitmentType())

	rounding, err := config.Rounding()
	require.NoError(t, err)
	assert.Equal(t, token2022.RoundUp, rounding)
	assert.Equal(t, solana.EncodingBase64, config.Encoding())
}

func TestLoadMissingFile(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), *config)
}

func TestLoadFileAndEnv(t *testing.T) {
	tokenProgram := solana.NewWallet().PublicKey()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"rpc_endpoint: http://127.0.0.1:8899\n"+
			"commitment: confirmed\n"+
			"token_program_id: "+tokenProgram.String()+"\n"+
			"requests_per_second: 2.5\n"+
			"log_level: debug\n"+
			"fee_rounding: down\n",
	), 0o600))

	t.Setenv("SOLANA_WS_ENDPOINT", "ws://127.0.0.1:8900")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("ACCOUNT_ENCODING", "jsonParsed")

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8899", config.RPCEndpoint)
	assert.Equal(t, "ws://127.0.0.1:8900", config.WSEndpoint)
	assert.Equal(t, rpc.CommitmentConfirmed, config.CommitmentType())
	assert.Equal(t, 2.5, config.RequestsPerSecond)
	assert.Equal(t, "warn", config.LogLevel)
	assert.Equal(t, solana.EncodingJSONParsed, config.Encoding())
	rounding, err := config.Rounding()
	require.NoError(t, err)
	assert.Equal(t, token2022.RoundDown, rounding)

	programs, err := config.Programs()
	require.NoError(t, err)
	assert.Equal(t, tokenProgram, programs.Token)
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, programs.AssociatedToken)
}

func TestValidate(t *testing.T) {
	config := Default()
	config.TokenProgramID = "not-a-key"
	assert.Error(t, config.Validate())

	config = Default()
	config.Commitment = "eventually"
	assert.Error(t, config.Validate())

	config = Default()
	config.RequestsPerSecond = -1
	assert.Error(t, config.Validate())

	config = Default()
	config.FeeRounding = "sideways"
	assert.Error(t, config.Validate())

	config = Default()
	config.AccountEncoding = string(solana.EncodingBase58)
	assert.Error(t, config.Validate())

	t.Setenv("SOLANA_COMMITMENT", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	config := Default()
	config.LogLevel = "DEBUG"
	config.LogFormat = "json"
	logger := config.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	config.LogLevel = "loud"
	assert.Equal(t, logrus.InfoLevel, config.NewLogger().GetLevel())
}

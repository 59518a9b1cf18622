package config

import (
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/captainenkay0712/token-2022-library/solana/token2022"
)

// Config holds the settings shared by the clients of this library.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // text or json

	RPCEndpoint string `mapstructure:"rpc_endpoint"`
	WSEndpoint  string `mapstructure:"ws_endpoint"`
	Commitment  string `mapstructure:"commitment"`

	// Program addresses, base58. Empty values fall back to mainnet.
	TokenProgramID           string `mapstructure:"token_program_id"`
	AssociatedTokenProgramID string `mapstructure:"associated_token_program_id"`

	// RequestsPerSecond throttles RPC reads and submissions. Zero disables
	// throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// FeeRounding is "up" or "down". The program charges the ceiling, so
	// "down" embeds fees it rejects whenever amount*bps is not a multiple
	// of 10000.
	FeeRounding string `mapstructure:"fee_rounding"`
	// AccountEncoding is the encoding withheld-fee scans request, base64 or
	// jsonParsed.
	AccountEncoding string `mapstructure:"account_encoding"`
}

var defaultConfig = Config{
	LogLevel:  "info",
	LogFormat: "text",

	RPCEndpoint: rpc.DevNet_RPC,
	WSEndpoint:  rpc.DevNet_WS,
	Commitment:  string(rpc.CommitmentFinalized),

	TokenProgramID:           solana.Token2022ProgramID.String(),
	AssociatedTokenProgramID: solana.SPLAssociatedTokenAccountProgramID.String(),

	RequestsPerSecond: 10,

	FeeRounding:     "up",
	AccountEncoding: string(solana.EncodingBase64),
}

var envBindings = map[string]string{
	"log_level":                   "LOG_LEVEL",
	"log_format":                  "LOG_FORMAT",
	"rpc_endpoint":                "SOLANA_RPC_ENDPOINT",
	"ws_endpoint":                 "SOLANA_WS_ENDPOINT",
	"commitment":                  "SOLANA_COMMITMENT",
	"token_program_id":            "TOKEN_2022_PROGRAM_ID",
	"associated_token_program_id": "ASSOCIATED_TOKEN_PROGRAM_ID",
	"requests_per_second":         "RPC_REQUESTS_PER_SECOND",
	"fee_rounding":                "FEE_ROUNDING",
	"account_encoding":            "ACCOUNT_ENCODING",
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig
}

// Load reads configuration from the environment and, when path is not empty,
// from the config file at path. Environment variables win over the file.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	// viper does not report a missing file it was pointed at explicitly
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "failed to read config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to check config %s", path)
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the program addresses, the commitment level, the fee
// rounding and the scan encoding.
func (c *Config) Validate() error {
	if _, err := c.Programs(); err != nil {
		return err
	}
	switch rpc.CommitmentType(c.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return errors.Errorf("unknown commitment %q", c.Commitment)
	}
	if c.RequestsPerSecond < 0 {
		return errors.Errorf("requests_per_second must not be negative, got %v", c.RequestsPerSecond)
	}
	if _, err := c.Rounding(); err != nil {
		return err
	}
	switch c.Encoding() {
	case solana.EncodingBase64, solana.EncodingJSONParsed:
	default:
		return errors.Errorf("unsupported account_encoding %q", c.AccountEncoding)
	}
	return nil
}

// Programs returns the program addresses every builder is given.
func (c *Config) Programs() (token2022.Programs, error) {
	programs := token2022.DefaultPrograms()
	if c.TokenProgramID != "" {
		id, err := solana.PublicKeyFromBase58(c.TokenProgramID)
		if err != nil {
			return token2022.Programs{}, errors.Wrap(err, "invalid token_program_id")
		}
		programs.Token = id
	}
	if c.AssociatedTokenProgramID != "" {
		id, err := solana.PublicKeyFromBase58(c.AssociatedTokenProgramID)
		if err != nil {
			return token2022.Programs{}, errors.Wrap(err, "invalid associated_token_program_id")
		}
		programs.AssociatedToken = id
	}
	return programs, nil
}

func (c *Config) CommitmentType() rpc.CommitmentType {
	return rpc.CommitmentType(c.Commitment)
}

// Rounding returns the fee rounding the transfer fee client embeds.
// An empty value means up.
func (c *Config) Rounding() (token2022.Rounding, error) {
	if c.FeeRounding == "" {
		return token2022.RoundUp, nil
	}
	return token2022.ParseRounding(c.FeeRounding)
}

// Encoding returns the account encoding for withheld-fee scans, base64 when
// unset.
func (c *Config) Encoding() solana.EncodingType {
	if c.AccountEncoding == "" {
		return solana.EncodingBase64
	}
	return solana.EncodingType(c.AccountEncoding)
}

// NewLogger builds a logger honouring LogLevel and LogFormat. An unknown
// level is reported and the logger stays at info.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		logger.WithField("log_level", c.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logger.SetLevel(level)
	}
	return logger
}

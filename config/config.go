package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

// CordisAppConfig holds the application settings outside cometbft's own
// config: data home and the relay sidecar wiring.
type CordisAppConfig struct {
	Home string `mapstructure:"-"`

	// RelayListen is the REST listen address of the relay service. Empty
	// disables the relay.
	RelayListen string `mapstructure:"relay_listen"`
	// RelayDB is the sqlite file backing the relay's index.
	RelayDB string `mapstructure:"relay_db"`
	// NodeRPC is the local cometbft RPC endpoint the relay tails.
	NodeRPC string `mapstructure:"node_rpc"`
	// CallTimeoutSecs bounds each outbound external call.
	CallTimeoutSecs uint64 `mapstructure:"call_timeout_secs"`
}

func NewCordisAppConfig(home string) *CordisAppConfig {
	return &CordisAppConfig{
		Home:            home,
		RelayListen:     "0.0.0.0:8667",
		RelayDB:         home + "/data/relay.db",
		NodeRPC:         "http://127.0.0.1:26657",
		CallTimeoutSecs: 30,
	}
}

func TokensPerPower(height uint64) uint64 {
	return 1000000000
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *CordisAppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.cordis")
	}
	config := &Config{
		DefaultCordisCometConfig(),
		NewCordisAppConfig(home),
	}
	config.RootDir = home
	_ = os.MkdirAll(home+"/config", 0755)
	return config
}

func NewCordisConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.cordis")
	}
	_ = os.MkdirAll(home+"/config", 0755)
	config := &Config{
		DefaultCordisCometConfig(),
		NewCordisAppConfig(home),
	}
	config.RootDir = home
	return config
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func InitializeNodeOnly(config *Config) {
	_, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return
	}

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return
	}
	privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	os.Remove(pvKeyFile)
}

func DefaultCordisCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 10
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}

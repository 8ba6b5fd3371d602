package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"

	appconfig "github.com/opencordis/cordis/config"
	"github.com/opencordis/cordis/types"
)

const (
	flagOverwrite = "overwrite"
	flagChainID   = "chain-id"
	flagHome      = "home"
	flagOrgName   = "name"
)

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long:  `Initialize validator's and node's configuration files.`,
	Args:  cobra.ExactArgs(0),
	RunE:  initRun,
}

func init() {
	initCmd.Flags().BoolP(flagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(flagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(flagHome, "", "node home directory")
	initCmd.Flags().String(flagOrgName, "cordis", "organization name")
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(flagHome)
	chainID, _ := cmd.Flags().GetString(flagChainID)
	orgName, _ := cmd.Flags().GetString(flagOrgName)
	var pk crypto.PubKey

	if chainID == "" {
		chainID = fmt.Sprintf("test-chain-%v", rand.Uint64())
	}
	appConfig := appconfig.NewCordisConfig(home)

	genFile := appConfig.GenesisFile()
	overwrite, _ := cmd.Flags().GetBool(flagOverwrite)
	if !overwrite {
		if _, err := os.Stat(genFile); err == nil {
			return fmt.Errorf("genesis file already exists: %v", genFile)
		}
	}

	_, pk1, err := appconfig.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	pk = pk1
	vals := []types.GenesisValidator{
		{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower},
	}

	appState := types.AppState{
		Config: types.Config{Name: orgName},
		Accounts: []types.GenesisAccount{
			{PubKey: pk.Bytes(), Balance: types.DefaultPower * appconfig.TokensPerPower(0)},
		},
	}
	appStateDat, err := json.Marshal(appState)
	if err != nil {
		return err
	}

	appGenesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators:      vals,
		AppState:        appStateDat,
	}
	if err = types.ExportGenesisFile(appGenesis, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file %v", err)
	}
	if err = appconfig.WriteConfigFile(filepath.Join(appConfig.RootDir, "config", "config.toml"), appConfig); err != nil {
		return err
	}
	return displayInfo(printInfo{ChainID: chainID, AppMessage: appGenesis.AppState})
}

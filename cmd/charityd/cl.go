package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calehh/charity-dao/app"
	app_config "github.com/calehh/charity-dao/config"
	"github.com/calehh/charity-dao/indexer"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var homeDir string

var rootCmd = &cobra.Command{
	Use:   "charityd",
	Short: "Charity DAO node and client",
	Long: `charityd runs a CometBFT chain whose members vote on charity
projects, and sends the transactions that drive it.`,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the node",
	Args:  cobra.NoArgs,
	Run:   run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func home() string {
	if homeDir == "" {
		return os.ExpandEnv(app_config.DefaultHome)
	}
	return homeDir
}

func loadConfig(homeDir string) (*app_config.Config, error) {
	appConfig := app_config.DefaultConfig(homeDir)
	viper.SetConfigFile(filepath.Join(homeDir, "config", "config.toml"))
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := viper.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	appConfig.SetRoot(homeDir)
	appConfig.App.Home = homeDir
	if err := appConfig.Validate(); err != nil {
		return nil, err
	}
	return appConfig, nil
}

func rpcURL(listen string) (string, error) {
	rpcUrl, err := url.Parse(listen)
	if err != nil {
		return "", err
	}
	rpcUrl.Scheme = "http"
	return rpcUrl.String(), nil
}

func run(cmd *cobra.Command, args []string) {
	homeDir := home()
	appConfig, err := loadConfig(homeDir)
	if err != nil {
		log.Fatal(err)
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		log.Fatalf("failed to load node's key: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	app, err := app.NewApp(appConfig.App, logger, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("new App err:%v", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(app),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		log.Fatalf("Creating node: %v", err)
	}

	app.Start(node.BlockStore())
	if err = node.Start(); err != nil {
		log.Fatalf("start comet node err %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	var service *indexer.Service
	if appConfig.App.IndexerEnabled {
		rpc, err := rpcURL(appConfig.RPC.ListenAddress)
		if err != nil {
			log.Fatalf("parse rpc url err %s", err.Error())
		}
		idx, err := indexer.NewChainIndexer(logger, appConfig.App.IndexerDBPath(), rpc, appConfig.App.IndexerInterval)
		if err != nil {
			log.Fatalf("new chain indexer err %s", err.Error())
		}
		defer idx.Close()
		go idx.Start(ctx)
		service = indexer.NewService(appConfig.App.IndexerListen, idx)
		go func() {
			if err := service.Start(); err != nil {
				logger.Error("indexer service stopped", "err", err)
			}
		}()
	}

	defer func() {
		log.Println("shut down...")
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			if service != nil {
				sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer scancel()
				if err := service.Stop(sctx); err != nil {
					logger.Error("stop indexer service fail", "err", err)
				}
			}
			if err := node.Stop(); err != nil {
				logger.Error("stop comet node fail", "err", err)
			}
			node.Wait()
			app.Stop()
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}

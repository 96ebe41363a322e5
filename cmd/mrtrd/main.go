// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/BricklayerDAO/mrtr-token/api"
	"github.com/BricklayerDAO/mrtr-token/eventdb"
	"github.com/BricklayerDAO/mrtr-token/genesis"
	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/log"
	"github.com/BricklayerDAO/mrtr-token/node"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "mrtrd")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "mrtrd",
		Usage:     "Node of the MRTR staking ledger",
		Copyright: "2024 The Mortar developers",
		Flags: []cli.Flag{
			networkFlag,
			dataDirFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			pprofFlag,
			skipEventsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "client for test & dev, runs on the devnet calendar",
				Flags: []cli.Flag{
					dataDirFlag,
					cacheFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiTimeoutFlag,
					apiEventsLimitFlag,
					enableAPILogsFlag,
					verbosityFlag,
					jsonLogsFlag,
					pprofFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
					launchTimeFlag,
					persistFlag,
				},
				Action: soloAction,
			},
			{
				Name:  "export-events",
				Usage: "export the event journal as JSON lines",
				Flags: []cli.Flag{
					networkFlag,
					dataDirFlag,
					verbosityFlag,
					outputFlag,
				},
				Action: exportEventsAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func systemClock() uint64 {
	return uint64(time.Now().Unix())
}

func defaultAction(ctx *cli.Context) error {
	exitCtx := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	stopMetrics := startMetricsServer(ctx)
	defer stopMetrics()

	stopAdmin := startAdminServer(ctx, logLevel)
	defer stopAdmin()

	store := openStore(ctx, instanceDir)
	defer func() { logger.Info("closing ledger database..."); store.Close() }()

	events := openEventDB(ctx, instanceDir)
	if events != nil {
		defer func() { logger.Info("closing event database..."); events.Close() }()
	}

	ledger, err := node.New(store, gene, events, systemClock)
	if err != nil {
		return err
	}

	go checkClockOffset()

	handler, closeAPI := api.New(ledger, apiOptions(ctx))
	defer closeAPI()

	apiURL, stopAPI := startAPIServer(ctx, handler)
	defer func() { logger.Info("stopping API server..."); stopAPI() }()

	printStartupMessage(gene, instanceDir, apiURL)

	<-exitCtx.Done()
	return nil
}

func soloAction(ctx *cli.Context) error {
	exitCtx := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	launchTime := ctx.Uint64(launchTimeFlag.Name)
	if launchTime == 0 {
		launchTime = systemClock()
	}
	gene := genesis.NewDevnet(launchTime)

	stopMetrics := startMetricsServer(ctx)
	defer stopMetrics()

	stopAdmin := startAdminServer(ctx, logLevel)
	defer stopAdmin()

	var store kv.StoreCloser
	var events *eventdb.EventDB
	instanceDir := "Memory"
	if ctx.Bool(persistFlag.Name) {
		instanceDir = makeInstanceDir(ctx, gene)
		store = openStore(ctx, instanceDir)
		events = openEventDB(ctx, instanceDir)
	} else {
		store = kv.NewLevelMemStore()
		events = openMemEventDB()
	}
	defer func() { logger.Info("closing ledger database..."); store.Close() }()
	defer func() { logger.Info("closing event database..."); events.Close() }()

	ledger, err := node.New(store, gene, events, systemClock)
	if err != nil {
		return err
	}

	handler, closeAPI := api.New(ledger, apiOptions(ctx))
	defer closeAPI()

	apiURL, stopAPI := startAPIServer(ctx, handler)
	defer func() { logger.Info("stopping API server..."); stopAPI() }()

	printSoloStartupMessage(gene, instanceDir, apiURL)

	<-exitCtx.Done()
	return nil
}

func apiOptions(ctx *cli.Context) api.Options {
	return api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		EventsLimit:     ctx.Uint64(apiEventsLimitFlag.Name),
	}
}

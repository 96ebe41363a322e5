// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	isatty "github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/BricklayerDAO/mrtr-token/admin"
	"github.com/BricklayerDAO/mrtr-token/co"
	"github.com/BricklayerDAO/mrtr-token/eventdb"
	"github.com/BricklayerDAO/mrtr-token/genesis"
	"github.com/BricklayerDAO/mrtr-token/kv"
	"github.com/BricklayerDAO/mrtr-token/log"
	"github.com/BricklayerDAO/mrtr-token/metrics"
	"github.com/BricklayerDAO/mrtr-token/mrtr"
)

func fatal(args ...interface{}) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	logLevel := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	level := new(slog.LevelVar)
	level.Set(logLevel)

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stdout, level)
	} else {
		useColor := isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stdout, level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return level
}

func startAdminServer(ctx *cli.Context, logLevel *slog.LevelVar) func() {
	if !ctx.Bool(enableAdminFlag.Name) {
		return func() {}
	}
	url, stop, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel)
	if err != nil {
		fatal(fmt.Sprintf("start admin server: %v", err))
	}
	logger.Info("admin server started", "url", url)
	return stop
}

func selectGenesis(ctx *cli.Context) *genesis.Genesis {
	network := ctx.String(networkFlag.Name)
	switch network {
	case "":
		cli.ShowAppHelp(ctx)
		fmt.Println("network flag not specified")
		os.Exit(1)
		return nil
	case "main":
		return genesis.NewMainnet()
	default:
		file, err := os.Open(network)
		if err != nil {
			fatal(fmt.Sprintf("open genesis file: %v", err))
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		decoder.DisallowUnknownFields()

		var custom genesis.CustomGenesis
		if err := decoder.Decode(&custom); err != nil {
			fatal(fmt.Sprintf("decode genesis file: %v", err))
		}

		gene, err := genesis.NewCustomNet(&custom)
		if err != nil {
			fatal(fmt.Sprintf("build genesis: %v", err))
		}
		return gene
	}
}

func genesisID(gene *genesis.Genesis) mrtr.Bytes32 {
	id, err := gene.ID()
	if err != nil {
		fatal(fmt.Sprintf("compute genesis id: %v", err))
	}
	return id
}

func windowCount(gene *genesis.Genesis) uint32 {
	return uint32(len(gene.Boundaries()) - 1)
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}

	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", genesisID(gene).Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0700); err != nil {
		fatal(fmt.Sprintf("create instance dir [%v]: %v", instanceDir, err))
	}
	return instanceDir
}

func openStore(ctx *cli.Context, instanceDir string) kv.StoreCloser {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	logger.Debug("cache size(MB)", "size", cacheMB)

	dir := filepath.Join(instanceDir, "ledger.db")
	store, err := kv.NewLevelFileStore(dir, kv.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: 512,
	})
	if err != nil {
		fatal(fmt.Sprintf("open ledger database [%v]: %v", dir, err))
	}
	return store
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 128 {
		sizeMB = 128
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func openEventDB(ctx *cli.Context, instanceDir string) *eventdb.EventDB {
	if ctx.Bool(skipEventsFlag.Name) {
		return nil
	}
	dir := filepath.Join(instanceDir, "events.db")
	db, err := eventdb.New(dir)
	if err != nil {
		fatal(fmt.Sprintf("open event database [%v]: %v", dir, err))
	}
	return db
}

func openMemEventDB() *eventdb.EventDB {
	db, err := eventdb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open event database: %v", err))
	}
	return db
}

// checkClockOffset warns when the local clock drifts away from NTP.
// The ledger settles rewards by wall time, so a skewed clock misplaces
// actions across window boundaries.
func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if offset := resp.ClockOffset; offset > time.Second*5 || offset < -time.Second*5 {
		logger.Warn("clock offset detected", "offset", offset)
	}
}

func startAPIServer(ctx *cli.Context, handler http.Handler) (string, func()) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen API addr [%v]: %v", addr, err))
	}
	if timeout := ctx.Int(apiTimeoutFlag.Name); timeout > 0 {
		handler = handleAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}
	srv := &http.Server{Handler: handler}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		goes.Wait()
	}
}

// handleAPITimeout bounds request handling time. Subscriptions hijack
// the connection and are left alone.
func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	timeoutHandler := http.TimeoutHandler(h, timeout, "request timeout")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/subscriptions") {
			h.ServeHTTP(w, r)
			return
		}
		timeoutHandler.ServeHTTP(w, r)
	})
}

func startMetricsServer(ctx *cli.Context) func() {
	if !ctx.Bool(enableMetricsFlag.Name) {
		return func() {}
	}
	metrics.InitializePrometheusMetrics()

	addr := ctx.String(metricsAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen metrics addr [%v]: %v", addr, err))
	}
	router := http.NewServeMux()
	router.Handle("/metrics", metrics.HTTPHandler())
	srv := &http.Server{Handler: router}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	logger.Info("metrics server started", "addr", "http://"+listener.Addr().String()+"/metrics")
	return func() {
		srv.Close()
		goes.Wait()
	}
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(gene *genesis.Genesis, instanceDir string, apiURL string) {
	fmt.Printf(`Starting %v
    Network      [ %v %v ]
    Launch time  [ %v ]
    Windows      [ %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
`,
		fmt.Sprintf("mrtrd/%s", fullVersion()),
		genesisID(gene), gene.Name(),
		time.Unix(int64(gene.LaunchTime()), 0).UTC(),
		windowCount(gene),
		instanceDir,
		apiURL)
}

func printSoloStartupMessage(gene *genesis.Genesis, instanceDir string, apiURL string) {
	info := fmt.Sprintf(`Starting %v
    Network      [ %v %v ]
    Launch time  [ %v ]
    Windows      [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Accounts
`,
		fmt.Sprintf("mrtrd solo/%s", fullVersion()),
		genesisID(gene), gene.Name(),
		time.Unix(int64(gene.LaunchTime()), 0).UTC(),
		windowCount(gene),
		instanceDir,
		apiURL)

	for i, addr := range genesis.DevAccounts() {
		info += fmt.Sprintf("        [%d] %v\n", i, addr)
	}
	fmt.Print(info)
}

// copy from go-ethereum
func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.bricklayerdao.mrtr")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "org.bricklayerdao.mrtr")
		} else {
			return filepath.Join(home, ".org.bricklayerdao.mrtr")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// Command pan-sensor runs a joining node against a simulated coordinator.
//
// The node loads its configuration, restores any saved network membership
// and rejoins its previous parent, or scans for a new one. Join
// notifications are saved to the state file and optionally published to
// MQTT and NATS. The protocol trace can be written to a CBOR file and
// inspected with pan-log.
//
// Usage:
//
//	pan-sensor [flags]
//
// Flags:
//
//	-config string      Configuration file path
//	-log-level string   Log level: debug, info, warn, error (overrides the file)
//	-trace string       Protocol trace file (overrides the file)
//	-fresh              Discard the saved network and join from scratch
//	-interactive        Start the interactive shell
//
// Examples:
//
//	# Join with defaults
//	pan-sensor
//
//	# Hopping node with a trace file and a shell
//	PAN_FH_ENABLED=true pan-sensor -trace /tmp/node.ptrace -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nghiaquy1991/PAN/cmd/pan-sensor/interactive"
	"github.com/nghiaquy1991/PAN/internal/config"
	"github.com/nghiaquy1991/PAN/internal/macsim"
	"github.com/nghiaquy1991/PAN/pkg/blacklist"
	"github.com/nghiaquy1991/PAN/pkg/join"
	pantrace "github.com/nghiaquy1991/PAN/pkg/log"
	"github.com/nghiaquy1991/PAN/pkg/notify"
	"github.com/nghiaquy1991/PAN/pkg/persistence"
	"github.com/nghiaquy1991/PAN/pkg/timer"
)

// frameCounterSaveInterval is how often the frame counter is offered to
// the store.
const frameCounterSaveInterval = 5 * time.Second

// Flags holds the command line.
type Flags struct {
	ConfigFile  string
	LogLevel    string
	TraceFile   string
	Fresh       bool
	Interactive bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.TraceFile, "trace", "", "Protocol trace file (CBOR)")
	flag.BoolVar(&flags.Fresh, "fresh", false, "Discard the saved network and join from scratch")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Start the interactive shell")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pan-sensor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return err
	}
	if flags.LogLevel != "" {
		cfg.Logging.Level = flags.LogLevel
	}
	if flags.TraceFile != "" {
		cfg.Trace.File = flags.TraceFile
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var shell *interactive.Shell
	out := io.Writer(os.Stderr)
	if flags.Interactive {
		shell, err = interactive.New()
		if err != nil {
			return err
		}
		out = shell.Stderr()
	}

	logger, err := setupLogging(cfg.Logging, out)
	if err != nil {
		return err
	}

	n, err := newNode(cfg, logger)
	if err != nil {
		return err
	}
	defer n.close()

	logger.Info("PAN sensor starting",
		"node", cfg.Node.Name,
		"ext_addr", cfg.Node.ExtAddr,
		"fh", cfg.Join.FH.Enabled,
		"session", n.ctrl.SessionID())

	var wg sync.WaitGroup
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("worker stopped", "worker", name, "error", err)
			}
		}()
	}
	start("controller", n.ctrl.Run)
	start("mac", n.sim.Run)
	start("frame-counter", n.saveFrameCounter)
	if n.bridge != nil {
		start("notify", n.bridge.Run)
	}
	for _, r := range n.redialers {
		start("dial", r.Run)
	}

	if err := n.start(flags.Fresh); err != nil {
		cancel()
		wg.Wait()
		return err
	}

	if shell != nil {
		shell.Attach(n.shellTarget())
		go shell.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	cancel()
	n.timers.StopAll()
	wg.Wait()
	n.saveFinalFrameCounter()
	return nil
}

func setupLogging(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// node holds the wired components.
type node struct {
	cfg       *config.Config
	logger    *slog.Logger
	sim       *macsim.Sim
	timers    *timer.Scheduler
	ctrl      *join.Controller
	store     *persistence.Store
	blacklist *blacklist.List
	bridge    *notify.Bridge
	redialers []*notify.Redialer
	trace     *pantrace.FileLogger
}

func newNode(cfg *config.Config, logger *slog.Logger) (*node, error) {
	jc, err := cfg.Join.ToJoin()
	if err != nil {
		return nil, err
	}
	jc.Logger = logger

	n := &node{
		cfg:    cfg,
		logger: logger,
		timers: timer.NewScheduler(),
		store: persistence.NewStore(cfg.Storage.StatePath,
			persistence.WithFrameCounterWindow(cfg.Storage.FrameCounterWindow)),
	}

	n.sim = macsim.New(macsim.Config{
		ExtAddr:       cfg.Node.ExtAddr,
		Coordinators:  []macsim.Coordinator{simCoordinator(cfg)},
		ResponseDelay: cfg.Sim.ResponseDelay,
		Seed:          uint64(time.Now().UnixNano()),
		Logger:        logger,
	})

	if cfg.Storage.BlacklistPath != "" {
		n.blacklist, err = blacklist.Open(cfg.Storage.BlacklistPath, blacklist.WithLogger(logger))
	} else {
		n.blacklist, err = blacklist.OpenMemory(blacklist.WithLogger(logger))
	}
	if err != nil {
		return nil, err
	}

	trace, err := n.openTrace()
	if err != nil {
		n.close()
		return nil, err
	}

	apps := []join.Application{
		persistence.NewRecorder(n.store, logger),
		eventLogger{logger: logger},
	}
	if n.redialers = n.dialPublishers(); len(n.redialers) > 0 {
		pubs := make([]notify.Publisher, len(n.redialers))
		for i, r := range n.redialers {
			pubs[i] = r
		}
		n.bridge = notify.NewBridge(notify.BridgeConfig{Node: cfg.Node.ExtAddr.String(), Logger: logger}, pubs...)
		apps = append(apps, n.bridge)
	}

	n.ctrl, err = join.New(jc, n.sim, n.timers,
		join.WithApplication(join.NewMultiApplication(apps...)),
		join.WithBlacklist(n.blacklist),
		join.WithTrace(trace, uuid.NewString()),
	)
	if err != nil {
		n.close()
		return nil, err
	}
	n.timers.OnFire(n.ctrl.TimerFired)
	n.sim.SetSink(n.ctrl)
	return n, nil
}

func simCoordinator(cfg *config.Config) macsim.Coordinator {
	return macsim.Coordinator{
		PANID:           cfg.Sim.PANID,
		ShortAddr:       cfg.Sim.ShortAddr,
		ExtAddr:         cfg.Sim.ExtAddr,
		Channel:         cfg.Sim.Channel,
		BeaconOrder:     cfg.Join.BeaconOrder,
		SuperframeOrder: cfg.Join.SuperframeOrder,
		PermitJoin:      cfg.Sim.PermitJoin,
		LinkQuality:     cfg.Sim.LinkQuality,
		FH:              cfg.Join.FH.Enabled,
		NetName:         cfg.Join.FH.NetName,
		PANVersion:      1,
	}
}

func (n *node) openTrace() (pantrace.Logger, error) {
	var loggers []pantrace.Logger
	if n.cfg.Trace.File != "" {
		fl, err := pantrace.NewFileLogger(n.cfg.Trace.File)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		n.trace = fl
		loggers = append(loggers, fl)
	}
	if n.cfg.Trace.Slog {
		loggers = append(loggers, pantrace.NewSlogAdapter(n.logger))
	}
	switch len(loggers) {
	case 0:
		return pantrace.NoopLogger{}, nil
	case 1:
		return loggers[0], nil
	}
	return pantrace.NewMultiLogger(loggers...), nil
}

// dialPublishers creates one redialer per configured broker. They connect
// in the background so a broker outage never delays the join.
func (n *node) dialPublishers() []*notify.Redialer {
	var rds []*notify.Redialer
	if mc := n.cfg.Notify.MQTT; mc.Broker != "" {
		if mc.ClientID == "" {
			mc.ClientID = n.cfg.Node.Name
		}
		dial := func() (notify.Publisher, error) { return notify.DialMQTT(mc) }
		rds = append(rds, notify.NewRedialer("mqtt", dial, nil, n.logger))
	}
	if nc := n.cfg.Notify.NATS; nc.URL != "" {
		if nc.Name == "" {
			nc.Name = n.cfg.Node.Name
		}
		dial := func() (notify.Publisher, error) { return notify.DialNATS(nc) }
		rds = append(rds, notify.NewRedialer("nats", dial, nil, n.logger))
	}
	return rds
}

// start initializes the controller and either rejoins the saved network
// or joins a new one.
func (n *node) start(fresh bool) error {
	n.ctrl.Init()

	fc, restored, err := n.store.FrameCounter()
	if err != nil {
		return fmt.Errorf("load frame counter: %w", err)
	}
	if err := n.ctrl.SecurityInit(fc); err != nil {
		return fmt.Errorf("security init: %w", err)
	}
	n.logger.Debug("frame counter", "value", fc, "restored", restored)

	if fresh {
		if err := n.store.ClearNetwork(); err != nil {
			return fmt.Errorf("clear network: %w", err)
		}
	}
	info, err := n.store.LoadNetwork()
	if err != nil {
		return fmt.Errorf("load network: %w", err)
	}
	if info == nil {
		n.ctrl.Join()
		return nil
	}

	// The simulated coordinator has no memory of its own across restarts.
	if err := n.sim.Restore(info.Parent.Device.ExtAddr, info.Device.ShortAddr); err != nil {
		n.logger.Warn("saved parent unknown to the simulated network", "parent", info.Parent.Device.ExtAddr)
	}
	n.logger.Info("rejoining saved network",
		"pan_id", info.Device.PANID,
		"short_addr", info.Device.ShortAddr,
		"parent", info.Parent.Device.ExtAddr,
		"joined_at", info.JoinedAt)
	n.ctrl.Rejoin(info.Device, info.Parent)
	return nil
}

func (n *node) saveFrameCounter(ctx context.Context) error {
	ticker := time.NewTicker(frameCounterSaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := n.store.UpdateFrameCounter(n.sim.FrameCounter()); err != nil {
				n.logger.Warn("save frame counter", "error", err)
			}
		}
	}
}

func (n *node) saveFinalFrameCounter() {
	if _, err := n.store.UpdateFrameCounter(n.sim.FrameCounter()); err != nil {
		n.logger.Warn("save frame counter", "error", err)
	}
}

func (n *node) close() {
	if n.trace != nil {
		written, dropped := n.trace.Stats()
		n.logger.Debug("trace closed", "written", written, "dropped", dropped)
		_ = n.trace.Close()
	}
	if n.blacklist != nil {
		_ = n.blacklist.Close()
	}
}

func (n *node) shellTarget() interactive.Target {
	return interactive.Target{
		Controller: n.ctrl,
		Sim:        n.sim,
		Blacklist:  n.blacklist,
		Store:      n.store,
		Timers:     n.timers,
		Parent:     n.cfg.Sim.ExtAddr,
	}
}

// eventLogger logs join notifications.
type eventLogger struct {
	join.NopApplication
	logger *slog.Logger
}

func (e eventLogger) Joined(dev join.DeviceDescriptor, parent join.ParentInfo) {
	e.logger.Info("[EVENT] joined",
		"pan_id", fmt.Sprintf("0x%04x", dev.PANID),
		"short_addr", fmt.Sprintf("0x%04x", dev.ShortAddr),
		"parent", parent.Device.ExtAddr)
}

func (e eventLogger) Disassociated(d join.Disassociation) {
	if d.Requested {
		e.logger.Info("[EVENT] left network", "status", d.Status)
		return
	}
	e.logger.Info("[EVENT] removed by parent", "parent", d.Addr, "reason", d.Reason)
}

func (e eventLogger) StateChanged(state join.JoinState) {
	e.logger.Debug("[EVENT] state", "state", state)
}

package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tinykms/tinykms/kms/atomic"
	"github.com/tinykms/tinykms/kms/config"
	"github.com/tinykms/tinykms/kms/hw"
	"github.com/tinykms/tinykms/kms/latches"
	"github.com/tinykms/tinykms/kms/resource"
	"github.com/tinykms/tinykms/kms/runner"
)

var (
	configPath  = flag.String("config", "", "config file path")
	metricsAddr = flag.String("metrics", "", "metrics address")
)

// flipDone is the completion token attached to each demo flip.
type flipDone struct {
	seq uint64
}

func main() {
	flag.Parse()

	conf := config.NewDefaultConfig()
	if *configPath != "" {
		var err error
		conf, err = config.Load(*configPath)
		if err != nil {
			log.Fatal("load config", zap.Error(err))
		}
	}
	if *metricsAddr != "" {
		conf.MetricsAddr = *metricsAddr
	}
	if err := conf.Validate(); err != nil {
		log.Fatal("validate config", zap.Error(err))
	}

	lg, p, err := log.InitLogger(&conf.Log)
	if err != nil {
		log.Fatal("initialize logger", zap.Error(err))
	}
	log.ReplaceGlobals(lg, p)
	defer log.Sync()

	dir := resource.NewDirectory(conf.NumSurfaces, conf.NumOutputs)
	device := hw.NewMemHW(conf.NumSurfaces, conf.NumOutputs)
	engine := atomic.NewEngine(dir, device)
	lat := latches.NewLatches()

	mode := &resource.Mode{Name: "1920x1080", Width: 1920, Height: 1080, Refresh: 60}
	wiring := make([]resource.ID, conf.NumOutputs)
	for i := 0; i < conf.NumOutputs; i++ {
		wiring[i] = dir.AddWiring(fmt.Sprintf("HDMI-%d", i+1)).ID()
	}

	// Two framebuffers per output for double buffering.
	fbs := make([][2]*resource.Framebuffer, conf.NumOutputs)
	for i := range fbs {
		fbs[i] = [2]*resource.Framebuffer{
			resource.NewFramebuffer(mode.Width, mode.Height),
			resource.NewFramebuffer(mode.Width, mode.Height),
		}
	}

	// Initial modeset: one transaction lighting up every output and
	// binding the primary surfaces.
	err = runner.Run(engine, lat, 0, func(txn *atomic.Txn) error {
		for i := 0; i < conf.NumOutputs; i++ {
			o := dir.Output(resource.ID(i))
			st, err := txn.StageOutput(o)
			if err != nil {
				return err
			}
			st.SetConfig = true
			st.Mode = mode
			st.WiringIDs = []resource.ID{wiring[i]}
			st.SetFramebuffer(fbs[i][0])
		}
		for i := 0; i < conf.NumSurfaces && i < conf.NumOutputs; i++ {
			s := dir.Surface(resource.ID(i))
			st, err := txn.StageSurface(s)
			if err != nil {
				return err
			}
			st.Output = dir.Output(resource.ID(i))
			st.SetFramebuffer(fbs[i][0])
			st.Dst = resource.Rect{W: mode.Width, H: mode.Height}
			st.Src = resource.FixedFull(mode.Width, mode.Height)
		}
		return nil
	})
	if err != nil {
		log.Fatal("initial modeset", zap.Error(err))
	}
	log.Info("device configured",
		zap.Int("surfaces", conf.NumSurfaces),
		zap.Int("outputs", conf.NumOutputs),
		zap.String("mode", mode.Name))

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(conf.MetricsAddr, nil); err != nil {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	stopped := make(chan struct{})
	go handleSignal(stopped)

	var flags uint32
	if conf.AsyncFlip {
		flags |= atomic.FlagAsync
	}

	ticker := time.NewTicker(conf.FlipInterval.Duration)
	defer ticker.Stop()
	var seq uint64
	for {
		select {
		case <-stopped:
			log.Info("shutting down", zap.Uint64("flips", seq))
			return
		case <-ticker.C:
		}

		seq++
		back := int(seq % 2)
		err := runner.Run(engine, lat, flags, func(txn *atomic.Txn) error {
			for i := 0; i < conf.NumOutputs; i++ {
				o := dir.Output(resource.ID(i))
				st, err := txn.StageOutput(o)
				if err != nil {
					return err
				}
				st.SetFramebuffer(fbs[i][back])
				st.Event = &flipDone{seq: seq}
			}
			return nil
		})
		if err != nil {
			log.Warn("flip failed", zap.Uint64("seq", seq), zap.Error(err))
		}
	}
}

func handleSignal(stopped chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	sig := <-sigCh
	log.Info("got signal to exit", zap.Stringer("signal", sig))
	close(stopped)
}

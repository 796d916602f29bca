// Firmware entry point. Select the board with a build tag, e.g.
//
//	tinygo flash -target=nucleo-f401re -tags=ledboard_nucleof401re .
//
// Without a board tag the simulated board is used, which also lets the
// program run on a host with plain `go run .`.
package main

import (
	"context"
	"runtime"
	"time"

	"ledcode-go/bus"
	"ledcode-go/internal/logging"
	"ledcode-go/services/config"
	"ledcode-go/services/heartbeat"
	"ledcode-go/services/ledsvc"
	"ledcode-go/x/timex"
)

const memInterval = 5 * time.Second

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(bootDelay)
	log := logging.Println("main")
	log.Info("boot", "board", board)

	ctx := context.Background()
	b := bus.NewBus(4)
	conn := b.NewConnection("main")

	svc := ledsvc.New(b.NewConnection("ledsvc"), ledsvc.WithLogger(logging.Println("ledsvc")))
	svc.Start(ctx)

	cfgSvc := config.NewConfigService(board, logging.Println("config"))
	if err := cfgSvc.Start(ctx, conn); err != nil {
		halt(log, err)
	}
	cfg, _ := config.Embedded(board)
	if len(cfg.LEDs) == 0 {
		halt(log, nil)
	}

	interval := heartbeat.DefaultInterval
	if d := 2 * heartbeat.DefaultToggles * timex.Ms(cfg.BlinkPeriodMs); d > interval {
		interval = d
	}
	hb := &heartbeat.Service{LED: cfg.LEDs[0].ID, Interval: interval, Log: logging.Println("heartbeat")}
	if err := hb.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		halt(log, err)
	}

	tick := time.NewTicker(memInterval)
	defer tick.Stop()
	for range tick.C {
		printMem()
	}
}

// halt parks the firmware after a fatal setup error.
func halt(log logging.Logger, err error) {
	if err != nil {
		log.Error("halted", "err", err)
	} else {
		log.Error("halted", "reason", "board has no leds")
	}
	for {
		time.Sleep(time.Hour)
	}
}

// printMem prints a compact snapshot of runtime memory stats.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}

// Command client runs a headless simulation instance against a relay: it
// connects, seeds itself from physics_init, applies broadcasts, and
// periodically logs a world summary. Useful for demos and soak runs without
// a browser.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"physics-playground/internal/engine"
	"physics-playground/internal/net/client"
	"physics-playground/internal/net/proto"
	"physics-playground/internal/sim"
	"physics-playground/logging"
	loggingSinks "physics-playground/logging/sinks"
)

func main() {
	var (
		url      string
		interval time.Duration
	)
	flag.StringVar(&url, "url", "ws://localhost:8080/ws", "relay websocket endpoint")
	flag.DurationVar(&interval, "report", 2*time.Second, "interval between world summaries")
	flag.Parse()

	router := logging.NewRouter(logging.DefaultConfig(), logging.SystemClock{}, []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout)},
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		router.Close(ctx)
	}()

	lastReport := time.Now()
	painter := engine.PainterFunc(func(world *sim.World) {
		if time.Since(lastReport) < interval {
			return
		}
		lastReport = time.Now()
		log.Printf("world objects=%d gravity=%.2f", world.Store().Len(), world.Config().Gravity.Y)
	})

	var eng *engine.Engine
	sync := client.New(client.Config{
		URL:       url,
		Publisher: router,
		OnMessage: func(msg proto.Message) {
			eng.Deliver(msg)
		},
	})
	eng = engine.New(engine.Config{Painter: painter, Sender: sync, Publisher: router})

	stop := make(chan struct{})
	loopDone := make(chan struct{})
	go func() {
		eng.Run(stop)
		close(loopDone)
	}()

	clientDone := make(chan struct{})
	go func() {
		sync.Run()
		close(clientDone)
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case <-signals:
		log.Printf("shutting down")
		sync.Stop()
	case <-clientDone:
		log.Printf("relay connection lost for good")
	}

	close(stop)
	<-loopDone
}

// Command poolctl is a small demonstration front-end for the pool: it
// loads POOL_* settings from the environment (falling back to pflag
// overrides), runs a toy bufferpool-backed pool under synthetic load, and
// prints the resulting Statistics/StatisticsFull views through their
// String methods.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/valyala/bytebufferpool"

	respool "github.com/go-respool/respool"
	"github.com/go-respool/respool/config"
	"github.com/go-respool/respool/policy"
)

func main() {
	pflag.CommandLine.SortFlags = false

	poolSize := pflag.IntP("size", "s", 4, "pool size, overrides POOL_SIZE if POOL_SIZE is unset")
	requests := pflag.IntP("requests", "n", 100, "number of synthetic acquire/release cycles to run")
	full := pflag.Bool("full", false, "print the full per-slot statistics dump instead of the summary")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	if !*verbose {
		log = log.Level(zerolog.InfoLevel)
	}

	opts, err := config.Load()
	if err != nil {
		opts = policy.Options{PoolSize: *poolSize}
		log.Warn().Err(err).Msg("poolctl: falling back to CLI flags, could not load env config")
	}
	if opts.PoolSize < 1 {
		opts.PoolSize = *poolSize
	}

	pol := policy.NewBase[*bytebufferpool.ByteBuffer](opts, func() (*bytebufferpool.ByteBuffer, error) {
		return bytebufferpool.Get(), nil
	})
	pol.Hooks.OnReturn = func(b *bytebufferpool.ByteBuffer) error {
		b.Reset()
		return nil
	}
	pol.Hooks.OnDestroy = bytebufferpool.Put
	p := respool.NewWithLogger[*bytebufferpool.ByteBuffer](pol, log)
	defer p.Close()

	for i := 0; i < *requests; i++ {
		slot, err := p.Acquire(time.Second)
		if err != nil {
			log.Error().Err(err).Msg("poolctl: acquire failed")
			continue
		}
		fmt.Fprintf(slot.Value(), "request-%d", i)
		if err := p.Release(slot, false); err != nil {
			log.Error().Err(err).Msg("poolctl: release failed")
		}
	}

	if *full {
		fmt.Println(p.StatisticsFull().String())
		return
	}
	fmt.Println(p.Statistics().String())
	os.Exit(0)
}

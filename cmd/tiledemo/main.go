// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command tiledemo splits images into GPU-sized tiles.
//
// Usage:
//
//	tiledemo plan [--limit N] WIDTH HEIGHT
//	tiledemo upload [--backend memory|native|noop] [--limit N] [--refresh N] FILE...
//
// upload decodes every FILE (PNG, JPEG, GIF, BMP, TIFF, WebP) concurrently,
// feeds the frames to a tiledtex.Stage in order and prints the resulting
// tile grid. Animated GIFs are refreshed in place frame by frame.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/tiledtex"
	"github.com/gogpu/tiledtex/backend"
	"github.com/gogpu/tiledtex/backend/memory"
	_ "github.com/gogpu/tiledtex/backend/native"
	"github.com/gogpu/tiledtex/gpucore"
)

const defaultLimit = 8192

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tiledemo:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "tiledemo"
	app.Usage = "split large images into GPU texture tiles"
	app.Version = "0.1.0"
	app.Writer = out

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "log tiledtex activity to stderr",
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.Bool("verbose") {
			tiledtex.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
		return nil
	}

	limitFlag := &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"l"},
		EnvVars: []string{"TILEDEMO_LIMIT"},
		Usage:   "maximum texture dimension (0 uses the device limit)",
	}

	app.Commands = []*cli.Command{
		{
			Name:      "plan",
			Usage:     "print the tile grid for an image size",
			ArgsUsage: "WIDTH HEIGHT",
			Flags:     []cli.Flag{limitFlag},
			Action:    planAction,
		},
		{
			Name:      "upload",
			Usage:     "decode images and upload them as tiled textures",
			ArgsUsage: "FILE...",
			Flags: []cli.Flag{
				limitFlag,
				&cli.StringFlag{
					Name:    "backend",
					Aliases: []string{"b"},
					EnvVars: []string{"TILEDEMO_BACKEND"},
					Value:   backend.BackendMemory,
					Usage:   "device backend (memory, native, noop; empty picks the best available)",
				},
				&cli.BoolFlag{Name: "nearest", Usage: "use nearest magnification filtering"},
				&cli.BoolFlag{Name: "premultiplied", Usage: "premultiply alpha on upload"},
				&cli.IntFlag{Name: "refresh", Usage: "apply `N` edit frames after each image"},
				&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: 4, Usage: "concurrent decoders"},
				&cli.PathFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the reassembled tiles to `FILE` as PNG (memory backend)"},
			},
			Action: uploadAction,
		},
	}
	return app
}

func planAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("plan needs WIDTH and HEIGHT", 2)
	}
	w, err := strconv.Atoi(c.Args().Get(0))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid width: %v", err), 2)
	}
	h, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid height: %v", err), 2)
	}
	limit := c.Int("limit")
	if limit == 0 {
		limit = defaultLimit
	}

	part, err := tiledtex.ComputePartition(w, h, limit)
	if err != nil {
		return cli.Exit(err, 1)
	}
	printPartition(c.App.Writer, part)
	return nil
}

func printPartition(out io.Writer, part tiledtex.Partition) {
	fmt.Fprintln(out, part)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TILE\tROW\tCOL\tRECT\tSIZE")
	for index, rect := range part.All() {
		row, col := part.Position(index)
		fmt.Fprintf(tw, "%d\t%d\t%d\t%v\t%dx%d\n", index, row, col, rect, rect.Dx(), rect.Dy())
	}
	tw.Flush()
}

func uploadAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("upload needs at least one FILE", 2)
	}

	dev, err := backend.Open(c.String("backend"), backend.Config{MaxTextureDimension: c.Int("limit")})
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer dev.Close()

	var build []tiledtex.BuildOption
	if c.Bool("nearest") {
		build = append(build, tiledtex.WithMagFilter(gpucore.FilterNearest))
	}
	if c.Bool("premultiplied") {
		build = append(build, tiledtex.WithAllocation(gpucore.AllocationPremultiplied))
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	out := c.App.Writer
	fmt.Fprintf(out, "backend %s, max texture dimension %d\n", dev.Name(), dev.MaxTextureDimension())

	err = upload(ctx, out, dev, c.Args().Slice(), uploadConfig{
		build:   build,
		refresh: c.Int("refresh"),
		jobs:    int64(c.Int("jobs")),
		out:     c.Path("out"),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return cli.Exit(err, 1)
	}

	if md, ok := dev.(*memory.Device); ok {
		st := md.Stats()
		fmt.Fprintf(out, "memory: %d live textures, %d live bytes, peak %d bytes, %d creates, %d writes\n",
			st.Live, st.LiveBytes, st.PeakBytes, st.Creates, st.Writes)
	}
	return nil
}

type uploadConfig struct {
	build   []tiledtex.BuildOption
	refresh int
	jobs    int64
	out     string
}

// upload runs the decode pipeline into a Stage and prints the final grid.
func upload(ctx context.Context, out io.Writer, dev gpucore.Device, paths []string, cfg uploadConfig) error {
	out = &syncWriter{w: out}
	stage := tiledtex.NewStage(dev, tiledtex.WithBuildOptions(cfg.build...))

	done := make(chan struct{})
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for {
			select {
			case m := <-stage.Messages():
				fmt.Fprintln(out, m)
			case <-done:
				for {
					select {
					case m := <-stage.Messages():
						fmt.Fprintln(out, m)
					default:
						return
					}
				}
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	results := decodeAll(gctx, g, paths, cfg.jobs)

	g.Go(func() error {
		frames := stage.Frames()
		defer close(frames)
		for _, ch := range results {
			var res decoded
			select {
			case res = <-ch:
			case <-gctx.Done():
				return gctx.Err()
			}
			if res.err != nil {
				fmt.Fprintf(out, "%s: %v\n", res.path, res.err)
				continue
			}
			fmt.Fprintf(out, "%s: %s, %d frame(s)\n", res.path, res.format, len(res.frames))

			all := res.frames
			last := all[len(all)-1].Image
			for i := range cfg.refresh {
				all = append(all, editFrame(last, i))
			}
			for _, f := range all {
				select {
				case frames <- f:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		}
		return nil
	})
	g.Go(func() error {
		return stage.Run(gctx)
	})

	err := g.Wait()
	close(done)
	<-printed
	if tex := stage.Texture(); tex != nil {
		fmt.Fprintln(out, tex)
		printPartition(out, tex.Partition())
		if cfg.out != "" {
			if serr := writeSnapshot(cfg.out, tex); serr != nil {
				err = errors.Join(err, fmt.Errorf("snapshot: %w", serr))
			} else {
				fmt.Fprintf(out, "wrote %s\n", cfg.out)
			}
		}
	}
	stage.Close()
	return err
}

// syncWriter serializes writes from the pipeline goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

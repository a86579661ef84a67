package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/graphwalk"
	"github.com/spf13/cobra"
)

type walkFlags struct {
	app            string
	p, q           float64
	alpha          float64
	walks          uint32
	hops           uint16
	sources        string
	randomSources  uint32
	stopAtBoundary bool
	output         string

	sampler     string
	scheduler   string
	threads     int
	seed        uint64
	blockSize   int64
	cacheMemory int64
	cacheSlots  int
	spill       int
}

func newWalkCmd(flags *globalFlags) *cobra.Command {
	var wf walkFlags

	cmd := &cobra.Command{
		Use:   "walk <dataset>",
		Short: "Run random walks over a dataset",
		Long: `Walk starts --walks walkers at every vertex (or at --sources, or at
--random-sources random vertices) and moves each for --hops hops.

Applications:
  node2vec        second-order walk with return parameter --p and in-out parameter --q
  autoregressive  second-order walk with smoothing --alpha
  uniform         first-order walk (edge weights on weighted graphs)

With --output, every walker's path is written as "id: v0 v1 ... vN".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			wf.override(cmd, cfg)

			walk, err := wf.walk()
			if err != nil {
				return err
			}
			var rec *graphwalk.Recorder
			if wf.output != "" {
				rec = graphwalk.NewRecorder()
				walk.Observer = rec
			}

			sess, err := newSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			g, err := graphwalk.Open(cmd.Context(), args[0], sess.opts...)
			if err != nil {
				return err
			}
			defer g.Close()

			stats, err := g.Run(cmd.Context(), walk)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rounds:       %d\n", stats.Rounds)
			fmt.Fprintf(out, "steps:        %d\n", stats.Steps)
			fmt.Fprintf(out, "block loads:  %d (%d bytes)\n", stats.BlockLoads, stats.BytesLoaded)
			fmt.Fprintf(out, "spilled:      %d\n", stats.Spilled)
			fmt.Fprintf(out, "draws:        %d\n", stats.Draws)
			fmt.Fprintf(out, "duration:     %s\n", stats.Duration)

			if rec != nil {
				return writePaths(wf.output, out, rec)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&wf.app, "app", "node2vec", "application: node2vec, autoregressive, uniform")
	f.Float64Var(&wf.p, "p", 0.5, "node2vec return parameter")
	f.Float64Var(&wf.q, "q", 2, "node2vec in-out parameter")
	f.Float64Var(&wf.alpha, "alpha", 0.2, "autoregressive smoothing, 0 <= alpha < 1")
	f.Uint32Var(&wf.walks, "walks", 1, "walkers per source vertex")
	f.Uint16Var(&wf.hops, "hops", 80, "hops per walker")
	f.StringVar(&wf.sources, "sources", "", "comma separated source vertices (default: all)")
	f.Uint32Var(&wf.randomSources, "random-sources", 0, "start this many walkers at random vertices")
	f.BoolVar(&wf.stopAtBoundary, "stop-at-boundary", false, "park walkers whenever they leave their block")
	f.StringVarP(&wf.output, "output", "o", "", "write walker paths to this file (- for stdout)")

	f.StringVar(&wf.sampler, "sampler", "", "sampler: naive, its, alias, reject")
	f.StringVar(&wf.scheduler, "scheduler", "", "scheduler: greedy, annealing, lp")
	f.IntVar(&wf.threads, "threads", 0, "walker goroutines (0: GOMAXPROCS)")
	f.Uint64Var(&wf.seed, "seed", 0, "random seed")
	f.Int64Var(&wf.blockSize, "block-size", 0, "partition block size in bytes")
	f.Int64Var(&wf.cacheMemory, "cache-memory", 0, "cache memory budget in bytes")
	f.IntVar(&wf.cacheSlots, "cache-slots", 0, "fixed number of cache slots")
	f.IntVar(&wf.spill, "spill", 0, "spill buckets holding at least this many walkers (0: off)")
	return cmd
}

// override applies the engine flags that were set explicitly.
func (wf *walkFlags) override(cmd *cobra.Command, cfg *Config) {
	f := cmd.Flags()
	if f.Changed("sampler") {
		cfg.Engine.Sampler = wf.sampler
	}
	if f.Changed("scheduler") {
		cfg.Engine.Scheduler = wf.scheduler
	}
	if f.Changed("threads") {
		cfg.Engine.Threads = wf.threads
	}
	if f.Changed("seed") {
		cfg.Engine.Seed = wf.seed
	}
	if f.Changed("block-size") {
		cfg.Engine.BlockSize = wf.blockSize
	}
	if f.Changed("cache-memory") {
		cfg.Engine.CacheMemory = wf.cacheMemory
	}
	if f.Changed("cache-slots") {
		cfg.Engine.CacheSlots = wf.cacheSlots
	}
	if f.Changed("spill") {
		cfg.Spill.Threshold = wf.spill
	}
}

func (wf *walkFlags) walk() (graphwalk.Walk, error) {
	w := graphwalk.Walk{
		WalksPerSource:      wf.walks,
		Hops:                graphwalk.Hop(wf.hops),
		RandomSources:       wf.randomSources,
		StopAtBlockBoundary: wf.stopAtBoundary,
	}

	var err error
	switch strings.ToLower(wf.app) {
	case "node2vec":
		w.Transit, err = graphwalk.Node2Vec(wf.p, wf.q)
	case "autoregressive", "ar":
		w.Transit, err = graphwalk.Autoregressive(wf.alpha)
	case "uniform":
		w.Transit = graphwalk.Uniform()
	default:
		return w, fmt.Errorf("%w: unknown app %q", graphwalk.ErrInvalidArgument, wf.app)
	}
	if err != nil {
		return w, err
	}

	w.Sources, err = parseSources(wf.sources)
	return w, err
}

func parseSources(s string) ([]graphwalk.VertexID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	sources := make([]graphwalk.VertexID, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: source %q", graphwalk.ErrInvalidArgument, f)
		}
		sources = append(sources, graphwalk.VertexID(v))
	}
	return sources, nil
}

func writePaths(path string, stdout io.Writer, rec *graphwalk.Recorder) error {
	var w io.Writer = stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	var line []byte
	for _, id := range rec.Walkers() {
		line = strconv.AppendUint(line[:0], uint64(id), 10)
		line = append(line, ':')
		for _, v := range rec.Path(id) {
			line = append(line, ' ')
			line = strconv.AppendUint(line, uint64(v), 10)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

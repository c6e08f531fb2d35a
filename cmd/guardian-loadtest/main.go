// Command guardian-loadtest measures token store latency under concurrent
// load against a real Redis or an in-process miniredis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"slices"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/MrEthical07/guardian/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type credential struct {
	userID int64
	token  string
}

type options struct {
	tokens  int
	users   int
	workers int
	ops     int
	addr    string
	prefix  string
	sliding bool
}

func main() {
	var o options
	flag.IntVar(&o.tokens, "tokens", 100000, "tokens seeded before the run")
	flag.IntVar(&o.users, "users", 10000, "distinct user ids the tokens are spread over")
	flag.IntVar(&o.workers, "concurrency", 256, "concurrent workers per phase")
	flag.IntVar(&o.ops, "ops", 200000, "operations per phase")
	flag.StringVar(&o.addr, "redis-addr", os.Getenv("REDIS_ADDR"), "redis address (default $REDIS_ADDR, else miniredis)")
	flag.StringVar(&o.prefix, "prefix", "gs-load", "token key prefix")
	flag.BoolVar(&o.sliding, "sliding", false, "refresh the TTL on every hit")
	flag.Parse()

	if err := run(context.Background(), o, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "guardian-loadtest:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, out io.Writer) error {
	if o.tokens <= 0 || o.users <= 0 || o.workers <= 0 || o.ops <= 0 {
		return errors.New("tokens, users, concurrency and ops must be positive")
	}

	client, where, closeFn, err := connect(o.addr)
	if err != nil {
		return err
	}
	defer closeFn()
	fmt.Fprintln(out, "target:", where)

	store := session.NewStore(client, session.Options{
		Prefix:  o.prefix,
		TTL:     24 * time.Hour,
		Sliding: o.sliding,
	})

	began := time.Now()
	seeded := make([]credential, o.tokens)
	for i := range seeded {
		id := int64(i%o.users) + 1
		token, err := store.Create(ctx, id)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		seeded[i] = credential{userID: id, token: token}
	}
	fmt.Fprintf(out, "seeded %d tokens for %d users in %s\n", o.tokens, o.users, time.Since(began).Round(time.Millisecond))

	lookup := measure(ctx, o.ops, o.workers, func(ctx context.Context, rng *rand.Rand) error {
		c := seeded[rng.Intn(len(seeded))]
		ok, err := store.Exists(ctx, c.userID, c.token)
		if err == nil && !ok {
			err = fmt.Errorf("user %d lost a seeded token", c.userID)
		}
		return err
	})
	churn := measure(ctx, o.ops, o.workers, func(ctx context.Context, rng *rand.Rand) error {
		id := int64(rng.Intn(o.users)) + 1
		token, err := store.Create(ctx, id)
		if err != nil {
			return err
		}
		return store.Delete(ctx, id, token)
	})

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "phase\tops\terrors\tops/s\tp50\tp95\tp99\t")
	lookup.row(tw, "exists")
	churn.row(tw, "create+delete")
	return tw.Flush()
}

// connect dials addr, or starts a miniredis when addr is empty.
func connect(addr string) (redis.UniversalClient, string, func(), error) {
	if addr != "" {
		c := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		return c, "redis " + addr, func() { _ = c.Close() }, nil
	}
	mr, err := miniredis.Run()
	if err != nil {
		return nil, "", nil, fmt.Errorf("miniredis: %w", err)
	}
	c := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	return c, "miniredis " + mr.Addr(), func() {
		_ = c.Close()
		mr.Close()
	}, nil
}

// measure spreads ops calls of op over workers goroutines. Each worker keeps
// its own samples, merged once all have finished.
func measure(ctx context.Context, ops, workers int, op func(context.Context, *rand.Rand) error) report {
	var (
		next   atomic.Int64
		errs   atomic.Int64
		g      errgroup.Group
		perJob = make([][]time.Duration, workers)
	)

	began := time.Now()
	for w := range workers {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(began.UnixNano() ^ int64(w+1)*0x9e3779b9))
			for next.Add(1) <= int64(ops) {
				t := time.Now()
				if err := op(ctx, rng); err != nil {
					errs.Add(1)
				}
				perJob[w] = append(perJob[w], time.Since(t))
			}
			return nil
		})
	}
	_ = g.Wait()

	return newReport(time.Since(began), slices.Concat(perJob...), errs.Load())
}

type report struct {
	elapsed time.Duration
	samples []time.Duration // sorted ascending
	errors  int64
}

func newReport(elapsed time.Duration, samples []time.Duration, failed int64) report {
	slices.Sort(samples)
	return report{elapsed: elapsed, samples: samples, errors: failed}
}

// quantile returns the nearest-rank sample for q in [0, 1].
func (r report) quantile(q float64) time.Duration {
	n := len(r.samples)
	if n == 0 {
		return 0
	}
	rank := int(q*float64(n)+0.5) - 1
	return r.samples[max(0, min(rank, n-1))]
}

func (r report) throughput() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(len(r.samples)) / r.elapsed.Seconds()
}

func (r report) row(w io.Writer, phase string) {
	fmt.Fprintf(w, "%s\t%d\t%d\t%.0f\t%s\t%s\t%s\t\n",
		phase, len(r.samples), r.errors, r.throughput(),
		r.quantile(0.50).Round(time.Microsecond),
		r.quantile(0.95).Round(time.Microsecond),
		r.quantile(0.99).Round(time.Microsecond))
}

// README: Bench checks: storage reachability, schema, group lifecycle, ranking shape and load.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"campusride/internal/config"
	"campusride/internal/infra"
	"campusride/internal/types"
)

// catalogTables are the tables the API and ridectl seed read and write.
var catalogTables = []string{"users", "connections", "grps", "grp_members"}

const (
	benchCreator types.ID = "BENCH001"
	benchJoiner  types.ID = "BENCH_JOIN"
	benchStart            = "Thapar Patiala"
	benchDest             = "Delhi"
)

type bench struct {
	opts  options
	api   *apiClient
	db    *pgxpool.Pool
	dbErr error
	redis *redis.Client
	// group created by the create check and reused by join and match checks
	created types.ID
}

type check struct {
	name string
	run  func(ctx context.Context) report
}

func newBench(ctx context.Context, cfg config.Config, opts options) *bench {
	b := &bench{
		opts:  opts,
		api:   newAPIClient(opts.baseURL),
		redis: infra.NewRedis(cfg.Redis.Addr),
	}
	b.db, b.dbErr = infra.NewDB(ctx, cfg.DB.DSN)
	return b
}

func (b *bench) close() {
	if b.db != nil {
		b.db.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

func (b *bench) run(ctx context.Context, checks []check) []report {
	out := make([]report, 0, len(checks))
	for _, c := range checks {
		r := c.run(ctx)
		r.name = c.name
		out = append(out, r)
	}
	return out
}

func (b *bench) checks() []check {
	return []check{
		{"store: postgres reachable", b.checkPostgres},
		{"store: redis reachable", b.checkRedis},
		{"schema: apply migration", b.checkApplyMigration},
		{"schema: catalog tables present", b.checkTables},
		{"api: health", func(ctx context.Context) report {
			return expectStatus(b.api.health(ctx))(http.StatusOK)
		}},
		{"group: create and list", b.checkCreate},
		{"group: join without gid rejected", func(ctx context.Context) report {
			return expectStatus(b.api.joinGroup(ctx, benchJoiner, ""))(http.StatusBadRequest)
		}},
		{"group: join unknown gid", func(ctx context.Context) report {
			return expectStatus(b.api.joinGroup(ctx, benchJoiner, "G99999"))(http.StatusNotFound)
		}},
		{"group: concurrent join is idempotent", b.checkConcurrentJoin},
		{"match: discovery ranking", b.checkDiscovery},
		{"match: strict ranking", b.checkStrict},
		{"match: malformed ceiling rejected", func(ctx context.Context) report {
			_, res, err := b.api.findGroups(ctx, map[string]any{"max_group_size": "six"})
			return expectStatus(res, err)(http.StatusBadRequest)
		}},
		{"load: find_groups throughput", b.checkLoad},
	}
}

func (b *bench) checkPostgres(ctx context.Context) report {
	if b.dbErr != nil {
		return fail(b.dbErr.Error())
	}
	return pass("")
}

func (b *bench) checkRedis(ctx context.Context) report {
	if b.redis == nil {
		return skip("RIDE_REDIS_ADDR empty")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := b.redis.Ping(ctx).Err(); err != nil {
		return fail(err.Error())
	}
	return pass("")
}

func (b *bench) checkApplyMigration(ctx context.Context) report {
	if !b.opts.applyMigration {
		return skip("--apply-migration not set")
	}
	if b.db == nil {
		return skip("no database")
	}
	ddl, err := os.ReadFile(b.opts.migrationPath)
	if err != nil {
		return fail(err.Error())
	}
	if _, err := b.db.Exec(ctx, string(ddl)); err != nil {
		return fail(err.Error())
	}
	return pass(b.opts.migrationPath)
}

func (b *bench) checkTables(ctx context.Context) report {
	if b.db == nil {
		return skip("no database")
	}
	for _, table := range catalogTables {
		var present bool
		if err := b.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&present); err != nil {
			return fail(err.Error())
		}
		if !present {
			return fail("missing table " + table)
		}
	}
	return pass(fmt.Sprintf("%d tables", len(catalogTables)))
}

func (b *bench) checkCreate(ctx context.Context) report {
	gid, res, err := b.api.createGroup(ctx, createGroupBody{
		CreatorUID:    benchCreator,
		Start:         benchStart,
		Dest:          benchDest,
		Stops:         []string{"Ambala", "Panipat"},
		Capacity:      4,
		DepartureDate: time.Now().Add(24 * time.Hour).UTC().Format("2006-01-02T15:04"),
		Fare:          400,
	})
	if r := expectStatus(res, err)(http.StatusCreated); r.outcome != outcomePass {
		return r
	}
	if !validGID(gid) {
		return failAfter(res, "unexpected gid "+string(gid))
	}
	b.created = gid

	groups, _, err := b.api.listGroups(ctx)
	if err != nil {
		return failAfter(res, err.Error())
	}
	for _, g := range groups {
		if g.ID == gid {
			return report{outcome: outcomePass, latency: res.latency, note: string(gid)}
		}
	}
	return failAfter(res, string(gid)+" missing from /groups")
}

func (b *bench) checkConcurrentJoin(ctx context.Context) report {
	if b.created.Empty() {
		return skip("no group created")
	}
	statuses := make([]int, b.opts.concurrency)
	g, gctx := errgroup.WithContext(ctx)
	for i := range statuses {
		g.Go(func() error {
			res, err := b.api.joinGroup(gctx, benchJoiner, b.created)
			statuses[i] = res.status
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fail(err.Error())
	}
	for _, s := range statuses {
		if s != http.StatusOK {
			return fail(fmt.Sprintf("join returned %d", s))
		}
	}
	if b.db == nil {
		return pass("membership rows not verified without a database")
	}
	var rows int
	err := b.db.QueryRow(ctx, `SELECT COUNT(*) FROM grp_members WHERE gid = $1 AND uid = $2`,
		string(b.created), string(benchJoiner)).Scan(&rows)
	if err != nil {
		return fail(err.Error())
	}
	if rows != 1 {
		return fail(fmt.Sprintf("%d membership rows after %d joins", rows, len(statuses)))
	}
	return pass(fmt.Sprintf("%d joins, 1 row", len(statuses)))
}

func (b *bench) checkDiscovery(ctx context.Context) report {
	const topK = 25
	results, res, err := b.api.findGroups(ctx, findGroupsBody{
		UID:   benchCreator,
		Start: benchStart,
		Dest:  benchDest,
		TopK:  topK,
	})
	if r := expectStatus(res, err)(http.StatusOK); r.outcome != outcomePass {
		return r
	}
	if err := verifyRanking(results, topK); err != nil {
		return failAfter(res, err.Error())
	}
	note := fmt.Sprintf("%d results", len(results))
	if i := rankOf(results, b.created); i >= 0 {
		note += fmt.Sprintf(", %s at #%d", b.created, i+1)
	}
	return report{outcome: outcomePass, latency: res.latency, note: note}
}

func (b *bench) checkStrict(ctx context.Context) report {
	const topK = 25
	results, res, err := b.api.findGroups(ctx, findGroupsBody{
		Start: "Ambala",
		Dest:  benchDest,
		Mode:  "strict",
		TopK:  topK,
	})
	if r := expectStatus(res, err)(http.StatusOK); r.outcome != outcomePass {
		return r
	}
	if err := verifyRanking(results, topK); err != nil {
		return failAfter(res, err.Error())
	}
	if err := verifyStrict(results); err != nil {
		return failAfter(res, err.Error())
	}
	return report{outcome: outcomePass, latency: res.latency, note: fmt.Sprintf("%d results", len(results))}
}

func (b *bench) checkLoad(ctx context.Context) report {
	body := findGroupsBody{UID: benchCreator, Start: benchStart, Dest: benchDest}
	deadline := time.Now().Add(b.opts.duration)

	perWorker := make([][]time.Duration, b.opts.concurrency)
	errs := make([]int, b.opts.concurrency)
	g, gctx := errgroup.WithContext(ctx)
	for i := range perWorker {
		g.Go(func() error {
			for time.Now().Before(deadline) && gctx.Err() == nil {
				_, res, err := b.api.findGroups(gctx, body)
				if err != nil || res.status != http.StatusOK {
					errs[i]++
					continue
				}
				perWorker[i] = append(perWorker[i], res.latency)
			}
			return nil
		})
	}
	_ = g.Wait()

	var latencies []time.Duration
	failed := 0
	for i := range perWorker {
		latencies = append(latencies, perWorker[i]...)
		failed += errs[i]
	}
	if len(latencies) == 0 {
		return fail(fmt.Sprintf("no successful requests, %d errors", failed))
	}
	s := summarize(latencies, b.opts.duration)
	return report{
		outcome: outcomePass,
		latency: s.p50,
		note:    fmt.Sprintf("rps=%.1f p95=%s errors=%d", s.rps, s.p95, failed),
	}
}

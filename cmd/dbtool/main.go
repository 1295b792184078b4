package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jacksonlee411/tenant-service/modules/tenant/domain/types"
	"github.com/jacksonlee411/tenant-service/modules/tenant/infrastructure/persistence"
)

func main() {
	if len(os.Args) < 2 {
		fatalf("usage: dbtool <migrate|seed> [args]")
	}

	switch os.Args[1] {
	case "migrate":
		migrate(os.Args[2:])
	case "seed":
		seed(os.Args[2:])
	default:
		fatalf("unknown subcommand: %s", os.Args[1])
	}
}

func migrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url string
	fs.StringVar(&url, "url", os.Getenv("DATABASE_URL"), "postgres connection string")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if url == "" {
		fatalf("missing --url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := connect(ctx, url)
	defer pool.Close()

	if err := persistence.EnsureSchema(ctx, pool); err != nil {
		fatal(err)
	}
	fmt.Println("[migrate] OK")
}

func seed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var url, file string
	fs.StringVar(&url, "url", os.Getenv("DATABASE_URL"), "postgres connection string")
	fs.StringVar(&file, "file", "config/tenants.yaml", "tenant seed file")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if url == "" {
		fatalf("missing --url")
	}

	tenants, err := persistence.LoadSeed(file)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := connect(ctx, url)
	defer pool.Close()

	if err := persistence.EnsureSchema(ctx, pool); err != nil {
		fatal(err)
	}
	store := persistence.NewTenantPGStore(pool)

	existing, err := store.List(ctx)
	if err != nil {
		fatal(err)
	}
	created := 0
	for _, t := range missingTenants(existing, tenants) {
		now := time.Now().UTC()
		t.ID = 0
		t.CreateDate, t.UpdateDate = now, now
		out, err := store.Create(ctx, t)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("[seed] created tenant id=%d subdomain=%s\n", out.ID, out.Subdomain)
		created++
	}
	fmt.Printf("[seed] OK (%d created, %d skipped)\n", created, len(tenants)-created)
}

// missingTenants returns the seed entries whose subdomain is not stored yet,
// keeping seed order.
func missingTenants(existing []types.Tenant, seed []types.Tenant) []types.Tenant {
	taken := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		taken[t.Subdomain] = struct{}{}
	}
	var out []types.Tenant
	for _, t := range seed {
		if _, ok := taken[t.Subdomain]; ok {
			continue
		}
		taken[t.Subdomain] = struct{}{}
		out = append(out, t)
	}
	return out
}

func connect(ctx context.Context, url string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		fatal(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		fatal(err)
	}
	return pool
}

func fatal(err error) {
	if err == nil {
		os.Exit(1)
	}
	fatalf("%v", err)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

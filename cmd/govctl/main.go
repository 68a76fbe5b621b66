package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Revaldoo24/govai-platform/internal/config"
	"github.com/Revaldoo24/govai-platform/internal/domain/decisions"
	"github.com/Revaldoo24/govai-platform/internal/domain/journal"
	"github.com/Revaldoo24/govai-platform/internal/infra/db"
	"github.com/Revaldoo24/govai-platform/pkg/consoleclient"
)

const defaultGateway = "http://localhost:3000"

// Testable variables for main()
var (
	osExit      = os.Exit
	openJournal = db.OpenJournal
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Error().Err(err).Msg("govctl failed")
		osExit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errors.New("command required")
	}
	switch args[0] {
	case "list":
		return listCmd(args[1:], out)
	case "detail":
		return detailCmd(args[1:], out)
	case "review":
		return reviewCmd(args[1:], out)
	case "generate":
		return generateCmd(args[1:], out)
	case "journal":
		return journalCmd(args[1:], out)
	default:
		usage(out)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "govctl commands:")
	fmt.Fprintln(out, "  list     --tenant gov-dept-a [--status pending] [--limit 20]")
	fmt.Fprintln(out, "  detail   --id <decision-id>")
	fmt.Fprintln(out, "  review   --id <decision-id> --status approved|rejected|pending --reviewer <name> [--notes text] [--force]")
	fmt.Fprintln(out, "  generate --tenant gov-dept-a --user <id> --prompt <text> [--top-k 4] [--policy-mode enforce|advisory]")
	fmt.Fprintln(out, "  journal  --tenant gov-dept-a [--limit 50] [--config config.yaml]")
	fmt.Fprintln(out, "common flags: --gateway URL (default $GOVAI_CONSOLE_URL or "+defaultGateway+"), --timeout 90s")
}

type common struct {
	gateway *string
	timeout *time.Duration
}

func newFlagSet(name string) (*flag.FlagSet, common) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	gw := os.Getenv("GOVAI_CONSOLE_URL")
	if gw == "" {
		gw = defaultGateway
	}
	return fs, common{
		gateway: fs.String("gateway", gw, "gateway base url"),
		timeout: fs.Duration("timeout", 90*time.Second, "request timeout"),
	}
}

func (c common) client() (*consoleclient.Client, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), *c.timeout)
	return consoleclient.New(*c.gateway, nil), ctx, cancel
}

func listCmd(args []string, out io.Writer) error {
	fs, cm := newFlagSet("list")
	tenant := fs.String("tenant", "", "tenant id")
	status := fs.String("status", "", "status filter")
	limit := fs.Int("limit", 0, "max rows")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tenant == "" {
		return errors.New("tenant required")
	}
	c, ctx, cancel := cm.client()
	defer cancel()
	list, err := c.ListDecisions(ctx, *tenant, consoleclient.Status(*status), *limit)
	if err != nil {
		return fmt.Errorf("list decisions: %w", err)
	}
	return writeJSON(out, list)
}

func detailCmd(args []string, out io.Writer) error {
	fs, cm := newFlagSet("detail")
	id := fs.String("id", "", "decision id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("id required")
	}
	c, ctx, cancel := cm.client()
	defer cancel()
	d, err := c.DecisionDetail(ctx, *id)
	if err != nil {
		return fmt.Errorf("decision detail: %w", err)
	}
	return writeJSON(out, d)
}

func reviewCmd(args []string, out io.Writer) error {
	fs, cm := newFlagSet("review")
	id := fs.String("id", "", "decision id")
	status := fs.String("status", "", "review status")
	reviewer := fs.String("reviewer", "", "reviewer name")
	notes := fs.String("notes", "", "review notes")
	force := fs.Bool("force", false, "submit without checking the current status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *status == "" || *reviewer == "" {
		return errors.New("id, status, reviewer required")
	}
	c, ctx, cancel := cm.client()
	defer cancel()

	// advisory; the governance service enforces the lifecycle
	if !*force {
		d, err := c.DecisionDetail(ctx, *id)
		if err != nil {
			return fmt.Errorf("decision detail: %w", err)
		}
		if err := checkTransition(d.Decision.Status, decisions.Status(*status)); err != nil {
			return err
		}
	}

	res, err := c.SubmitReview(ctx, *id, consoleclient.ReviewSubmission{
		Status:   consoleclient.Status(*status),
		Reviewer: *reviewer,
		Notes:    *notes,
	})
	if err != nil {
		return fmt.Errorf("submit review: %w", err)
	}
	return writeJSON(out, res)
}

func checkTransition(from, to decisions.Status) error {
	switch {
	case from.IsTerminal():
		return fmt.Errorf("decision already %s, use --force to submit anyway", from)
	case !decisions.CanTransition(from, to):
		return fmt.Errorf("cannot review %s decision as %q, use --force to submit anyway", from, to)
	}
	return nil
}

func generateCmd(args []string, out io.Writer) error {
	fs, cm := newFlagSet("generate")
	tenant := fs.String("tenant", "", "tenant id")
	user := fs.String("user", "", "user id")
	prompt := fs.String("prompt", "", "question")
	topK := fs.Int("top-k", 4, "number of sources")
	mode := fs.String("policy-mode", "", "enforce or advisory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tenant == "" || *prompt == "" {
		return errors.New("tenant, prompt required")
	}
	switch *mode {
	case "", decisions.PolicyModeEnforce, decisions.PolicyModeAdvisory:
	default:
		return fmt.Errorf("policy-mode must be %s or %s", decisions.PolicyModeEnforce, decisions.PolicyModeAdvisory)
	}
	c, ctx, cancel := cm.client()
	defer cancel()
	res, err := c.Generate(ctx, consoleclient.GenerateRequest{
		TenantID:   *tenant,
		UserID:     *user,
		Prompt:     *prompt,
		TopK:       *topK,
		PolicyMode: *mode,
	})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return writeJSON(out, res)
}

// journalCmd reads the gateway's access journal straight from its database.
func journalCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("journal", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfgPath := fs.String("config", path, "gateway config file")
	tenant := fs.String("tenant", "", "tenant id")
	limit := fs.Int("limit", 50, "max rows")
	timeout := fs.Duration("timeout", 30*time.Second, "query timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tenant == "" {
		return errors.New("tenant required")
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	repo, conn, err := openJournal(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer conn.Close()

	entries, err := repo.ListByTenant(ctx, *tenant, *limit)
	if err != nil {
		return fmt.Errorf("list journal: %w", err)
	}
	if entries == nil {
		entries = []*journal.Entry{}
	}
	return writeJSON(out, entries)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

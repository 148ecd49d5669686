package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/gops/agent"

	// Cloud storage roots (s3://, gs://).
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"

	"github.com/viant/snapvault/vault"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "backup":
		backupCmd(os.Args[2:])
	case "list":
		listCmd(os.Args[2:])
	case "restore":
		restoreCmd(os.Args[2:])
	case "read":
		readCmd(os.Args[2:])
	case "gc":
		gcCmd(os.Args[2:])
	case "reconcile":
		reconcileCmd(os.Args[2:])
	case "stats":
		statsCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: snapvault <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  backup     Store a snapshot of a document")
	fmt.Fprintln(os.Stderr, "  list       Show stored history of a document")
	fmt.Fprintln(os.Stderr, "  restore    Overwrite a document with a stored snapshot")
	fmt.Fprintln(os.Stderr, "  read       Print the content of a stored snapshot")
	fmt.Fprintln(os.Stderr, "  gc         Re-run capacity enforcement")
	fmt.Fprintln(os.Stderr, "  reconcile  Heal the index against the storage layout")
	fmt.Fprintln(os.Stderr, "  stats      Show per-root totals")
}

func newService(root, configPath string) *vault.Service {
	var opts []vault.Option
	if configPath != "" {
		cfg, err := vault.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if root == "" {
			root = cfg.Root
		}
		opts = append(opts, vault.WithSettings(cfg))
		if filter := cfg.Filter(); filter != nil {
			opts = append(opts, vault.WithFilter(filter))
		}
	}
	if root == "" {
		log.Fatalf("storage root required (--root or config)")
	}
	svc, err := vault.New(root, opts...)
	if err != nil {
		log.Fatalf("service: %v", err)
	}
	return svc
}

func backupCmd(args []string) {
	flags := flag.NewFlagSet("backup", flag.ExitOnError)
	root := flags.String("root", "", "storage root (path or URL)")
	configPath := flags.String("config", "", "config yaml (optional)")
	doc := flags.String("doc", "", "document path (required)")
	initial := flags.Bool("initial", false, "tag as the protected initial snapshot")
	_ = flags.Parse(args)
	requireDoc(*doc)

	content, err := os.ReadFile(*doc)
	if err != nil {
		log.Fatalf("read document: %v", err)
	}
	svc := newService(*root, *configPath)
	defer svc.Close()
	ctx := context.Background()
	var status vault.Status
	if *initial {
		status, err = svc.EnsureInitialBackup(ctx, *doc, content)
	} else {
		status, err = svc.EnsureBackup(ctx, *doc, content)
	}
	if err != nil {
		log.Fatalf("backup: %v", err)
	}
	fmt.Println(status)
}

func listCmd(args []string) {
	flags := flag.NewFlagSet("list", flag.ExitOnError)
	root := flags.String("root", "", "storage root (path or URL)")
	configPath := flags.String("config", "", "config yaml (optional)")
	doc := flags.String("doc", "", "document path (required)")
	_ = flags.Parse(args)
	requireDoc(*doc)

	svc := newService(*root, *configPath)
	defer svc.Close()
	backups, err := svc.List(context.Background(), *doc)
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	for _, b := range backups {
		marker := " "
		if b.IsInitial {
			marker = "*"
		}
		fmt.Printf("%s %-24s %-8s %8d  %s  %s\n",
			marker, b.ID, b.Category, b.Size, b.CreatedAt.Format(time.RFC3339), b.Preview)
	}
}

func restoreCmd(args []string) {
	flags := flag.NewFlagSet("restore", flag.ExitOnError)
	root := flags.String("root", "", "storage root (path or URL)")
	configPath := flags.String("config", "", "config yaml (optional)")
	doc := flags.String("doc", "", "document path (required)")
	id := flags.String("id", "", "entry id (required)")
	_ = flags.Parse(args)
	requireDoc(*doc)
	if *id == "" {
		log.Fatalf("--id required")
	}

	svc := newService(*root, *configPath)
	defer svc.Close()
	if err := svc.Restore(context.Background(), *doc, *id); err != nil {
		log.Fatalf("restore: %v", err)
	}
	fmt.Println("restored", *doc, "from", *id)
}

func readCmd(args []string) {
	flags := flag.NewFlagSet("read", flag.ExitOnError)
	root := flags.String("root", "", "storage root (path or URL)")
	configPath := flags.String("config", "", "config yaml (optional)")
	doc := flags.String("doc", "", "document path (required)")
	id := flags.String("id", "", "entry id (required)")
	_ = flags.Parse(args)
	requireDoc(*doc)
	if *id == "" {
		log.Fatalf("--id required")
	}

	svc := newService(*root, *configPath)
	defer svc.Close()
	content, err := svc.ReadContent(context.Background(), *doc, *id)
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	_, _ = os.Stdout.Write(content)
}

func gcCmd(args []string) {
	flags := flag.NewFlagSet("gc", flag.ExitOnError)
	root := flags.String("root", "", "storage root (path or URL)")
	configPath := flags.String("config", "", "config yaml (optional)")
	_ = flags.Parse(args)

	svc := newService(*root, *configPath)
	defer svc.Close()
	if err := svc.EnforceCapacity(context.Background()); err != nil {
		log.Fatalf("gc: %v", err)
	}
	printStats(svc)
}

func reconcileCmd(args []string) {
	flags := flag.NewFlagSet("reconcile", flag.ExitOnError)
	root := flags.String("root", "", "storage root (path or URL)")
	configPath := flags.String("config", "", "config yaml (optional)")
	_ = flags.Parse(args)

	// Initialization reconciles the index against the storage layout and
	// persists the healed state.
	svc := newService(*root, *configPath)
	defer svc.Close()
	if err := svc.Initialize(context.Background()); err != nil {
		log.Fatalf("reconcile: %v", err)
	}
	printStats(svc)
}

func statsCmd(args []string) {
	flags := flag.NewFlagSet("stats", flag.ExitOnError)
	root := flags.String("root", "", "storage root (path or URL)")
	configPath := flags.String("config", "", "config yaml (optional)")
	_ = flags.Parse(args)

	svc := newService(*root, *configPath)
	defer svc.Close()
	printStats(svc)
}

func printStats(svc *vault.Service) {
	stats, err := svc.Stat(context.Background())
	if err != nil {
		log.Fatalf("stats: %v", err)
	}
	fmt.Printf("documents=%d entries=%d totalSize=%d\n", stats.Documents, stats.Entries, stats.TotalSize)
}

func requireDoc(doc string) {
	if doc == "" {
		log.Fatalf("--doc required")
	}
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}

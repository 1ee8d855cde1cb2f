package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/sclgraph/pkg/config"
	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/export"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/treestate"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/memstore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/pgstore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/sparqlhttp"
)

const commandTimeout = 30 * time.Second

type CLI struct {
	nav      *explore.Navigator
	eng      *listing.Engine
	exporter *export.Exporter
	scanner  *bufio.Scanner

	// tree is the currently open session, nil until 'open'.
	tree *treestate.Tree

	// lastNodes and lastEntities back the numeric shorthands: 'expand 2'
	// means the second node of the previous listing.
	lastNodes    []explore.Node
	lastEntities []listing.Entity
}

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	backend := flag.String("backend", "", "Store backend override (memory|sparql|postgres)")
	endpoint := flag.String("endpoint", "", "SPARQL endpoint override")
	dsn := flag.String("dsn", "", "PostgreSQL URL override")
	exportDir := flag.String("export-dir", ".", "Directory for exported snapshots")
	depth := flag.Int("depth", 2, "Expansion depth for one-shot export")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("❌ Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	if *endpoint != "" {
		cfg.Store.SPARQL.Endpoint = *endpoint
	}
	if *dsn != "" {
		cfg.Store.Postgres.URL = *dsn
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Human-facing tool: keep the JSON log noise on stderr, errors only.
	logger := logging.NewJSONLogger(os.Stderr, logging.ErrorLevel)

	store, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		fmt.Printf("❌ Failed to open %s store: %v\n", cfg.Store.Backend, err)
		os.Exit(1)
	}
	defer store.Close()

	voc := schema.NewVocabulary(cfg.Store.Namespace)
	cli := &CLI{
		nav:     explore.NewNavigator(explore.Config{Store: store, Vocabulary: voc, Logger: logger}),
		eng:     listing.NewEngine(listing.Config{Store: store, Vocabulary: voc, Logger: logger}),
		scanner: bufio.NewScanner(os.Stdin),
	}

	if exporter, err := buildExporter(cfg, *exportDir, logger); err != nil {
		fmt.Printf("❌ Export sink error: %v\n", err)
		os.Exit(1)
	} else {
		cli.exporter = exporter
	}

	// One-shot mode: a command on the command line runs and exits.
	if args := flag.Args(); len(args) > 0 {
		if err := cli.runOnce(args, *depth); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		return
	}

	printBanner()
	fmt.Printf("📡 Backend: %s", cfg.Store.Backend)
	if cfg.Store.Backend == "memory" {
		fmt.Print(" (built-in demo substation)")
	}
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	if err := store.Ping(ctx); err != nil {
		fmt.Printf("⚠️  Store not reachable yet: %v\n", err)
	} else {
		fmt.Println("✅ Store reachable")
	}
	cancel()

	fmt.Println("\nType 'help' for available commands, 'exit' to quit")
	fmt.Println()

	cli.run()
}

func printBanner() {
	banner := `
╔══════════════════════════════════════════════════╗
║                                                  ║
║   sclgraph — substation configuration explorer   ║
║                                                  ║
╚══════════════════════════════════════════════════╝
`
	fmt.Println(banner)
}

func openStore(ctx context.Context, cfg config.Config, logger logging.Logger) (triplestore.Client, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memstore.NewFixture(), nil
	case "sparql":
		client, err := sparqlhttp.New(ctx, sparqlhttp.Config{
			Endpoint:       cfg.Store.SPARQL.Endpoint,
			Timeout:        cfg.Store.SPARQL.Timeout.Std(),
			MaxConnections: cfg.Store.SPARQL.MaxConnections,
			Username:       cfg.Store.SPARQL.Username,
			Password:       cfg.Store.SPARQL.Password,
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "postgres":
		store, err := pgstore.New(ctx, pgstore.Config{URL: cfg.Store.Postgres.URL, Logger: logger})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildExporter prefers the configured sink and falls back to the local
// -export-dir.
func buildExporter(cfg config.Config, fallbackDir string, logger logging.Logger) (*export.Exporter, error) {
	var sink export.Sink
	switch {
	case cfg.Export.S3.Bucket != "":
		s3Sink, err := export.NewS3Sink(context.Background(), export.S3Config{
			Bucket:    cfg.Export.S3.Bucket,
			Region:    cfg.Export.S3.Region,
			Prefix:    cfg.Export.S3.Prefix,
			AccessKey: cfg.Export.S3.AccessKey,
			SecretKey: cfg.Export.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		sink = s3Sink
	case cfg.Export.Dir != "":
		dirSink, err := export.NewDirSink(cfg.Export.Dir)
		if err != nil {
			return nil, err
		}
		sink = dirSink
	default:
		dirSink, err := export.NewDirSink(fallbackDir)
		if err != nil {
			return nil, err
		}
		sink = dirSink
	}
	return export.NewExporter(export.Config{Sink: sink, Logger: logger}), nil
}

// runOnce executes a single command line invocation.
func (cli *CLI) runOnce(args []string, depth int) error {
	switch args[0] {
	case "roots", "list":
		groupBy := ""
		if len(args) > 1 {
			groupBy = args[1]
		}
		return cli.showRoots(groupBy, "")

	case "search":
		if len(args) < 2 {
			return fmt.Errorf("usage: search <term>")
		}
		return cli.showRoots("", strings.Join(args[1:], " "))

	case "expand":
		if len(args) < 2 {
			return fmt.Errorf("usage: expand <id> [kind]")
		}
		kind := "IED"
		if len(args) > 2 {
			kind = args[2]
		}
		return cli.expandDirect(args[1], kind)

	case "export":
		if len(args) < 2 {
			return fmt.Errorf("usage: export <id> [kind] [name]")
		}
		kind, name := "IED", ""
		if len(args) > 2 {
			kind = args[2]
		}
		if len(args) > 3 {
			name = args[3]
		}
		return cli.exportSubtree(args[1], kind, name, depth)

	default:
		return fmt.Errorf("unknown command %q (try: roots, search, expand, export)", args[0])
	}
}

func (cli *CLI) run() {
	for {
		fmt.Print("sclgraph> ")

		if !cli.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(cli.scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("👋 Goodbye!")
			break
		}

		cli.executeCommand(input)
		fmt.Println()
	}
}

func (cli *CLI) executeCommand(input string) {
	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])

	var err error
	switch command {
	case "help":
		cli.showHelp()

	case "roots", "ls":
		groupBy := ""
		if len(parts) > 1 {
			groupBy = parts[1]
		}
		err = cli.showRoots(groupBy, "")

	case "search":
		if len(parts) < 2 {
			fmt.Println("Usage: search <term>")
			return
		}
		err = cli.showRoots("", strings.Join(parts[1:], " "))

	case "open", "o":
		if len(parts) < 2 {
			fmt.Println("Usage: open <id|number> [kind]")
			return
		}
		kind := "IED"
		if len(parts) > 2 {
			kind = parts[2]
		}
		err = cli.open(parts[1], kind)

	case "expand", "x":
		if len(parts) < 2 {
			fmt.Println("Usage: expand <id|number> [kind]")
			return
		}
		kind := ""
		if len(parts) > 2 {
			kind = parts[2]
		}
		err = cli.expand(parts[1], kind)

	case "refresh":
		if len(parts) < 2 {
			fmt.Println("Usage: refresh <id|number>")
			return
		}
		err = cli.refresh(parts[1])

	case "tree", "t":
		cli.showTree()

	case "export":
		name := ""
		if len(parts) > 1 {
			name = parts[1]
		}
		err = cli.exportOpenTree(name)

	case "clear":
		fmt.Print("\033[H\033[2J")

	default:
		fmt.Printf("❌ Unknown command: %s (type 'help' for available commands)\n", command)
	}

	if err != nil {
		fmt.Printf("❌ %v\n", err)
	}
}

func (cli *CLI) showHelp() {
	help := `
📖 Available Commands:

🔍 Listing:
  roots [type|bay]      List root devices, grouped (default: type)
  ls                    Shorthand for roots
  search <term>         Case-insensitive name search over devices

🌲 Navigation:
  open <id|n> [kind]    Open a session tree at a device (default kind: IED)
  o                     Shorthand for open
  expand <id|n> [kind]  Expand a node; cached once a tree is open
  x                     Shorthand for expand
  refresh <id|n>        Reload a node's children, dropping its subtree
  tree                  Render the loaded part of the open tree
  t                     Shorthand for tree

💾 Export:
  export [name]         Export the open tree as compressed JSON

🎮 Other:
  clear                 Clear screen
  help                  Show this help
  exit/quit             Exit

💡 Numbers refer to the previous listing: after 'roots', 'open 1' opens
   the first device; after an expand, 'expand 2' descends into the
   second child.
`
	fmt.Println(help)
}

func (cli *CLI) showRoots(groupByArg, search string) error {
	groupBy, err := listing.ParseGroupBy(groupByArg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	start := time.Now()
	result, err := cli.eng.List(ctx, groupBy, search)
	if err != nil {
		return err
	}

	fmt.Printf("📋 Devices by %s (%d total, %v)\n", groupBy, result.TotalCount, time.Since(start).Round(time.Millisecond))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	groups := make([]string, 0, len(result.Groups))
	for g := range result.Groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	cli.lastEntities = cli.lastEntities[:0]
	cli.lastNodes = nil
	n := 0
	for _, g := range groups {
		fmt.Printf("⚡ %s (%d)\n", g, len(result.Groups[g]))
		for _, e := range result.Groups[g] {
			n++
			cli.lastEntities = append(cli.lastEntities, e)
			fmt.Printf("  %2d. %s", n, entityLine(e))
			fmt.Println()
		}
	}
	if result.TotalCount == 0 {
		fmt.Println("  (no matching devices)")
	}
	return nil
}

func entityLine(e listing.Entity) string {
	var b strings.Builder
	if e.Name != nil {
		b.WriteString(*e.Name)
	} else {
		b.WriteString(e.ID)
	}
	var extras []string
	if e.Manufacturer != nil {
		extras = append(extras, *e.Manufacturer)
	}
	if e.Desc != nil {
		extras = append(extras, *e.Desc)
	}
	if len(extras) > 0 {
		b.WriteString(" - ")
		b.WriteString(strings.Join(extras, ", "))
	}
	return b.String()
}

// open starts a fresh session tree; any previous tree is discarded.
func (cli *CLI) open(ref, kindArg string) error {
	id := ref
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(cli.lastEntities) {
			return fmt.Errorf("no entry %d in the last listing", n)
		}
		id = cli.lastEntities[n-1].ID
	}

	kind, err := schema.ParseKind(kindArg)
	if err != nil {
		return err
	}

	root := explore.Node{
		ID:         id,
		Kind:       kind,
		Label:      explore.FormatLabel(kind, id, nil),
		Expandable: cli.nav.Registry().Expandable(kind),
	}
	cli.tree = treestate.NewTree(root)
	fmt.Printf("🌲 Opened tree at %s [%s]\n", root.Label, kind)
	return cli.expand(id, string(kind))
}

// expand resolves the node reference and loads children, through the
// open tree when the node belongs to it.
func (cli *CLI) expand(ref, kindArg string) error {
	id := ref
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(cli.lastNodes) {
			return fmt.Errorf("no entry %d in the last expansion", n)
		}
		id = cli.lastNodes[n-1].ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	start := time.Now()
	var nodes []explore.Node
	var err error
	if cli.tree != nil {
		if _, known := cli.tree.Node(id); known {
			nodes, err = cli.tree.Expand(ctx, cli.nav, id)
		}
	}
	if nodes == nil && err == nil {
		// Not in a tree; expand directly against the store.
		if kindArg == "" {
			return fmt.Errorf("node %s is not in the open tree; pass its kind", id)
		}
		var kind schema.Kind
		kind, err = schema.ParseKind(kindArg)
		if err != nil {
			return err
		}
		nodes, err = cli.nav.Expand(ctx, id, kind)
	}
	if err != nil {
		return err
	}

	fmt.Printf("🔽 %d children (%v)\n", len(nodes), time.Since(start).Round(time.Millisecond))
	cli.printNodes(nodes)
	return nil
}

func (cli *CLI) refresh(ref string) error {
	if cli.tree == nil {
		return fmt.Errorf("no tree open; use 'open' first")
	}
	id := ref
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(cli.lastNodes) {
			return fmt.Errorf("no entry %d in the last expansion", n)
		}
		id = cli.lastNodes[n-1].ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	nodes, err := cli.tree.Refresh(ctx, cli.nav, id)
	if err != nil {
		return err
	}
	fmt.Printf("♻️  Reloaded %d children\n", len(nodes))
	cli.printNodes(nodes)
	return nil
}

func (cli *CLI) expandDirect(id, kindArg string) error {
	kind, err := schema.ParseKind(kindArg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	nodes, err := cli.nav.Expand(ctx, id, kind)
	if err != nil {
		return err
	}
	fmt.Printf("🔽 %d children of %s [%s]\n", len(nodes), id, kind)
	cli.printNodes(nodes)
	return nil
}

func (cli *CLI) printNodes(nodes []explore.Node) {
	cli.lastNodes = nodes
	cli.lastEntities = nil
	for i, n := range nodes {
		marker := " "
		if n.Expandable {
			marker = "▸"
		}
		fmt.Printf("  %2d. %s %-36s [%s]\n", i+1, marker, n.Label, n.Kind)
	}
}

func (cli *CLI) showTree() {
	if cli.tree == nil {
		fmt.Println("❌ No tree open; use 'open' first")
		return
	}
	snap := cli.tree.Snapshot()
	fmt.Printf("🌲 %s\n", snap.Nodes[snap.RootID].Label)
	printSubtree(snap, snap.RootID, "  ")
	fmt.Printf("\n%d nodes loaded\n", len(snap.Nodes))
}

func printSubtree(snap *treestate.Snapshot, id, indent string) {
	for _, childID := range snap.Children[id] {
		child := snap.Nodes[childID]
		marker := "•"
		if child.Expandable {
			marker = "▸"
		}
		if _, loaded := snap.Children[childID]; loaded {
			marker = "▾"
		}
		fmt.Printf("%s%s %s [%s]\n", indent, marker, child.Label, child.Kind)
		printSubtree(snap, childID, indent+"  ")
	}
}

func (cli *CLI) exportOpenTree(name string) error {
	if cli.tree == nil {
		return fmt.Errorf("no tree open; use 'open' first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	receipt, err := cli.exporter.ExportTree(ctx, name, cli.tree.Snapshot())
	if err != nil {
		return err
	}
	fmt.Printf("💾 Exported %s (%d bytes, %d compressed)\n", receipt.Location, receipt.RawBytes, receipt.StoredBytes)
	return nil
}

// exportSubtree is the one-shot export: open a tree, breadth-first
// expand to the requested depth, write the snapshot.
func (cli *CLI) exportSubtree(id, kindArg, name string, depth int) error {
	kind, err := schema.ParseKind(kindArg)
	if err != nil {
		return err
	}

	root := explore.Node{
		ID:         id,
		Kind:       kind,
		Label:      explore.FormatLabel(kind, id, nil),
		Expandable: cli.nav.Registry().Expandable(kind),
	}
	tree := treestate.NewTree(root)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	frontier := []explore.Node{root}
	visited := 0
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []explore.Node
		for _, n := range frontier {
			if !n.Expandable {
				continue
			}
			children, err := tree.Expand(ctx, cli.nav, n.ID)
			if err != nil {
				return err
			}
			visited++
			next = append(next, children...)
		}
		frontier = next
	}

	receipt, err := cli.exporter.ExportTree(ctx, name, tree.Snapshot())
	if err != nil {
		return err
	}
	fmt.Printf("💾 Exported %s (%d expansions, %d bytes raw, %d stored)\n",
		receipt.Location, visited, receipt.RawBytes, receipt.StoredBytes)
	return nil
}

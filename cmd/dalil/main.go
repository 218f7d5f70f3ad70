// Command dalil is a command-line client for the query engine: ask
// questions, ingest documents, and manage sessions against a running
// Qdrant and model stack.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/dalilchat/dalil"
)

const usage = `Usage: dalil <command> [flags]

Commands:
  query    ask a question
  ingest   ingest files into the document collection
  history  show a session's conversation history
  clear    delete a session's conversation history
  sweep    delete expired conversation turns
  info     show document collection statistics
  drop     delete all documents

Run 'dalil <command> -h' for command flags.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(dalil.ExitValidation)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))
	godotenv.Load()

	cmd, args := os.Args[1], os.Args[2:]
	err := run(cmd, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dalil:", err)
	}
	os.Exit(dalil.ExitCode(err))
}

func run(cmd string, args []string) error {
	switch cmd {
	case "query":
		return cmdQuery(args)
	case "ingest":
		return cmdIngest(args)
	case "history":
		return cmdHistory(args)
	case "clear":
		return cmdClear(args)
	case "sweep":
		return cmdSweep(args)
	case "info":
		return cmdInfo(args)
	case "drop":
		return cmdDrop(args)
	case "help", "-h", "--help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", dalil.ErrInvalidInput, cmd)
	}
}

// newEngine builds an engine from the shared -config flag value.
func newEngine(configPath string) (dalil.Engine, error) {
	cfg, err := dalil.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return dalil.New(ctx, cfg)
}

func cmdQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	session := fs.String("session", "", "Session id (empty starts a new session)")
	asJSON := fs.Bool("json", false, "Print the full result as JSON")
	noRAG := fs.Bool("no-rag", false, "Answer without document retrieval")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("%w: query text is required", dalil.ErrInvalidInput)
	}
	question := fs.Arg(0)

	engine, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []dalil.QueryOption
	if *noRAG {
		opts = append(opts, dalil.WithoutRAG())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	res, err := engine.Query(ctx, *session, question, opts...)
	if err != nil {
		return err
	}

	if *asJSON {
		return printJSON(res)
	}
	fmt.Println(res.Answer)
	if *session == "" {
		fmt.Fprintln(os.Stderr, "session:", res.SessionID)
	}
	return nil
}

func cmdIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	imageMode := fs.String("image-mode", "", "Image extraction mode: text, description, or auto")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("%w: at least one file is required", dalil.ErrInvalidInput)
	}

	var files []dalil.File
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", dalil.ErrInvalidInput, path, err)
		}
		files = append(files, dalil.File{Name: filepath.Base(path), Data: data})
	}

	engine, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []dalil.IngestOption
	if *imageMode != "" {
		opts = append(opts, dalil.WithImageMode(*imageMode))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	results := engine.IngestFiles(ctx, files, opts...)

	var failed error
	for _, fr := range results {
		if fr.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", fr.Name, fr.Err)
			failed = fr.Err
			continue
		}
		if fr.Result.Skipped {
			fmt.Printf("%s: skipped (duplicate)\n", fr.Name)
			continue
		}
		fmt.Printf("%s: %d chunks (%s)\n", fr.Name, fr.Result.Chunks, fr.Result.Format)
		for _, w := range fr.Result.Warnings {
			fmt.Fprintf(os.Stderr, "%s: warning: %s\n", fr.Name, w)
		}
	}
	return failed
}

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	limit := fs.Int("n", 0, "Number of messages (0 uses the configured maximum)")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("%w: session id is required", dalil.ErrInvalidInput)
	}

	engine, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	msgs, err := engine.History(ctx, fs.Arg(0), *limit)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		fmt.Printf("[%s] %s: %s\n", m.Timestamp.Format(time.RFC3339), m.Role, m.Content)
	}
	return nil
}

func cmdClear(args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("%w: session id is required", dalil.ErrInvalidInput)
	}

	engine, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	deleted, err := engine.ClearHistory(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d messages\n", deleted)
	return nil
}

func cmdSweep(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	fs.Parse(args)

	engine, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	deleted, err := engine.SweepMemory(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d expired messages\n", deleted)
	return nil
}

func cmdInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	fs.Parse(args)

	engine, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	info, err := engine.CollectionInfo(ctx)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func cmdDrop(args []string) error {
	fs := flag.NewFlagSet("drop", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	fs.Parse(args)

	if !*yes {
		fmt.Print("delete all documents? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("aborted")
			return nil
		}
	}

	engine, err := newEngine(*configPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := engine.ClearDocuments(ctx); err != nil {
		return err
	}
	fmt.Println("documents cleared")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

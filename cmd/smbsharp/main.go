// Command smbsharp is a thin CLI over the FileStore backends: one
// sub-command per store operation, with the backend selected by
// configuration. File content moves over stdin/stdout so the tool
// composes with pipes; logs go to stderr.
//
// Usage:
//
//	smbsharp [-config path] [-log-level LEVEL] <command> [args]
//
// Commands:
//
//	ls <address>                        list files at the address
//	cat <address> <name>                print a file to stdout
//	put <address> <name> [mode]         write stdin to a file
//	                                    (mode: overwrite, create-new, append)
//	rm <address> <name>                 delete a file
//	mv <src-address> <src-name> <dst-address> <dst-name>
//	                                    move a file
//	mkdir <address>                     create a directory
//	probe <address>                     test connectivity (exit 0/1)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/diegodancourt/SmbSharp/internal/logger"
	"github.com/diegodancourt/SmbSharp/pkg/config"
	"github.com/diegodancourt/SmbSharp/pkg/metrics"
	"github.com/diegodancourt/SmbSharp/pkg/share"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: search standard locations)")
	logLevel := flag.String("log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smbsharp: %v\n", err)
		os.Exit(1)
	}

	logger.SetLevel(cfg.Logging.Level)
	if *logLevel != "" {
		logger.SetLevel(*logLevel)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := config.CreateFileStore(ctx, &cfg.Store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smbsharp: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, store, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "smbsharp: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches one sub-command against the store.
func run(ctx context.Context, store share.FileStore, command string, args []string) error {
	switch command {
	case "ls":
		if len(args) != 1 {
			return fmt.Errorf("usage: ls <address>")
		}
		names, err := store.ListFiles(ctx, args[0])
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil

	case "cat":
		if len(args) != 2 {
			return fmt.Errorf("usage: cat <address> <name>")
		}
		r, err := store.ReadFile(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		defer r.Close()
		_, err = io.Copy(os.Stdout, r)
		return err

	case "put":
		if len(args) != 2 && len(args) != 3 {
			return fmt.Errorf("usage: put <address> <name> [overwrite|create-new|append]")
		}
		mode := share.Overwrite
		if len(args) == 3 {
			var err error
			if mode, err = parseWriteMode(args[2]); err != nil {
				return err
			}
		}
		return store.WriteFile(ctx, args[0], args[1], os.Stdin, mode)

	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: rm <address> <name>")
		}
		return store.DeleteFile(ctx, args[0], args[1])

	case "mv":
		if len(args) != 4 {
			return fmt.Errorf("usage: mv <src-address> <src-name> <dst-address> <dst-name>")
		}
		return store.MoveFile(ctx, args[0], args[1], args[2], args[3])

	case "mkdir":
		if len(args) != 1 {
			return fmt.Errorf("usage: mkdir <address>")
		}
		return store.MakeDirectory(ctx, args[0])

	case "probe":
		if len(args) != 1 {
			return fmt.Errorf("usage: probe <address>")
		}
		if !store.CanConnect(ctx, args[0]) {
			return fmt.Errorf("%s: not reachable", args[0])
		}
		fmt.Println("ok")
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func parseWriteMode(s string) (share.WriteMode, error) {
	switch s {
	case "overwrite":
		return share.Overwrite, nil
	case "create-new":
		return share.CreateNew, nil
	case "append":
		return share.Append, nil
	default:
		return share.Overwrite, fmt.Errorf("unknown write mode %q", s)
	}
}

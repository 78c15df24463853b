// Command gocsdump rebuilds C# declarations from a metadata graph.
package main

import (
	"errors"
	"flag"
	"fmt"
	"gocsdump/internal/config"
	"gocsdump/internal/generation"
	"gocsdump/internal/metadata"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("gocsdump.cli")

func main() {
	var configPath = flag.String("config", "", "The path to a gocsdump.toml configuration file.")
	var snapshotPath = flag.String("input", "", "The path to a metadata snapshot (.json or CBOR).")
	var winMdPath = flag.String("winmd", "", "The path to a Windows Metadata file to read instead of a snapshot.")
	var outputPath = flag.String("output", config.DefaultOutput, "The path of the generated declarations. Default: "+config.DefaultOutput)
	var symbolsPath = flag.String("symbols", "", "If given, also writes a Go symbol table of method addresses to this path.")
	var symbolsPackage = flag.String("symbolsPackage", config.DefaultSymbolsPackage, "The package name of the symbol table. Default: "+config.DefaultSymbolsPackage)
	var exclude = flag.String("exclude", "", "Comma separated namespaces to skip, nested namespaces included.")
	var suppressGenerated = flag.Bool("suppressGenerated", false, "If given omits compiler-generated types and members.")
	var verbosity = flag.Int("v", 0, "Log verbosity.")
	flag.Usage = func() {
		fmt.Println("App that rebuilds C# declarations from IL2CPP metadata.")
		flag.PrintDefaults()
	}

	flag.Parse()
	commonlog.Configure(*verbosity, nil)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fail(err)
		}
	}

	// Flags given on the command line override the configuration file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input.Snapshot = *snapshotPath
		case "winmd":
			cfg.Input.WinMd = *winMdPath
		case "output":
			cfg.Output.Path = *outputPath
		case "symbols":
			cfg.Output.Symbols = *symbolsPath
		case "symbolsPackage":
			cfg.Output.SymbolsPackage = *symbolsPackage
		case "exclude":
			cfg.Filter.ExcludeNamespaces = splitList(*exclude)
		case "suppressGenerated":
			cfg.Filter.SuppressCompilerGenerated = *suppressGenerated
		case "v":
			cfg.Log.Verbosity = *verbosity
		}
	})

	if cfg.Log.Verbosity != *verbosity {
		commonlog.Configure(cfg.Log.Verbosity, nil)
	}

	if err := run(cfg); err != nil {
		fail(err)
	}
}

func run(cfg *config.Config) error {
	var graph *metadata.Graph
	var err error
	switch {
	case cfg.Input.Snapshot != "":
		graph, err = metadata.LoadSnapshot(cfg.Input.Snapshot)
	case cfg.Input.WinMd != "":
		if _, statErr := os.Stat(cfg.Input.WinMd); errors.Is(statErr, os.ErrNotExist) {
			log.Noticef("%s does not exist, downloading the latest Win32 metadata", cfg.Input.WinMd)
			if err := metadata.DownloadWinMd(cfg.Input.WinMd); err != nil {
				return fmt.Errorf("downloading metadata: %w", err)
			}
		}
		graph, err = metadata.LoadWinMd(cfg.Input.WinMd)
	default:
		return fmt.Errorf("input path is missing")
	}
	if err != nil {
		return err
	}

	generator := generation.NewGenerator(generation.Options{
		ExcludedNamespaces:        cfg.Filter.ExcludeNamespaces,
		SuppressCompilerGenerated: cfg.Filter.SuppressCompilerGenerated,
	})
	for _, t := range graph.Types {
		generator.RegisterType(t)
	}

	if err := generator.Generate(cfg.Output.Path); err != nil {
		return err
	}
	if cfg.Output.Symbols != "" {
		if err := generator.GenerateSymbols(cfg.Output.Symbols, cfg.Output.SymbolsPackage); err != nil {
			return err
		}
	}
	log.Noticef("processed %d types", len(graph.Types))
	return nil
}

func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func fail(err error) {
	log.Error(err.Error())
	os.Exit(1)
}

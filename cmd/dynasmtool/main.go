// Command dynasmtool assembles a textual Thumb-2 action-list program
// (see assembler package) to machine code, and optionally serves it
// live over HTTP/websocket or inspects it in a read-only TUI
// (SPEC_FULL.md §B.4).
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dynasm-thumb2/dynasm/api"
	"github.com/dynasm-thumb2/dynasm/assembler"
	"github.com/dynasm-thumb2/dynasm/config"
	"github.com/dynasm-thumb2/dynasm/inspector"
)

// Version, Commit and Date are overridden at build time via
// `-ldflags "-X main.Version=... -X main.Commit=... -X main.Date=..."`.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func main() {
	programPath := flag.String("program", "", "path to a textual action-list program")
	outPath := flag.String("out", "", "output path for the encoded machine code")
	configPath := flag.String("config", "", "path to a toml config file (defaults to the platform config dir)")
	apiServer := flag.Bool("api-server", false, "serve the program live over HTTP/websocket")
	apiPort := flag.Int("api-port", 0, "override the configured API port (0 = use config)")
	inspect := flag.Bool("inspect", false, "launch the read-only TUI inspector on the linked program")
	verbose := flag.Bool("verbose", false, "log each build step")
	version := flag.Bool("version", false, "print version information and exit")
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("dynasmtool %s (commit %s, built %s)\n", Version, Commit, Date)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("dynasmtool: %v", err)
	}
	if *apiPort != 0 {
		cfg.API.ListenAddr = overridePort(cfg.API.ListenAddr, *apiPort)
	}

	if *programPath == "" && !*apiServer {
		flag.Usage()
		os.Exit(2)
	}

	program := assembler.NewProgram(cfg.Assembler)

	if *programPath != "" {
		if *verbose {
			log.Printf("dynasmtool: assembling %s", *programPath)
		}
		source, err := os.ReadFile(*programPath) // #nosec G304 -- operator-provided path
		if err != nil {
			log.Fatalf("dynasmtool: reading %s: %v", *programPath, err)
		}
		if err := program.Assemble(string(source)); err != nil {
			log.Fatalf("dynasmtool: %v", err)
		}
		for _, w := range program.Warnings() {
			log.Printf("dynasmtool: warning: %s", w)
		}
		if *verbose {
			log.Printf("dynasmtool: assembled %d half-words", len(program.Code()))
		}
		if *outPath != "" {
			if err := writeCode(*outPath, program.Code()); err != nil {
				log.Fatalf("dynasmtool: writing %s: %v", *outPath, err)
			}
		}
	}

	if *inspect {
		if *programPath == "" {
			log.Fatal("dynasmtool: -inspect requires -program")
		}
		tui := inspector.New(*programPath, program, cfg.Inspector)
		if err := tui.Run(); err != nil {
			log.Fatalf("dynasmtool: inspector: %v", err)
		}
		return
	}

	if *apiServer {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		srv := api.NewServer(cfg)
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Fatalf("dynasmtool: api server: %v", err)
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// overridePort replaces addr's port (":8420" or "host:8420") with port,
// for the -api-port flag's quick-override convenience.
func overridePort(addr string, port int) string {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return addr + ":" + strconv.Itoa(port)
	}
	return addr[:i] + ":" + strconv.Itoa(port)
}

// writeCode writes code as little-endian half-words, the natural byte
// layout for a Thumb-2 instruction stream.
func writeCode(path string, code []uint16) error {
	buf := make([]byte, len(code)*2)
	for i, w := range code {
		binary.LittleEndian.PutUint16(buf[i*2:], w)
	}
	return os.WriteFile(path, buf, 0600)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: dynasmtool -program FILE [flags]\n\n")
	flag.PrintDefaults()
}

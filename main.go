package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"pptextract/internal/cli"
	"pptextract/internal/config"
)

const usage = `pptextract extracts embedded pictures from PowerPoint files (.ppt, .pps, .pptx).

Usage:
  pptextract [-config file] list <file> [...]
  pptextract [-config file] extract [-o dir] [-j n] [-min-size bytes] [-inflate] [-save-config] <file> [...]

extract -save-config writes the effective extract settings to the config file.
`

func main() {
	log.SetFlags(0)

	configPath := flag.String("config", "./pptextract.json", "JSON config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cm := config.NewConfigManager(*configPath)
	if err := cm.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "list":
		if err := cli.RunList(args, os.Stdout); err != nil {
			log.Fatalf("list: %v", err)
		}
	case "extract":
		report, err := cli.RunExtract(args, cm, os.Stdout)
		if err != nil {
			log.Fatalf("extract: %v", err)
		}
		if len(report.Failed) > 0 {
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
}

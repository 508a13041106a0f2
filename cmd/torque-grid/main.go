package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/torque-tracker/torque/cmd"
	"github.com/torque-tracker/torque/grid"
	"github.com/torque-tracker/torque/version"
)

func main() {
	help := flag.Bool("h", false, "Show help.")
	pattern := flag.Int("p", -1, "Print only this pattern.")
	templateDir := flag.String("t", "", "Directory with custom song.txt and pattern.txt templates.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String())
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	var printer *grid.Printer
	var err error
	if *templateDir != "" {
		printer, err = grid.NewFromTemplates(*templateDir)
	} else {
		printer, err = grid.New()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	retval := 0
	for _, filename := range flag.Args() {
		song, err := cmd.ReadSongFile(filename)
		if err == nil {
			if *pattern >= 0 {
				err = printer.Pattern(os.Stdout, &song, *pattern)
			} else {
				err = printer.Song(os.Stdout, &song)
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", filename, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Torque command line utility for printing .yml/.json song files as text.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}

/**
 * coffdbg
 * Copyright (c) 2026, the coffdbg authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 * @file main.go
 * @date 10/15/2026
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"coffdbg/pkg/log"
	"coffdbg/pkg/pe"
	"coffdbg/pkg/report"
)

var (
	logLevel   = log.Level()
	format     string
	maxSymbols int
	maxTypes   int
)

func envInt(name string, def int) int {
	if s, ok := os.LookupEnv(name); ok {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		log.Warnln("ignoring %s=%q: not a number", name, s)
	}
	return def
}

func init() {
	if s := os.Getenv("COFFDBG_LOG_LEVEL"); s != "" {
		if err := logLevel.Set(s); err != nil {
			log.Warnln("ignoring COFFDBG_LOG_LEVEL=%q: %v", s, err)
		}
	}
	format = os.Getenv("COFFDBG_FORMAT")
	if format == "" {
		format = string(report.Text)
	}

	flag.Var(&logLevel, "log-level", "log level: debug, info, warning, error or silent")
	flag.StringVar(&format, "format", format, "output format: text or yaml")
	flag.IntVar(&maxSymbols, "max-symbols", envInt("COFFDBG_MAX_SYMBOLS", 200), "CodeView symbols to list, -1 for all")
	flag.IntVar(&maxTypes, "max-types", envInt("COFFDBG_MAX_TYPES", 200), "CodeView types to list, -1 for all")
	flag.Usage = help
}

func help() {
	name := filepath.Base(os.Args[0])
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Dumps the headers, exports and CodeView debug information of COFF")
	fmt.Fprintln(out, "object files and PE images.")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "   ", name, "[flags] headers|exports|debuginfo file")
	fmt.Fprintln(out, "Example:")
	fmt.Fprintln(out, "   ", name, "-format yaml debuginfo ExamplePE.exe")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Flags:")
	flag.PrintDefaults()
}

func build(command string, f *pe.File) (report.Report, error) {
	switch command {
	case "headers":
		return report.BuildHeaders(f)
	case "exports":
		return report.BuildExports(f)
	case "debuginfo":
		return report.BuildDebugInfo(f, report.Limits{MaxSymbols: maxSymbols, MaxTypes: maxTypes})
	}
	return nil, fmt.Errorf("unknown command %q", command)
}

func main() {
	flag.Parse()
	log.SetLevel(logLevel)

	if flag.NArg() != 2 {
		log.Errorln("expected a command and a file path")
		help()
		os.Exit(2)
	}
	command, path := flag.Arg(0), flag.Arg(1)

	outputFormat, err := report.ParseFormat(format)
	if err != nil {
		log.Fatalln("%v", err)
	}

	f, err := pe.Open(path)
	if err != nil {
		log.Fatalln("open %s: %v", path, err)
	}
	defer f.Close()

	r, err := build(command, f)
	if err != nil {
		log.Fatalln("%s %s: %v", command, path, err)
	}
	if err := report.Write(os.Stdout, outputFormat, r); err != nil {
		log.Fatalln("write report: %v", err)
	}
}

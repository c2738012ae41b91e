// Package main is a thin CLI over internal/driver. The real
// lexer/parser/AST-builder for the source language is out of scope
// (spec §1) and lives upstream in production use; here we drive the
// pipeline with internal/fixture's textual grammar so the binary has
// something runnable to point at a file.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"wlpc/internal/config"
	"wlpc/internal/driver"
	"wlpc/internal/fixture"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: wlpc <file.src> [-v]")
		os.Exit(1)
	}

	path := os.Args[1]
	verbose := len(os.Args) > 2 && os.Args[2] == "-v"

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		os.Exit(1)
	}

	prog, err := fixture.Parse(path, string(source))
	if err != nil {
		reportParseError(err)
		os.Exit(1)
	}

	cfg, err := config.Load("wlpc.yaml")
	if err != nil {
		color.Red("failed to load wlpc.yaml: %s", err)
		os.Exit(1)
	}

	result, err := driver.Compile(prog, driver.Options{Config: cfg, Verbose: verbose})
	if err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}

	if err := driver.WriteAssembly(os.Stdout, result); err != nil {
		color.Red("failed to write assembly: %s", err)
		os.Exit(1)
	}
}

func reportParseError(err error) {
	if pe, ok := err.(participle.Error); ok {
		pos := pe.Position()
		color.Red("syntax error in %s at line %d, column %d: %s", pos.Filename, pos.Line, pos.Column, pe.Message())
		return
	}
	color.Red("%s", err)
}

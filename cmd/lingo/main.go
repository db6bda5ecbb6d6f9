// Package main provides the lingo command-line tool: build a database from
// a JSON input spec, or run a query expression against one (spec §6.3).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		os.Exit(runBuild(os.Args[2:]))
	case "query":
		os.Exit(runQuery(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("Usage: lingo <command> [flags] <args>")
	fmt.Println("Commands:")
	fmt.Println("  build <input-spec.json> <output.lingo>")
	fmt.Println("  query <db.lingo> <expr>")
}

func runBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) != 2 {
		fmt.Println("Usage: lingo build <input-spec.json> <output.lingo>")
		return 2
	}

	specPath, outPath := rest[0], rest[1]
	data, err := os.ReadFile(specPath)
	if err != nil {
		log.Printf("read input spec: %v", err)
		return 2
	}

	spec, err := parseInputSpec(data)
	if err != nil {
		log.Printf("invalid input spec: %v", err)
		return 1
	}

	if err := buildFromSpec(spec, outPath); err != nil {
		log.Printf("build failed: %v", err)
		return 1
	}
	return 0
}

func runQuery(args []string) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 64
	}
	rest := fs.Args()
	if len(rest) != 2 {
		fmt.Println("Usage: lingo query <db.lingo> <expr>")
		return 64
	}

	dbPath, expr := rest[0], rest[1]
	nodes, err := runQueryExpr(dbPath, expr)
	if err != nil {
		log.Printf("query failed: %v", err)
		return 70
	}

	for _, id := range nodes {
		fmt.Println(id)
	}
	if len(nodes) == 0 {
		return 1
	}
	return 0
}

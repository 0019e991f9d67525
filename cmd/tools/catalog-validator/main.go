// cmd/tools/catalog-validator/main.go

// catalog-validator checks a catalog registry file against the catalog
// schema and prints a per-workspace summary. Exit code 1 on any problem.
package main

import (
	"flag"
	"fmt"
	"os"

	"content-orchestrator/pkg/registry"
)

func main() {
	path := flag.String("catalog", "configs/catalog.json", "path to the catalog registry file")
	flag.Parse()

	doc, err := registry.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalog-validator: %v\n", err)
		os.Exit(1)
	}

	problems := 0
	for _, entry := range doc.Workspaces {
		fmt.Printf("workspace %s (%s): %d resources, %d templates\n",
			entry.ID, entry.Workspace.Name, len(entry.Resources), len(entry.Templates))

		if len(entry.Templates) == 0 {
			fmt.Printf("  PROBLEM: empty template catalog, every run for this workspace will fail validation\n")
			problems++
		}

		seen := map[string]bool{}
		for _, r := range entry.Resources {
			if seen[r.ID] {
				fmt.Printf("  PROBLEM: duplicate resource id %q\n", r.ID)
				problems++
			}
			seen[r.ID] = true
		}
		seen = map[string]bool{}
		for _, t := range entry.Templates {
			if seen[t.ID] {
				fmt.Printf("  PROBLEM: duplicate template id %q\n", t.ID)
				problems++
			}
			seen[t.ID] = true
			if len(t.SocialNetworks) == 0 {
				fmt.Printf("  warning: template %q lists no social networks\n", t.ID)
			}
		}
	}

	if problems > 0 {
		fmt.Fprintf(os.Stderr, "catalog-validator: %d problem(s) found\n", problems)
		os.Exit(1)
	}
	fmt.Printf("catalog %s: version %s, %d workspace(s), OK\n", *path, doc.Version, len(doc.Workspaces))
}

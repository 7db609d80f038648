package main

import (
	"fmt"
	"os"

	"github.com/marcelsud/zipwhip-bridge/forwards"
)

/* validate-forwards - Standalone CLI tool to validate forwards.yaml
 * Usage: go run cmd/validate-forwards/main.go [forwards.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	// Get forwards file path from args or use default
	forwardsFile := "forwards.yaml"
	if len(os.Args) > 1 {
		forwardsFile = os.Args[1]
	}

	fmt.Printf("Validating forwards file: %s\n", forwardsFile)

	// Create loader and attempt to load rules
	loader := forwards.NewLoader()
	if err := loader.Load(forwardsFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Success - print loaded rules
	rules := loader.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d rule(s):\n", len(rules))

	for i, rule := range rules {
		fmt.Printf("\n%d. Line:   %s\n", i+1, rule.Line)
		fmt.Printf("   Target: %s\n", rule.Target)
	}

	fmt.Printf("\n✓ All rules are valid!\n")
	os.Exit(0)
}

// Command schemaver manages databases for the accounts service.
//
// Usage:
//
//	schemaver status            # Show the detected version and pending versions
//	schemaver detect            # Print the version the database matches
//	schemaver plan              # List the versions a migration would apply
//	schemaver migrate           # Apply pending versions
//	schemaver init              # Create the latest schema in an empty database
//	schemaver diff              # Compare fingerprints with the live tables
//	schemaver watch             # Print status whenever the database changes
//	schemaver versions          # List the chain
//	schemaver rehearse          # Replay the chain in a scratch database
//	schemaver lock [--check]    # Pin or verify released version fingerprints
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hlop3z/schemaver/pkg/schemaver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := schemaver.Run(ctx, Latest, os.Args[1:])
	stop()
	os.Exit(code)
}

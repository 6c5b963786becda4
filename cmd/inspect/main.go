package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/sfomuseum/go-flags/flagset"
	"github.com/sfomuseum/go-ico"
)

func main() {

	fs := flagset.NewFlagSet("inspect")

	flagset.Parse(fs)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, path := range fs.Args() {

		report, err := ico.InspectFile(path)

		if err != nil {
			log.Fatalf("Failed to inspect %s, %v", path, err)
		}

		err = enc.Encode(report)

		if err != nil {
			log.Fatalf("Failed to encode report for %s, %v", path, err)
		}
	}
}

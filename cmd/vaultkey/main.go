package main

import (
	"log"
	"os"

	"github.com/dmitrijs2005/facevault/internal/vaultkey"
)

func main() {
	cfg, err := vaultkey.ParseConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("vaultkey: %v", err)
	}
	if err := vaultkey.Run(cfg, os.Stdout); err != nil {
		log.Fatalf("vaultkey: %v", err)
	}
}

package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"cmcl/internal/demo"
)

func main() {
	section := flag.String("section", demo.All, "Which section to display: "+strings.Join(demo.Sections, ", "))
	flag.Parse()

	if err := demo.Print(os.Stdout, *section); err != nil {
		log.Fatalf("demo: %v", err)
	}
}

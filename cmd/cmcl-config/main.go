package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cmcl/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, cfgPath, err := config.Resolve(config.PathFromArgs(os.Args[1:]))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	config.BindConfigFlag(flag.CommandLine, cfgPath)
	config.BindTrainFlags(flag.CommandLine, &cfg.Train)
	dump := flag.Bool("dump", false, "Print the full training section as YAML")
	save := flag.String("save-config", "", "Write the resolved configuration to this path")
	flag.Parse()

	if err := cfg.Train.Validate(); err != nil {
		log.Fatalf("invalid training configuration: %v", err)
	}
	if err := cfg.Train.CheckClasses(); err != nil {
		log.Printf("warning: %v", err)
	}

	fmt.Println("Training configuration:")
	for _, line := range cfg.Train.Summary() {
		fmt.Println(line)
	}

	if *dump {
		data, err := yaml.Marshal(map[string]config.TrainConfig{"train": cfg.Train})
		if err != nil {
			log.Fatalf("marshal config: %v", err)
		}
		fmt.Print("\n" + string(data))
	}
	if *save != "" {
		if err := config.Save(*save, cfg); err != nil {
			log.Fatalf("save config: %v", err)
		}
		fmt.Printf("\nSaved configuration to %s\n", *save)
	}
}

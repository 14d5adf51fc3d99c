package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron"

	"github.com/bcaldwell/ftsimporter/pkg/config"
	"github.com/bcaldwell/ftsimporter/pkg/ftsimporter"
)

const configEnvVar = "FTS_IMPORTER_CONFIG"

type Runner interface {
	Run() error
	Close() error
}

var runner Runner

func main() {
	singleRun := flag.Bool("single-run", false, "run importer once (disable cron)")
	configFile := flag.String("config", "./config.yml", "configuration file, ignored when "+configEnvVar+" is set")
	secretsFile := flag.String("secrets", "./secrets.ejson", "secrets file")
	help := flag.Bool("help", false, "show command help")

	flag.Parse()

	if *help {
		fmt.Println("fts requirements and funding importer")
		fmt.Println("ftsimporter [options] task")
		fmt.Println("tasks: fts")
		flag.PrintDefaults()
		return
	}

	err := config.ReadConfig(configEnvVar, *configFile, *secretsFile)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		fmt.Println("No task passed in")
		return
	}

	switch flag.Arg(0) {
	case "fts":
		runner, err = ftsimporter.NewImportFTSRunner(context.Background())
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	default:
		fmt.Printf("Unknown task %s\n", flag.Arg(0))
		return
	}
	defer runner.Close()

	run()

	if *singleRun {
		return
	}

	c := cron.New()
	err = c.AddFunc(config.CurrentConfig().UpdateFrequency, run)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	c.Start()

	select {}
}

func run() {
	fmt.Println(time.Now().Format(time.RFC850))
	err := runner.Run()
	if err != nil {
		fmt.Println(err)
	}
}

package main

import (
	"flag"
	"log"

	"deepboot/internal/app"
	"deepboot/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	offline := flag.String("offline", "", "Review a backup snapshot instead of the live system")
	flag.Parse()

	controller, err := app.New(app.Options{ConfigPath: *configPath, OfflineSnapshot: *offline})
	if err != nil {
		log.Fatalf("deepboot-tui: %v", err)
	}
	defer controller.Close()

	cfg := controller.Config()
	opts := tui.Options{
		Timeout:      cfg.ScanTimeout,
		ExportFormat: cfg.AutoExport,
		Offline:      controller.Offline(),
	}
	if err := tui.Run(controller, opts); err != nil {
		log.Fatalf("tui exited with error: %v", err)
	}
}

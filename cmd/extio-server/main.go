// Command extio-server is the process that hosts the vendor ExtIO
// library and exposes it over TCP, per spec.md §6's server CLI.
//
// Grounded on go-elect/main.go for the log.SetFlags + signal.Notify +
// block-until-signal shutdown idiom, and on
// longhorn-longhorn-engine/app's cli.App/cli.Command wiring for the
// urfave/cli surface.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/Meander-Cloud/extio-over-net/internal/acceptor"
	"github.com/Meander-Cloud/extio-over-net/internal/config"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	app := cli.NewApp()
	app.Name = "extio-server"
	app.Usage = "host a vendor ExtIO library and expose it over TCP"
	app.Flags = config.ServerFlags()
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Printf("extio-server: fatal: %s", err.Error())
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	sc, err := config.ServerConfigFromContext(c)
	if err != nil {
		return err
	}

	logPrefix := fmt.Sprintf("extio-server[:%d]", sc.ListeningPort)
	log.Printf("%s: starting, extio_path=%s, log_level=%d", logPrefix, sc.ExtIOPath, sc.LogLevel)

	a, err := acceptor.New(logPrefix, "0.0.0.0", sc.ListeningPort, sc.ExtIOPath)
	if err != nil {
		return err
	}

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigch
	log.Printf("%s: received signal %s, shutting down", logPrefix, sig.String())

	a.Stop()

	log.Printf("%s: shutdown complete", logPrefix)
	return nil
}

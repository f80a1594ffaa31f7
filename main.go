package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/hotsearch-web/internal/cli"
	"github.com/mrlokans/hotsearch-web/internal/config"
	"github.com/mrlokans/hotsearch-web/internal/entrypoint"
	"github.com/mrlokans/hotsearch-web/internal/logger"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cfg := config.NewConfig()
	logger.Init(cfg.Global.Environment, cfg.Log.Level)

	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd cli.Command
	switch name {
	case "login":
		cmd = cli.NewLoginCommand()
	case "register":
		cmd = cli.NewRegisterCommand()
	case "whoami":
		cmd = cli.NewWhoamiCommand()
	case "logout":
		cmd = cli.NewLogoutCommand()
	case "gitee-login":
		cmd = cli.NewGiteeLoginCommand()
	case "token":
		cmd = cli.NewTokenCommand()
	case "version":
		fmt.Printf("%s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve        Start the frontend server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  login        Log in with username and password\n")
	fmt.Fprintf(os.Stderr, "  register     Create an account\n")
	fmt.Fprintf(os.Stderr, "  whoami       Show the logged-in user\n")
	fmt.Fprintf(os.Stderr, "  logout       Forget the stored session\n")
	fmt.Fprintf(os.Stderr, "  gitee-login  Log in through Gitee\n")
	fmt.Fprintf(os.Stderr, "  token        Show the stored access token\n")
	fmt.Fprintf(os.Stderr, "  version      Print the build version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}

// Package main implements the main entry point of a CHIP-8 emulator
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/chip8emu/internal/cli"
	"github.com/retroenv/chip8emu/internal/config"
	"github.com/retroenv/chip8emu/internal/emulator"
	"github.com/retroenv/chip8emu/internal/frontend"
	"github.com/retroenv/chip8emu/internal/frontend/terminal"
	"github.com/retroenv/chip8emu/internal/frontend/window"
	"github.com/retroenv/chip8emu/internal/loader"
	"github.com/retroenv/chip8emu/internal/machine"
	"github.com/retroenv/chip8emu/internal/options"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			printBanner(opts)
			if usageErr.Error() != "" {
				logger.Error(usageErr.Error())
			}
			usageErr.ShowUsage()
		} else {
			logger.Error(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	printBanner(opts)

	if err := run(ctx, logger, opts); err != nil {
		logger.Error("Emulation failed", log.Err(err))
		if machine.IsProgrammingError(err) {
			// programming errors are caused by the emulator, not the ROM
			fmt.Fprintln(os.Stderr, "This is a programming oversight, please report it together with the ROM file.")
		}
		os.Exit(1)
	}
}

func printBanner(opts options.Program) {
	if opts.Quiet {
		return
	}
	fmt.Println("[----------------------------]")
	fmt.Println("[ chip8emu - CHIP-8 emulator ]")
	fmt.Printf("[----------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

func run(ctx context.Context, logger *log.Logger, opts options.Program) error {
	image, err := loader.New().Load(opts.Input)
	if err != nil {
		return err
	}
	logger.Debug("ROM loaded", log.String("file", opts.Input), log.Int("size", len(image)))

	fe, err := createFrontend(logger, opts.Frontend)
	if err != nil {
		return err
	}
	defer func() {
		if err := fe.Close(); err != nil {
			logger.Error("Closing frontend failed", log.Err(err))
		}
	}()

	m := machine.New(fe)
	if err := m.Load(image); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	emu := emulator.New(logger, m, fe)
	if err := emu.Run(ctx); err != nil {
		return err
	}
	return nil
}

func createFrontend(logger *log.Logger, name string) (frontend.Frontend, error) {
	switch name {
	case options.FrontendTerminal:
		fe, err := terminal.New(logger)
		if err != nil {
			return nil, fmt.Errorf("creating terminal frontend: %w", err)
		}
		return fe, nil

	default:
		fe, err := window.New(logger, "chip8emu")
		if err != nil {
			return nil, fmt.Errorf("creating window frontend: %w", err)
		}
		return fe, nil
	}
}

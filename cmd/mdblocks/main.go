package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
)

var version = "dev"

func main() {
	// UTF-8 fallback keeps non-ASCII outlines readable on sparse terminfo entries.
	tcell.SetEncodingFallback(tcell.EncodingFallbackUTF8)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

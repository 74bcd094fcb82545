// Command tracevisd serves the trace processing API: loading recordings,
// normalizing and smoothing traces, and rendering plots.
package main

import (
	"fmt"
	"os"

	"tracevis/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		application.Logger.Error("application exited with error", "error", err)
		os.Exit(1)
	}
}

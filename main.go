package main

import (
	"github.com/ColonelBlimp/cwfft/cmd"
	"github.com/ColonelBlimp/cwfft/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}

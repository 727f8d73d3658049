package main

import (
	"github.com/ColonelBlimp/gtsdetect/cmd"
	"github.com/ColonelBlimp/gtsdetect/internal/logging"
	"github.com/ColonelBlimp/gtsdetect/internal/recovery"
)

func main() {
	log := logging.New(false)
	defer recovery.HandlePanic(log)
	cmd.Execute()
}

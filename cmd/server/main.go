package main

import (
	"log/slog"
	"os"

	"expertgate/internal/app"
)

// @title                       ExpertGate API
// @version                     1.0
// @description                 Password reset, expert notifications and site content for ExpertGate.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := app.Run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

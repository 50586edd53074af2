package cmd

import (
	"github.com/vocal-agents/vocal-stack/cli/internal/busclient"
)

// Indirection points so command tests can substitute a fake bus.
var (
	busclientConnect = busclient.Connect
	chatExchange     = busclient.Chat
)

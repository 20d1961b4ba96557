package globals

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/evfalk/refund-helper/claims/api"
	"github.com/evfalk/refund-helper/profile"
)

var (
	Logger = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.TimeFormat = time.RFC3339
	})).With().Timestamp().Logger()

	// Store and Client are initialised by the root command before any
	// sub-command runs.
	Store  profile.Store
	Client *api.Client
)

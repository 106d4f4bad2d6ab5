package main

import (
	"github.com/bloodconnect/dispatch/pkg/dispatch"
	"github.com/bloodconnect/dispatch/pkg/email"
	"github.com/bloodconnect/dispatch/pkg/httpserver"
	"github.com/bloodconnect/dispatch/pkg/pg"
)

// workerConfig is everything the run command reads from the environment.
type workerConfig struct {
	PG       pg.Config
	Email    email.Config
	Dispatch dispatch.Config
	HTTP     httpserver.Config
}

// Validate implements config.Validator; nested structs are not validated by
// the loader on their own.
func (c workerConfig) Validate() error {
	if err := c.Email.Validate(); err != nil {
		return err
	}
	return c.Dispatch.Validate()
}

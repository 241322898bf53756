package bootstrap

import (
	"github.com/kbukum/vidscribe/config"
)

// Config constrains the configuration type of an App. Embedding
// config.ServiceConfig by value satisfies it through promoted methods, as
// app.Config does.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}

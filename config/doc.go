// Package config loads service configuration from a YAML file, optional .env
// files and environment variables.
//
// Files are searched in the conventional locations (cmd/<service>/config.yml,
// config/config.yml, ./config.yml). Environment variables override file values;
// VIDSCRIBE_PIPELINE_WORKERS, for example, is bound to pipeline.workers when
// the loader runs with WithEnvPrefix("VIDSCRIBE").
//
//	var cfg app.Config
//	err := config.LoadConfig("vidscribe", &cfg, config.WithEnvPrefix("VIDSCRIBE"))
package config

// Package logger provides structured logging for vidscribe using zerolog.
//
// Loggers carry a service tag and optional component scope. Fields are passed
// as maps so call sites stay free of zerolog builder chains.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.WithComponent("pipeline")
//	log.Info("run started", logger.Fields(logger.FieldRunID, id))
package logger

// Package bootstrap runs a service's lifecycle: typed configuration,
// component registration, startup and shutdown hooks, signal handling and
// the startup summary.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(serverComponent)
//	app.OnStart(sweepWorkspace)
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Components start in registration order and stop in reverse order.
// RunTask runs a finite task with the same lifecycle instead of waiting for
// a signal.
package bootstrap

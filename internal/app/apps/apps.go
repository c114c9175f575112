// Package apps assembles the runnable morris applications.
package apps

import "context"

// App is a runnable application.
type App interface {
	Run(ctx context.Context, args []string) error
}

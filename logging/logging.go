package logging

import "go.uber.org/zap"

// New returns the global sugared logger scoped to a component name. config.New
// must have replaced the globals first for the configured preset to apply.
func New(component string) *zap.SugaredLogger {
	return zap.S().Named(component)
}

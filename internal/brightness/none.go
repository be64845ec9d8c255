package brightness

import (
	"context"

	"github.com/sirupsen/logrus"
)

// None logs the requested level and changes nothing.
type None struct {
	log *logrus.Entry
}

// NewNone creates a dry-run backend.
func NewNone(log *logrus.Entry) *None {
	return &None{log: log}
}

// Set logs percent at debug level.
func (n *None) Set(ctx context.Context, percent int) error {
	if n.log != nil {
		n.log.WithField("percent", percent).Debug("Brightness (dry run)")
	}
	return nil
}

// Name returns "none".
func (n *None) Name() string { return "none" }

package data

import (
	"context"
	"time"
)

// getContext bounds short maintenance statements.
func getContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

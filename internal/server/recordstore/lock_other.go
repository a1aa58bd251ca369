//go:build !unix

package recordstore

import "context"

// lockFile is a no-op where flock is unavailable; the in-process collection
// lock still serializes access within one server.
func lockFile(ctx context.Context, _ string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return func() {}, nil
}

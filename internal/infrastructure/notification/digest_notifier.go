// Package notification delivers best-effort event digests to the local
// filesystem. It stands in for the transactional email collaborator: one
// append-only digest file per day, one line per event, consumed by
// whatever ships the digests out. Delivery failures are reported to the
// caller, which logs and continues; they never roll back a mutation.
package notification

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/anchorworks/sprintflow/internal/application/port/output"
)

// DigestNotifier appends notification events to daily digest files
type DigestNotifier struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// NewDigestNotifier creates a notifier writing under dir
func NewDigestNotifier(fs afero.Fs, dir string) *DigestNotifier {
	return &DigestNotifier{fs: fs, dir: dir, now: time.Now}
}

// Notify appends one line for the event to today's digest file
func (n *DigestNotifier) Notify(event output.Event) error {
	if err := n.fs.MkdirAll(n.dir, 0o755); err != nil {
		return fmt.Errorf("create digest dir failed: %w", err)
	}

	ts := n.now()
	path := filepath.Join(n.dir, ts.Format("2006-01-02")+".digest")

	f, err := n.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open digest file failed: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		ts.Format(time.RFC3339), event.Type, event.Actor, event.Recipient,
		event.TaskKey, event.Sprint, event.Message)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write digest entry failed: %w", err)
	}

	return nil
}

package comment

import (
	"errors"
	"regexp"
	"time"

	"github.com/anchorworks/sprintflow/internal/domain/model"
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.-]+)`)

// Comment is a note attached to a task. Mentions are extracted once at
// creation time and stored alongside the body so copies keep their
// mention associations.
type Comment struct {
	id        string
	taskID    model.TaskID
	author    string
	body      string
	mentions  []string
	createdAt model.Timestamp
}

// NewComment creates a comment, extracting @mentions from the body
func NewComment(taskID model.TaskID, author, body string) (*Comment, error) {
	if body == "" {
		return nil, errors.New("comment body cannot be empty")
	}
	if author == "" {
		return nil, errors.New("comment author cannot be empty")
	}

	return &Comment{
		id:        model.NewULID(),
		taskID:    taskID,
		author:    author,
		body:      body,
		mentions:  ExtractMentions(body),
		createdAt: model.NewTimestamp(),
	}, nil
}

// ReconstructComment reconstructs a comment from stored data
func ReconstructComment(id string, taskID model.TaskID, author, body string, mentions []string, createdAt time.Time) *Comment {
	return &Comment{
		id:        id,
		taskID:    taskID,
		author:    author,
		body:      body,
		mentions:  mentions,
		createdAt: model.NewTimestampFromTime(createdAt),
	}
}

// CopyTo duplicates the comment onto another task, preserving the author
// and mention list. The copy gets a fresh id and timestamp.
func (c *Comment) CopyTo(taskID model.TaskID) *Comment {
	mentions := make([]string, len(c.mentions))
	copy(mentions, c.mentions)
	return &Comment{
		id:        model.NewULID(),
		taskID:    taskID,
		author:    c.author,
		body:      c.body,
		mentions:  mentions,
		createdAt: model.NewTimestamp(),
	}
}

// ID returns the comment ID
func (c *Comment) ID() string {
	return c.id
}

// TaskID returns the owning task ID
func (c *Comment) TaskID() model.TaskID {
	return c.taskID
}

// Author returns the comment author's name
func (c *Comment) Author() string {
	return c.author
}

// Body returns the comment body
func (c *Comment) Body() string {
	return c.body
}

// Mentions returns the names mentioned in the body
func (c *Comment) Mentions() []string {
	return c.mentions
}

// CreatedAt returns the creation timestamp
func (c *Comment) CreatedAt() model.Timestamp {
	return c.createdAt
}

// ExtractMentions returns the distinct @names in order of first occurrence
func ExtractMentions(body string) []string {
	matches := mentionPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool)
	var mentions []string
	for _, m := range matches {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			mentions = append(mentions, name)
		}
	}
	return mentions
}

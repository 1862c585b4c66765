package posting

import (
	"context"
	"fmt"
	"log/slog"
)

// ReplyToComment posts a single paced reply under an existing comment and
// marks the stored comment as replied with the resulting permalink.
func (o *Orchestrator) ReplyToComment(ctx context.Context, parentCommentID, content string, commentDBID int64) error {
	if content == "" {
		return fmt.Errorf("empty reply content for comment %s", parentCommentID)
	}
	slog.Info("attempting to reply to comment", "comment_id", parentCommentID)

	if err := wait(ctx, jitter(o.Config.ReplyDelayMin, o.Config.ReplyDelayMax)); err != nil {
		return err
	}

	permalink, err := o.Platform.Reply(ctx, "t1_"+parentCommentID, content)
	if err != nil {
		return fmt.Errorf("reply to comment %s: %w", parentCommentID, err)
	}
	slog.Info("successfully posted reply", "comment_id", parentCommentID, "permalink", permalink)

	if err := o.Store.MarkCommentReplied(context.WithoutCancel(ctx), commentDBID, permalink); err != nil {
		return fmt.Errorf("mark comment %d replied: %w", commentDBID, err)
	}
	return nil
}

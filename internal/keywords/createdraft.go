package keywords

import (
	"context"
	"fmt"

	"github.com/generalbots/botengine/domain/script"
	"github.com/generalbots/botengine/infrastructure/errors"
	"github.com/generalbots/botengine/internal/capability"
)

// draftSeparator is the fixed horizontal rule CREATE DRAFT inserts between a
// reply and the previous message it is replying to (§4.3).
const draftSeparator = "\n\n"

// createDraft implements CREATE DRAFT(to, subject, reply_text): looks up the
// latest message previously sent to to, and saves a draft whose body is
// reply_text alone, or reply_text + draftSeparator + the previous body when
// a prior message exists and its body is non-empty (§4.3). CREATE DRAFT
// always saves a new draft; it is not idempotent by design (§4.4, §9).
func createDraft(caps *capability.Set) func(ctx context.Context, args []script.Value) (script.Value, error) {
	return func(ctx context.Context, args []script.Value) (script.Value, error) {
		if len(args) != 3 {
			return script.Unit, fmt.Errorf("CREATE DRAFT expects 3 arguments, got %d", len(args))
		}
		if caps == nil || caps.Mail == nil {
			return script.Unit, errors.BackendUnavailable("mail")
		}
		to, subject, replyText := args[0].AsString(), args[1].AsString(), args[2].AsString()

		recent, err := caps.Mail.ListRecentSentTo(ctx, to, 1)
		if err != nil {
			return script.Unit, errors.ExternalAPIError("mail", err)
		}
		body := replyText
		if len(recent) > 0 && recent[0].Body != "" {
			body = replyText + draftSeparator + recent[0].Body
		}
		if err := caps.Mail.SaveDraft(ctx, to, subject, body); err != nil {
			return script.Unit, errors.ExternalAPIError("mail", err)
		}
		return script.String(fmt.Sprintf("draft saved to %s", to)), nil
	}
}

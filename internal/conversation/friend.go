package conversation

import (
	"context"
	"strconv"
	"strings"

	"github.com/Proton-105/cashback-bot/internal/state"
)

func (e *Engine) startFriend(ctx context.Context, userID int64) (Response, error) {
	conv := &state.Conversation{UserID: userID, Step: state.StepAwaitingFriendID}
	if err := e.save(ctx, state.StepIdle, conv); err != nil {
		return Response{}, err
	}

	return Response{
		Text:    e.t.T("friend.prompt"),
		Choices: [][]Choice{{e.exitChoice()}},
	}, nil
}

// friendID handles free text while waiting for a friend id. Invalid input
// keeps the wizard open so the user can retry.
func (e *Engine) friendID(ctx context.Context, conv *state.Conversation, text string) (Response, error) {
	friendID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return Response{Text: e.t.T("friend.bad_format"), Choices: [][]Choice{{e.exitChoice()}}}, nil
	}

	if friendID == conv.UserID {
		return Response{Text: e.t.T("friend.self"), Choices: [][]Choice{{e.exitChoice()}}}, nil
	}

	if err := e.store.SetFriend(ctx, conv.UserID, friendID); err != nil {
		return Response{}, e.fail(ctx, conv.UserID, conv.Step, "set friend", err)
	}

	resp, err := e.finish(ctx, conv.UserID, conv.Step, e.t.T("friend.added"))
	resp.MainMenu = err == nil
	return resp, err
}

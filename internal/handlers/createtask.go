package handlers

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/monday-agents/gateway/internal/extract"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/monday"
	"github.com/monday-agents/gateway/internal/preview"
	"github.com/monday-agents/gateway/internal/render"
)

const createTaskHistoryLimit = 20

// CreateTask fetches recent channel context, runs the extractor LLM,
// and posts an interactive preview rather than creating anything
// directly.
func CreateTask(ctx context.Context, ic gateway.IntentContext) {
	services := ic.Services

	lines, err := fetchRecentLines(ctx, services, ic.ChannelID, createTaskHistoryLimit)
	if err != nil {
		slog.Warn("create-task: failed to fetch channel history", "error", err)
	}
	if !looksImperative(ic.MessageText) {
		name := services.UserDir.Resolve(ctx, ic.UserID)
		lines = append(lines, name+": "+ic.MessageText)
	}
	transcript := strings.Join(lines, "\n")

	var boards []monday.BoardRef
	var users []render.UserRef
	var task render.ExtractedTask
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		boards, err = services.Boards.List(gctx)
		return err
	})
	g.Go(func() error {
		users = services.UserDir.List(gctx)
		return nil
	})
	g.Go(func() error {
		task = extract.Task(gctx, services.LLM, transcript)
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Warn("create-task: failed to load board list", "error", err)
	}

	renderBoards := make([]render.Board, len(boards))
	for i, b := range boards {
		renderBoards[i] = render.Board{ID: b.ID, Name: b.Name}
	}

	_, err = preview.PostTaskPreview(ctx, services.Slack, preview.TaskPreviewPayload{
		Task:      task,
		ChannelID: ic.ChannelID,
		ThreadTs:  ic.ThreadTs,
		UserID:    ic.UserID,
		Boards:    renderBoards,
		Users:     users,
	})
	if err != nil {
		slog.Error("create-task: failed to post preview", "error", err)
	}
}

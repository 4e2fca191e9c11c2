// Package agentclients runs a bounded tool-use loop against the LLM
// for the calendar and drive intents: each turn either returns
// free text or asks for tool calls, which are executed and fed back in
// as the next turn's messages.
package agentclients

import (
	"context"
	"fmt"
	"strings"

	"github.com/monday-agents/gateway/internal/llm"
)

const maxIterations = 5

const iterationCapMessage = "I wasn't able to finish that within a few tries. Try rephrasing your request or asking again in a moment."

// Executor runs a single tool call and returns its result as text fed
// back to the model, or an error described to the model as a failure
// (never returned to the caller — a bad tool call is the model's
// problem to work around within the loop, not the gateway's).
type Executor func(ctx context.Context, name string, input map[string]any) (string, error)

// Run drives the bounded tool-use loop: call the
// LLM, and if it asks for tools, execute them in order and continue;
// otherwise return its text. Gives up after maxIterations turns.
func Run(ctx context.Context, llmClient *llm.Client, systemPrompt string, tools []llm.ToolDef, userText string, execute Executor) string {
	messages := []llm.Message{{Role: "user", Content: userText}}

	for i := 0; i < maxIterations; i++ {
		reply, err := llmClient.Complete(ctx, systemPrompt, messages, tools)
		if err != nil {
			return iterationCapMessage
		}
		if len(reply.ToolUses) == 0 {
			return reply.Text
		}

		messages = append(messages, llm.Message{Role: "assistant", Content: describeToolCalls(reply.ToolUses)})
		for _, call := range reply.ToolUses {
			result, err := execute(ctx, call.Name, call.Input)
			if err != nil {
				result = fmt.Sprintf("error: %v", err)
			}
			messages = append(messages, llm.Message{Role: "user", Content: fmt.Sprintf("Result of %s: %s", call.Name, result)})
		}
	}
	return iterationCapMessage
}

func describeToolCalls(calls []llm.ToolUse) string {
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return fmt.Sprintf("Calling %s.", strings.Join(names, ", "))
}

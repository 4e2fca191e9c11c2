package agentclients

import (
	"context"
	"fmt"

	"github.com/monday-agents/gateway/internal/googleapi"
	"github.com/monday-agents/gateway/internal/llm"
)

// DriveSystemPrompt is the tool-use loop's system prompt for the drive
// intent.
const DriveSystemPrompt = `You help a Slack user manage their Google Drive files. You have tools
to list, read, create, update, and delete files. Once you have answered the user's
request, reply with plain text summarizing what you did or found — do not call any more tools.`

// DriveTools is the ≤5-tool schema for the drive micro-agent.
var DriveTools = []llm.ToolDef{
	{
		Name:        "list_files",
		Description: "List files whose name contains the given text.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"name_contains": map[string]any{"type": "string"}},
			"required":   []string{"name_contains"},
		},
	},
	{
		Name:        "read_file",
		Description: "Download a file's text content by id.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"file_id": map[string]any{"type": "string"}},
			"required":   []string{"file_id"},
		},
	},
	{
		Name:        "create_file",
		Description: "Create a new empty file with the given name.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"name": map[string]any{"type": "string"}},
			"required":   []string{"name"},
		},
	},
	{
		Name:        "update_file",
		Description: "Rename a file.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_id":  map[string]any{"type": "string"},
				"new_name": map[string]any{"type": "string"},
			},
			"required": []string{"file_id", "new_name"},
		},
	},
	{
		Name:        "delete_file",
		Description: "Delete a file by id.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"file_id": map[string]any{"type": "string"}},
			"required":   []string{"file_id"},
		},
	},
}

// DriveExecutor returns an Executor that runs DriveTools calls against
// the Drive API on behalf of accessToken's owner.
func DriveExecutor(accessToken string) Executor {
	return func(ctx context.Context, name string, input map[string]any) (string, error) {
		switch name {
		case "list_files":
			nameContains, _ := input["name_contains"].(string)
			files, err := googleapi.ListFiles(ctx, accessToken, nameContains)
			if err != nil {
				return "", err
			}
			return summarizeFiles(files), nil
		case "read_file":
			fileID, _ := input["file_id"].(string)
			text, err := googleapi.DownloadFileText(ctx, accessToken, fileID)
			if err != nil {
				return "", err
			}
			return text, nil
		case "create_file":
			name, _ := input["name"].(string)
			file, err := googleapi.CreateFile(ctx, accessToken, name)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("created file %s (%s)", file.ID, file.Name), nil
		case "update_file":
			fileID, _ := input["file_id"].(string)
			newName, _ := input["new_name"].(string)
			file, err := googleapi.UpdateFile(ctx, accessToken, fileID, newName)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("renamed file %s to %s", file.ID, file.Name), nil
		case "delete_file":
			fileID, _ := input["file_id"].(string)
			if err := googleapi.DeleteFile(ctx, accessToken, fileID); err != nil {
				return "", err
			}
			return fmt.Sprintf("deleted file %s", fileID), nil
		default:
			return "", fmt.Errorf("unknown tool %q", name)
		}
	}
}

func summarizeFiles(files []googleapi.File) string {
	if len(files) == 0 {
		return "no files found"
	}
	summary := ""
	for i, f := range files {
		if i > 0 {
			summary += "; "
		}
		summary += fmt.Sprintf("%s (id=%s)", f.Name, f.ID)
	}
	return summary
}

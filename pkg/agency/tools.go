package agency

import (
	"fmt"

	"github.com/harun/agencycode/pkg/agent"
)

const handoffPrefix = "transfer_to_"

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

// declaredTools are offered to the model. Execution is not part of this build;
// calls receive a "not available" result.
var declaredTools = []agent.ToolSpec{
	{
		Name:        "Read",
		Description: "Read a file from the local filesystem.",
		Properties: map[string]interface{}{
			"file_path": stringProp("Absolute path of the file to read"),
			"offset":    map[string]interface{}{"type": "integer", "description": "Line to start reading from"},
			"limit":     map[string]interface{}{"type": "integer", "description": "Number of lines to read"},
		},
		Required: []string{"file_path"},
	},
	{
		Name:        "Bash",
		Description: "Run a shell command in the repository.",
		Properties: map[string]interface{}{
			"command": stringProp("The command to execute"),
			"timeout": map[string]interface{}{"type": "integer", "description": "Timeout in milliseconds"},
		},
		Required: []string{"command"},
	},
	{
		Name:        "LS",
		Description: "List files and directories at a path.",
		Properties: map[string]interface{}{
			"path": stringProp("Absolute path of the directory to list"),
		},
		Required: []string{"path"},
	},
	{
		Name:        "Grep",
		Description: "Search file contents with a regular expression.",
		Properties: map[string]interface{}{
			"pattern": stringProp("Regular expression to search for"),
			"path":    stringProp("File or directory to search"),
			"glob":    stringProp("Glob filter for file names"),
		},
		Required: []string{"pattern"},
	},
	{
		Name:        "Edit",
		Description: "Replace an exact string in a file.",
		Properties: map[string]interface{}{
			"file_path":  stringProp("Absolute path of the file to modify"),
			"old_string": stringProp("Text to replace"),
			"new_string": stringProp("Replacement text"),
		},
		Required: []string{"file_path", "old_string", "new_string"},
	},
	{
		Name:        "Write",
		Description: "Write a file, replacing any existing content.",
		Properties: map[string]interface{}{
			"file_path": stringProp("Absolute path of the file to write"),
			"content":   stringProp("File content"),
		},
		Required: []string{"file_path", "content"},
	},
	{
		Name:        "TodoWrite",
		Description: "Replace the task list for the current session.",
		Properties: map[string]interface{}{
			"todos": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"content": stringProp("Task description"),
						"status":  map[string]interface{}{"type": "string", "enum": []string{"pending", "in_progress", "completed"}},
					},
					"required": []string{"content", "status"},
				},
			},
		},
		Required: []string{"todos"},
	},
}

// ToolNames lists the names of the declared tools
func ToolNames() []string {
	names := make([]string, 0, len(declaredTools))
	for _, tool := range declaredTools {
		names = append(names, tool.Name)
	}
	return names
}

func selectTools(names []string) ([]agent.ToolSpec, error) {
	if len(names) == 0 {
		return append([]agent.ToolSpec(nil), declaredTools...), nil
	}

	tools := make([]agent.ToolSpec, 0, len(names))
	for _, name := range names {
		spec, ok := findTool(name)
		if !ok {
			return nil, fmt.Errorf("unknown tool: %s", name)
		}
		tools = append(tools, spec)
	}
	return tools, nil
}

func findTool(name string) (agent.ToolSpec, bool) {
	for _, tool := range declaredTools {
		if tool.Name == name {
			return tool, true
		}
	}
	return agent.ToolSpec{}, false
}

func handoffTool(to *agent.Agent) agent.ToolSpec {
	return agent.ToolSpec{
		Name:        handoffPrefix + to.Name,
		Description: fmt.Sprintf("Transfer the conversation to %s. %s", to.Name, to.Description),
		Properties: map[string]interface{}{
			"message": stringProp("Context for the receiving agent"),
		},
	}
}

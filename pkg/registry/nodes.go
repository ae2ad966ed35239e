package registry

import "github.com/dukex/operion-canvas/pkg/models"

func outputsOnly() *models.Handles {
	return &models.Handles{Outputs: []string{models.DefaultOutputHandle}}
}

func inputsOnly() *models.Handles {
	return &models.Handles{Inputs: []string{models.DefaultInputHandle}}
}

// DefaultNodeTypes is the built-in palette.
func DefaultNodeTypes() []models.NodeType {
	return []models.NodeType{
		// Triggers start a flow and accept no input.
		{Name: "manual_trigger", DisplayName: "Manual Trigger", Category: models.CategoryTrigger, Handles: outputsOnly()},
		{Name: "webhook_trigger", DisplayName: "Webhook", Category: models.CategoryTrigger, Handles: outputsOnly()},
		{Name: "schedule_trigger", DisplayName: "Schedule", Category: models.CategoryTrigger, Handles: outputsOnly()},

		{Name: "database_query", DisplayName: "Database Query", Category: models.CategoryData},
		{Name: "http_request", DisplayName: "HTTP Request", Category: models.CategoryData},

		{Name: "data_transform", DisplayName: "Transform Data", Category: models.CategoryTransform},
		{Name: "json_parser", DisplayName: "JSON Parser", Category: models.CategoryTransform},

		{
			Name:        "condition",
			DisplayName: "Condition",
			Category:    models.CategoryCondition,
			Handles:     &models.Handles{Inputs: []string{"input"}, Outputs: []string{"true", "false"}},
		},
		{Name: "switch", DisplayName: "Switch", Category: models.CategoryCondition},

		{Name: "email_send", DisplayName: "Send Email", Category: models.CategoryAction},
		{Name: "delay", DisplayName: "Delay", Category: models.CategoryAction},
		{Name: "log", DisplayName: "Log", Category: models.CategoryAction},

		{Name: "database_save", DisplayName: "Save to Database", Category: models.CategoryOutput, Handles: inputsOnly()},
		{Name: "file_export", DisplayName: "Export File", Category: models.CategoryOutput, Handles: inputsOnly()},
	}
}

// RegisterDefaultNodeTypes registers the built-in palette, skipping names already present.
func (r *Registry) RegisterDefaultNodeTypes() {
	for _, nodeType := range DefaultNodeTypes() {
		if _, exists := r.NodeType(nodeType.Name); exists {
			continue
		}

		err := r.Register(nodeType)
		if err != nil {
			r.logger.Warn("Failed to register built-in node type", "type", nodeType.Name, "error", err)
		}
	}
}

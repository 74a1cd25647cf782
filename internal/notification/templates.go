package notification

import (
	"fmt"
	"strings"

	"technician-dispatch/internal/models"
)

var templates = map[string]models.NotificationTemplate{
	models.NotificationTypeJobAssigned: {
		Type:     models.NotificationTypeJobAssigned,
		Title:    "New maintenance job nearby",
		Subject:  "New maintenance job {{distance}} km from you",
		Body:     "A new maintenance request ({{request_title}}) is {{distance}} km from your location. Job type: {{job_type}}. Reference: {{request_id}}.",
		HTMLBody: "<p>A new maintenance request <strong>{{request_title}}</strong> is <strong>{{distance}} km</strong> from your location.</p><p>Job type: {{job_type}}<br>Reference: {{request_id}}</p>",
		SMS:      "New job {{distance}} km away: {{request_title}} (ref {{request_id}})",
	},
}

func templateFor(notificationType string) (models.NotificationTemplate, error) {
	t, ok := templates[notificationType]
	if !ok {
		return models.NotificationTemplate{}, fmt.Errorf("no template for notification type %q", notificationType)
	}
	return t, nil
}

// render replaces {{key}} placeholders and drops any left unresolved.
func render(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

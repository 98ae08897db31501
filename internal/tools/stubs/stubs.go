// Package stubs provides placeholder Definitions for tool categories spec
// §6.2 names but that need a real account-linked provider (email, calendar,
// Workspace docs, image/video generation, Twitter) before they can do real
// work. Each stub's Probe reports false, so SchemasForLLM omits it, until
// the caller rebinds it with a working Handler/Probe pair once a provider
// is configured.
package stubs

import (
	"context"
	"encoding/json"

	"coco/internal/cocoerr"
	"coco/internal/tools"
)

func unconfigured(name string) tools.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		return nil, cocoerr.New(cocoerr.ExternalFailure, name+" has no provider configured")
	}
}

func alwaysUnavailable() bool { return false }

func stub(name, category, description string, schema map[string]any) tools.Definition {
	return tools.Definition{
		Name:        name,
		Category:    category,
		Description: description,
		TimeoutMS:   10000,
		InputSchema: schema,
		Handler:     unconfigured(name),
		Probe:       alwaysUnavailable,
	}
}

func textSchema(fields map[string]string, required []string) map[string]any {
	props := make(map[string]any, len(fields))
	for k, desc := range fields {
		props[k] = map[string]any{"type": "string", "description": desc}
	}
	return map[string]any{"type": "object", "properties": props, "required": required}
}

// Email returns the send_email / check_emails / read_email_content stubs.
func Email() []tools.Definition {
	return []tools.Definition{
		stub("send_email", "email", "Send an email.", textSchema(map[string]string{
			"to": "Recipient address", "subject": "Subject line", "body": "Message body",
		}, []string{"to", "subject", "body"})),
		stub("check_emails", "email", "List recent emails in the inbox.", textSchema(map[string]string{
			"query": "Optional search filter",
		}, nil)),
		stub("read_email_content", "email", "Read the full content of one email by ID.", textSchema(map[string]string{
			"message_id": "Email message ID",
		}, []string{"message_id"})),
	}
}

// Calendar returns the list_events / create_event stubs.
func Calendar() []tools.Definition {
	return []tools.Definition{
		stub("list_events", "calendar", "List upcoming calendar events.", textSchema(map[string]string{
			"from": "RFC3339 range start", "to": "RFC3339 range end",
		}, nil)),
		stub("create_event", "calendar", "Create a calendar event.", textSchema(map[string]string{
			"title": "Event title", "start": "RFC3339 start time", "end": "RFC3339 end time",
		}, []string{"title", "start", "end"})),
	}
}

// Workspace returns create/read/update stubs for docs, sheets, and drive.
func Workspace() []tools.Definition {
	var out []tools.Definition
	for _, kind := range []string{"docs", "sheets", "drive"} {
		out = append(out,
			stub(kind+"_create", "workspace", "Create a new "+kind+" item.", textSchema(map[string]string{
				"title": "Item title", "content": "Initial content",
			}, []string{"title"})),
			stub(kind+"_read", "workspace", "Read a "+kind+" item by ID.", textSchema(map[string]string{
				"id": kind + " item ID",
			}, []string{"id"})),
			stub(kind+"_update", "workspace", "Update a "+kind+" item by ID.", textSchema(map[string]string{
				"id": kind + " item ID", "content": "Replacement content",
			}, []string{"id", "content"})),
		)
	}
	return out
}

// Media returns the image/video generation stubs.
func Media() []tools.Definition {
	return []tools.Definition{
		stub("generate_image", "media", "Generate an image from a text prompt.", textSchema(map[string]string{
			"prompt": "Image description",
		}, []string{"prompt"})),
		stub("generate_video", "media", "Generate a short video from a text prompt.", textSchema(map[string]string{
			"prompt": "Video description",
		}, []string{"prompt"})),
	}
}

// Twitter returns the posting/search/threads stubs.
func Twitter() []tools.Definition {
	return []tools.Definition{
		stub("post_tweet", "twitter", "Post a tweet.", textSchema(map[string]string{
			"text": "Tweet text",
		}, []string{"text"})),
		stub("search_tweets", "twitter", "Search recent tweets.", textSchema(map[string]string{
			"query": "Search query",
		}, []string{"query"})),
		stub("post_thread", "twitter", "Post a thread of tweets.", textSchema(map[string]string{
			"texts": "JSON array of tweet bodies, one per thread entry",
		}, []string{"texts"})),
	}
}

// All returns every stub Definition across every unconfigured category.
func All() []tools.Definition {
	var out []tools.Definition
	out = append(out, Email()...)
	out = append(out, Calendar()...)
	out = append(out, Workspace()...)
	out = append(out, Media()...)
	out = append(out, Twitter()...)
	return out
}

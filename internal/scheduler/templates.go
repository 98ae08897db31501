package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"coco/internal/cocoerr"
)

// Template runs one autonomous task firing against the given config and
// returns a short human-readable output string for the Execution record.
type Template func(ctx context.Context, rt *Runtime, task Task) (string, error)

// TemplateInfo pairs a Template with whether its external actions must be
// queued to the outbox for manual approval rather than executed directly.
type TemplateInfo struct {
	Name             string
	RequiresApproval bool
	Run              Template
}

// Registry is the fixed catalog of template names the scheduler can fire.
var Registry = map[string]TemplateInfo{
	"simple_email":   {Name: "simple_email", RequiresApproval: true, Run: simpleEmail},
	"calendar_email": {Name: "calendar_email", RequiresApproval: true, Run: calendarEmail},
	"news_digest":    {Name: "news_digest", RequiresApproval: true, Run: newsDigest},
	"health_check":   {Name: "health_check", RequiresApproval: false, Run: healthCheck},
	"web_research":   {Name: "web_research", RequiresApproval: false, Run: webResearch},
	"meeting_prep":   {Name: "meeting_prep", RequiresApproval: true, Run: meetingPrep},
	"weekly_report":  {Name: "weekly_report", RequiresApproval: true, Run: weeklyReport},
	"video_message":  {Name: "video_message", RequiresApproval: true, Run: videoMessage},
	"tweet_quote":    {Name: "tweet_quote", RequiresApproval: true, Run: tweetQuote},
	"tweet_headline": {Name: "tweet_headline", RequiresApproval: true, Run: tweetHeadline},
	"tweet_thread":   {Name: "tweet_thread", RequiresApproval: true, Run: tweetThread},
}

func cfgString(cfg map[string]any, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}

func cfgStrings(cfg map[string]any, key string) []string {
	raw, ok := cfg[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// outboxOrSend checks the rate limiter and task's approval requirement: if
// approval is required, it queues to the outbox; otherwise it checks quota
// and dispatches directly. Returns a status string for the Execution output.
func outboxOrSend(ctx context.Context, rt *Runtime, task Task, service, toolName string, args map[string]any) (string, error) {
	if task.RequiresApproval {
		payload, err := json.Marshal(args)
		if err != nil {
			return "", cocoerr.Wrap(cocoerr.Internal, "marshal outbox payload", err)
		}
		if err := rt.Store.WriteOutbox(OutboxEntry{TaskID: task.ID, Kind: toolName, PayloadRaw: payload}); err != nil {
			return "", err
		}
		return "queued to outbox for approval", nil
	}
	if rt.Limiter != nil && !rt.Limiter.Consume(service) {
		return "rate-limited, skipped", nil
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return "", cocoerr.Wrap(cocoerr.Internal, "marshal tool args", err)
	}
	return rt.dispatch(ctx, toolName, argsJSON)
}

func simpleEmail(ctx context.Context, rt *Runtime, task Task) (string, error) {
	to := cfgString(task.Config, "to", "")
	subject := cfgString(task.Config, "subject", task.Name)
	body := cfgString(task.Config, "body", "")
	out, err := outboxOrSend(ctx, rt, task, "email", "send_email", map[string]any{"to": to, "subject": subject, "body": body})
	if err != nil {
		return "", err
	}
	rt.recordExchange(task, out)
	return out, nil
}

func calendarEmail(ctx context.Context, rt *Runtime, task Task) (string, error) {
	eventsJSON, err := rt.dispatch(ctx, "list_events", []byte(`{}`))
	if err != nil {
		return "", err
	}
	to := cfgString(task.Config, "to", "")
	out, err := outboxOrSend(ctx, rt, task, "email", "send_email", map[string]any{
		"to": to, "subject": "Your calendar digest", "body": eventsJSON,
	})
	if err != nil {
		return "", err
	}
	rt.recordExchange(task, out)
	return out, nil
}

func newsDigest(ctx context.Context, rt *Runtime, task Task) (string, error) {
	topics := cfgStrings(task.Config, "topics")
	recipients := cfgStrings(task.Config, "recipients")

	var sections []string
	for _, topic := range topics {
		raw, _ := json.Marshal(map[string]any{"query": topic})
		result, err := rt.dispatch(ctx, "search_web", raw)
		if err != nil {
			return "", err
		}
		sections = append(sections, fmt.Sprintf("## %s\n%s", topic, result))
	}
	body := strings.Join(sections, "\n\n")

	to := ""
	if len(recipients) > 0 {
		to = strings.Join(recipients, ",")
	}
	out, err := outboxOrSend(ctx, rt, task, "email", "send_email", map[string]any{
		"to": to, "subject": "News digest", "body": body,
	})
	if err != nil {
		return "", err
	}
	rt.recordExchange(task, out)
	return out, nil
}

func healthCheck(ctx context.Context, rt *Runtime, task Task) (string, error) {
	out, err := rt.dispatch(ctx, "list_dir", []byte(`{"path":"."}`))
	if err != nil {
		return "", err
	}
	summary := "health check ok: " + out
	rt.recordExchange(task, summary)
	return summary, nil
}

func webResearch(ctx context.Context, rt *Runtime, task Task) (string, error) {
	query := cfgString(task.Config, "query", task.Name)
	raw, _ := json.Marshal(map[string]any{"query": query})
	out, err := rt.dispatch(ctx, "search_web", raw)
	if err != nil {
		return "", err
	}
	rt.recordExchange(task, out)
	return out, nil
}

func meetingPrep(ctx context.Context, rt *Runtime, task Task) (string, error) {
	eventsJSON, err := rt.dispatch(ctx, "list_events", []byte(`{}`))
	if err != nil {
		return "", err
	}
	to := cfgString(task.Config, "to", "")
	out, err := outboxOrSend(ctx, rt, task, "email", "send_email", map[string]any{
		"to": to, "subject": "Meeting prep", "body": eventsJSON,
	})
	if err != nil {
		return "", err
	}
	rt.recordExchange(task, out)
	return out, nil
}

func weeklyReport(ctx context.Context, rt *Runtime, task Task) (string, error) {
	var execSummaries []string
	if rt.Store != nil {
		all, err := rt.Store.All()
		if err == nil {
			for _, t := range all {
				execSummaries = append(execSummaries, t.Name+": "+string(t.State))
			}
		}
	}
	body := strings.Join(execSummaries, "\n")
	if rt.LLM != nil {
		summarized, err := rt.chatSummarize(ctx, "Summarize this week's autonomous task activity:\n"+body)
		if err == nil {
			body = summarized
		}
	}
	to := cfgString(task.Config, "to", "")
	out, err := outboxOrSend(ctx, rt, task, "email", "send_email", map[string]any{
		"to": to, "subject": "Weekly report", "body": body,
	})
	if err != nil {
		return "", err
	}
	rt.recordExchange(task, out)
	return out, nil
}

func videoMessage(ctx context.Context, rt *Runtime, task Task) (string, error) {
	prompt := cfgString(task.Config, "prompt", task.Name)
	out, err := outboxOrSend(ctx, rt, task, "media", "generate_video", map[string]any{"prompt": prompt})
	if err != nil {
		return "", err
	}
	rt.recordExchange(task, out)
	return out, nil
}

func tweetQuote(ctx context.Context, rt *Runtime, task Task) (string, error) {
	text := cfgString(task.Config, "text", task.Name)
	out, err := outboxOrSend(ctx, rt, task, "twitter", "post_tweet", map[string]any{"text": text})
	if err != nil {
		return "", err
	}
	rt.recordExchange(task, out)
	return out, nil
}

func tweetHeadline(ctx context.Context, rt *Runtime, task Task) (string, error) {
	query := cfgString(task.Config, "query", task.Name)
	raw, _ := json.Marshal(map[string]any{"query": query})
	headline, err := rt.dispatch(ctx, "search_web", raw)
	if err != nil {
		return "", err
	}
	out, err := outboxOrSend(ctx, rt, task, "twitter", "post_tweet", map[string]any{"text": headline})
	if err != nil {
		return "", err
	}
	rt.recordExchange(task, out)
	return out, nil
}

func tweetThread(ctx context.Context, rt *Runtime, task Task) (string, error) {
	texts := cfgStrings(task.Config, "texts")
	textsJSON, err := json.Marshal(texts)
	if err != nil {
		return "", cocoerr.Wrap(cocoerr.Internal, "marshal thread texts", err)
	}
	out, err := outboxOrSend(ctx, rt, task, "twitter", "post_thread", map[string]any{"texts": string(textsJSON)})
	if err != nil {
		return "", err
	}
	rt.recordExchange(task, out)
	return out, nil
}

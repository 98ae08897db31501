// Package extract turns conversation exchanges and tool calls into Facts,
// via a registry of small per-type and per-tool heuristics.
package extract

import (
	"regexp"
	"strings"

	"coco/internal/episodic"
	"coco/internal/facts"
	"coco/internal/llm"
)

// Draft is a not-yet-persisted fact: type, content, and context.
type Draft struct {
	Type    facts.Type
	Content string
	Context string
}

// ExchangeExtractor inspects an exchange's text and emits zero or more
// fact drafts.
type ExchangeExtractor func(ex episodic.Exchange) []Draft

// ToolExtractor inspects a completed tool call (name, args, result) and
// emits fact drafts describing it: two for the email tools and one for
// every other registered category.
type ToolExtractor func(call llm.ToolCall, result string) []Draft

// Registry holds every registered extractor, keyed for dispatch.
type Registry struct {
	exchangeExtractors []ExchangeExtractor
	toolExtractors     map[string]ToolExtractor
}

// NewRegistry builds the default registry: one extractor per fact-text
// heuristic plus one per fact-extracting tool category.
func NewRegistry() *Registry {
	r := &Registry{toolExtractors: map[string]ToolExtractor{}}
	r.registerExchangeExtractors()
	r.registerToolExtractors()
	return r
}

// ExtractFromExchange runs every registered exchange extractor over ex and
// returns the union of drafts produced.
func (r *Registry) ExtractFromExchange(ex episodic.Exchange) []Draft {
	var out []Draft
	for _, fn := range r.exchangeExtractors {
		out = append(out, fn(ex)...)
	}
	return out
}

// ExtractFromTool dispatches to the extractor registered for call.Name. If
// none is registered, it emits a single generic tool_use fact.
func (r *Registry) ExtractFromTool(call llm.ToolCall, result string) []Draft {
	if fn, ok := r.toolExtractors[call.Name]; ok {
		return fn(call, result)
	}
	return []Draft{{
		Type:    facts.TypeToolUse,
		Content: "used tool " + call.Name,
		Context: truncate(result, 200),
	}}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var (
	reCommand     = regexp.MustCompile(`^(\$ |(git|docker|kubectl|ls|cd|pwd|mv|cp|rm|grep|find)\s)`)
	reURL         = regexp.MustCompile(`https?://[^\s]+`)
	reAppointment = regexp.MustCompile(`(?i)(meeting with .+ at .+|call at .+|appointment at .+ on .+)`)
	reContact     = regexp.MustCompile(`(?i)(email .+ at .+|call [A-Z][a-z]+|reach out to [A-Z][a-z]+)`)
)

var preferencePhrases = []string{"i prefer", "i like", "i always", "i never", "i don't", "favorite"}
var taskPhrases = []string{"need to", "should", "must", "remind me to", "todo:"}
var notePhrases = []string{"note:", "fyi:", "important:", "remember:"}

func (r *Registry) registerExchangeExtractors() {
	r.exchangeExtractors = append(r.exchangeExtractors,
		extractByLineRegex(facts.TypeCommand, reCommand),
		extractURLs,
		extractByRegex(facts.TypeAppointment, reAppointment),
		extractByRegex(facts.TypeContact, reContact),
		extractByPhrases(facts.TypePreference, preferencePhrases),
		extractByPhrases(facts.TypeTask, taskPhrases),
		extractByPhrases(facts.TypeNote, notePhrases),
	)
}

func extractByLineRegex(t facts.Type, re *regexp.Regexp) ExchangeExtractor {
	return func(ex episodic.Exchange) []Draft {
		var out []Draft
		for _, line := range strings.Split(ex.UserText+"\n"+ex.AssistantText, "\n") {
			line = strings.TrimSpace(line)
			if re.MatchString(line) {
				out = append(out, Draft{Type: t, Content: line})
			}
		}
		return out
	}
}

func extractByRegex(t facts.Type, re *regexp.Regexp) ExchangeExtractor {
	return func(ex episodic.Exchange) []Draft {
		var out []Draft
		text := ex.UserText + " " + ex.AssistantText
		for _, m := range re.FindAllString(text, -1) {
			out = append(out, Draft{Type: t, Content: m})
		}
		return out
	}
}

func extractURLs(ex episodic.Exchange) []Draft {
	var out []Draft
	text := ex.UserText + " " + ex.AssistantText
	for _, m := range reURL.FindAllString(text, -1) {
		out = append(out, Draft{Type: facts.TypeURL, Content: m})
	}
	return out
}

func extractByPhrases(t facts.Type, phrases []string) ExchangeExtractor {
	return func(ex episodic.Exchange) []Draft {
		var out []Draft
		text := ex.UserText
		lower := strings.ToLower(text)
		for _, p := range phrases {
			if strings.Contains(lower, p) {
				out = append(out, Draft{Type: t, Content: text})
				break
			}
		}
		return out
	}
}

// registerToolExtractors wires the 14 fact-extracting tool categories below.
// The email extractor emits two drafts per call; every other category emits
// one.
func (r *Registry) registerToolExtractors() {
	reg := func(names []string, fn ToolExtractor) {
		for _, n := range names {
			r.toolExtractors[n] = fn
		}
	}

	reg([]string{"send_email", "check_emails", "read_email_content"}, emailExtractor)
	reg([]string{"docs_create", "docs_read", "docs_update"}, docsExtractor)
	reg([]string{"sheets_create", "sheets_read", "sheets_update"}, sheetsExtractor)
	reg([]string{"generate_image"}, imageExtractor)
	reg([]string{"generate_video"}, videoExtractor)
	reg([]string{"read_file", "write_file"}, filesExtractor)
	reg([]string{"search_web", "search_code"}, searchExtractor)
	reg([]string{"list_events", "create_event"}, calendarExtractor)
	reg([]string{"drive_upload"}, uploadExtractor)
	reg([]string{"drive_download"}, downloadExtractor)
	reg([]string{"list_dir"}, foldersExtractor)
	reg([]string{"run_python_snippet"}, analysisExtractor)
	reg([]string{"run_command"}, shellExtractor)
	reg([]string{"post_tweet", "search_tweets", "post_thread"}, twitterExtractor)
}

func emailExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeCommunication, Content: "email action: " + call.Name, Context: truncate(result, 200)},
		{Type: facts.TypeContact, Content: "email correspondence via " + call.Name, Context: truncate(string(call.Args), 200)},
	}
}

func docsExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeNote, Content: "document action: " + call.Name, Context: truncate(result, 200)},
	}
}

func sheetsExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeNote, Content: "spreadsheet action: " + call.Name, Context: truncate(result, 200)},
	}
}

func imageExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeToolUse, Content: "generated image via " + call.Name, Context: truncate(string(call.Args), 200)},
	}
}

func videoExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeToolUse, Content: "generated video via " + call.Name, Context: truncate(string(call.Args), 200)},
	}
}

func filesExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeFile, Content: "file action: " + call.Name, Context: truncate(string(call.Args), 200)},
	}
}

func searchExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeNote, Content: "search performed via " + call.Name, Context: truncate(string(call.Args), 200)},
	}
}

func calendarExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeAppointment, Content: "calendar action: " + call.Name, Context: truncate(result, 200)},
	}
}

func uploadExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeFile, Content: "uploaded via " + call.Name, Context: truncate(string(call.Args), 200)},
	}
}

func downloadExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeFile, Content: "downloaded via " + call.Name, Context: truncate(string(call.Args), 200)},
	}
}

func foldersExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeFile, Content: "listed directory via " + call.Name, Context: truncate(result, 200)},
	}
}

func analysisExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeCode, Content: "ran analysis via " + call.Name, Context: truncate(result, 200)},
	}
}

func shellExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeCommand, Content: "shell command via " + call.Name, Context: truncate(string(call.Args), 200)},
	}
}

func twitterExtractor(call llm.ToolCall, result string) []Draft {
	return []Draft{
		{Type: facts.TypeCommunication, Content: "twitter action: " + call.Name, Context: truncate(result, 200)},
	}
}
